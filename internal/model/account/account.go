package account

import (
	"errors"
	"strings"

	"github.com/tdcarpool/carpool/backend/internal/model/role"
)

// EmailDomain is the only mailbox domain allowed to sign in.
const EmailDomain = "@td.com"

var (
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmailDomain = errors.New("please use your TD email address (@td.com)")
)

// Account is the signed-in user record the web client keeps for the session.
type Account struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  role.Role `json:"role"`
}

// SignIn derives the account record for an email address. There is no
// credential check; the address alone decides name and role.
func SignIn(email string) (Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Account{}, ErrEmailRequired
	}
	if !strings.HasSuffix(email, EmailDomain) {
		return Account{}, ErrInvalidEmailDomain
	}

	r := role.Rider
	if strings.Contains(email, "admin") {
		r = role.Admin
	}

	return Account{
		Name:  email[:strings.Index(email, "@")],
		Email: email,
		Role:  r,
	}, nil
}
