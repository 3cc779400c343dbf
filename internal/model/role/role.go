package role

import "strings"

// Role is the capability tag a caller presents to the assistant and the admin API.
type Role string

const (
	Guest  Role = "guest"
	Rider  Role = "rider"
	Driver Role = "driver"
	Admin  Role = "admin"
)

// All lists every known role in ascending privilege order.
func All() []Role {
	return []Role{Guest, Rider, Driver, Admin}
}

// Parse maps a free-form role string onto the closed set. Unknown or empty
// values become Guest.
func Parse(raw string) Role {
	r, ok := Lookup(raw)
	if !ok {
		return Guest
	}
	return r
}

// Lookup reports whether raw names a known role.
func Lookup(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case Guest:
		return Guest, true
	case Rider:
		return Rider, true
	case Driver:
		return Driver, true
	case Admin:
		return Admin, true
	default:
		return "", false
	}
}

func (r Role) String() string { return string(r) }

// IsAdmin reports whether r grants moderation features.
func (r Role) IsAdmin() bool { return r == Admin }
