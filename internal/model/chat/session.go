package chat

import (
	"time"

	"github.com/tdcarpool/carpool/backend/internal/model/role"
)

// State is the widget interaction state.
type State string

const (
	StateClosed      State = "closed"
	StateOpenIdle    State = "open-idle"
	StateOpenWaiting State = "open-waiting"
)

// IsOpen reports whether the widget is showing its transcript.
func (s State) IsOpen() bool { return s == StateOpenIdle || s == StateOpenWaiting }

// CallerContext is the host page's read-only description of who is asking.
type CallerContext struct {
	Page string    `json:"page"`
	Role role.Role `json:"role"`
}

// Session is a point-in-time view of one assistant widget instance.
type Session struct {
	ID           string    `json:"id"`
	Page         string    `json:"page"`
	Role         role.Role `json:"role"`
	State        State     `json:"state"`
	Open         bool      `json:"open"`
	Waiting      bool      `json:"waiting"`
	MessageCount int       `json:"messageCount"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}
