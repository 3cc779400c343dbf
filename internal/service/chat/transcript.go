package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tdcarpool/carpool/backend/internal/model/chat"
)

// Transcript is the append-only message history of one session.
type Transcript struct {
	mu        sync.RWMutex
	sessionID string
	messages  []chat.Message
}

// NewTranscript returns an empty transcript owned by sessionID.
func NewTranscript(sessionID string) *Transcript {
	return &Transcript{
		sessionID: sessionID,
		messages:  make([]chat.Message, 0, 16),
	}
}

// Append stores msg at the end of the transcript, assigning its ID, sequence
// number and owning session, and returns the stored copy.
func (t *Transcript) Append(msg chat.Message) chat.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg.ID = uuid.NewString()
	msg.SessionID = t.sessionID
	msg.Seq = len(t.messages) + 1
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	t.messages = append(t.messages, msg)
	return msg
}

// All returns a snapshot of the messages in insertion order.
func (t *Transcript) All() []chat.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	copied := make([]chat.Message, len(t.messages))
	copy(copied, t.messages)
	return copied
}

// Len reports how many messages have been appended.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}
