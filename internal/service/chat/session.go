package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tdcarpool/carpool/backend/internal/model/chat"
)

// SessionConfig describes one assistant widget instance.
type SessionConfig struct {
	ID        string
	Caller    chat.CallerContext
	Welcome   string
	Responder Responder
	Latency   Latency
	// Spawn runs deferred reply work; nil starts a plain goroutine.
	Spawn  func(func())
	Logger zerolog.Logger
	Now    func() time.Time
}

// Session is the widget state machine: closed, open and idle, or open and
// waiting for a reply. At most one reply is in flight at a time.
type Session struct {
	mu         sync.Mutex
	id         string
	caller     chat.CallerContext
	welcome    string
	open       bool
	waiting    bool
	transcript *Transcript
	responder  Responder
	latency    Latency
	spawn      func(func())
	log        zerolog.Logger
	now        func() time.Time
	ctx        context.Context
	cancel     context.CancelFunc
	createdAt  time.Time
	lastActive time.Time
}

// NewSession creates a closed session with an empty transcript.
func NewSession(cfg SessionConfig) *Session {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	spawn := cfg.Spawn
	if spawn == nil {
		spawn = func(fn func()) { go fn() }
	}
	latency := cfg.Latency
	if latency == nil {
		latency = NoLatency
	}

	ctx, cancel := context.WithCancel(context.Background())
	created := now()

	return &Session{
		id:         cfg.ID,
		caller:     cfg.Caller,
		welcome:    cfg.Welcome,
		transcript: NewTranscript(cfg.ID),
		responder:  cfg.Responder,
		latency:    latency,
		spawn:      spawn,
		log:        cfg.Logger.With().Str("session", cfg.ID).Logger(),
		now:        now,
		ctx:        ctx,
		cancel:     cancel,
		createdAt:  created,
		lastActive: created,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Caller returns the host-supplied context the session was created with.
func (s *Session) Caller() chat.CallerContext { return s.caller }

// Toggle opens a closed widget or closes an open one. The first opening of
// a session with an empty transcript appends the welcome message.
func (s *Session) Toggle() chat.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return s.viewLocked()
	}

	s.open = !s.open
	s.lastActive = s.now()

	if s.open && s.transcript.Len() == 0 {
		s.transcript.Append(chat.Message{
			Author:    chat.AuthorAssistant,
			Text:      s.welcome,
			CreatedAt: s.now(),
		})
	}

	s.log.Debug().Bool("open", s.open).Msg("[session] toggled")
	return s.viewLocked()
}

// Submit records a user question and schedules its reply. It reports false,
// changing nothing, when the widget is closed, a reply is still pending or
// text is blank.
func (s *Session) Submit(text string) (*Pending, bool) {
	s.mu.Lock()
	if s.ctx.Err() != nil || !s.open || s.waiting || strings.TrimSpace(text) == "" {
		s.mu.Unlock()
		return nil, false
	}

	userMsg := s.transcript.Append(chat.Message{
		Author:    chat.AuthorUser,
		Text:      text,
		CreatedAt: s.now(),
	})
	s.waiting = true
	s.lastActive = s.now()
	s.mu.Unlock()

	pending := &Pending{request: userMsg, done: make(chan struct{})}
	query := Query{Text: text, Role: s.caller.Role, Page: s.caller.Page}
	s.spawn(func() { s.resolve(pending, query) })

	return pending, true
}

// resolve waits out the simulated latency, then appends the reply. Closing
// the widget in the meantime does not stop it; discarding the session does.
func (s *Session) resolve(p *Pending, q Query) {
	defer close(p.done)

	if err := s.latency.Wait(s.ctx); err != nil {
		s.fail(p, err)
		return
	}

	reply, err := s.responder.Respond(s.ctx, q)
	if err != nil {
		s.fail(p, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		p.err = ErrSessionDiscarded
		return
	}

	p.reply = s.transcript.Append(chat.Message{
		Author:    chat.AuthorAssistant,
		Text:      reply,
		CreatedAt: s.now(),
	})
	s.waiting = false
	s.lastActive = s.now()
}

func (s *Session) fail(p *Pending, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.waiting = false
	if s.ctx.Err() != nil || errors.Is(err, context.Canceled) {
		p.err = ErrSessionDiscarded
		return
	}

	p.err = fmt.Errorf("resolve reply: %w", err)
	s.log.Error().Err(err).Msg("[session] reply failed")
}

// View returns the current session snapshot.
func (s *Session) View() chat.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// State returns the current interaction state.
func (s *Session) State() chat.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Transcript returns a snapshot of the session's messages.
func (s *Session) Transcript() []chat.Message {
	return s.transcript.All()
}

// Discard ends the session. A pending reply is dropped.
func (s *Session) Discard() {
	s.cancel()
}

// Discarded reports whether Discard has been called.
func (s *Session) Discarded() bool {
	return s.ctx.Err() != nil
}

// IdleSince reports the time of the last state change.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) stateLocked() chat.State {
	switch {
	case !s.open:
		return chat.StateClosed
	case s.waiting:
		return chat.StateOpenWaiting
	default:
		return chat.StateOpenIdle
	}
}

func (s *Session) viewLocked() chat.Session {
	return chat.Session{
		ID:           s.id,
		Page:         s.caller.Page,
		Role:         s.caller.Role,
		State:        s.stateLocked(),
		Open:         s.open,
		Waiting:      s.waiting,
		MessageCount: s.transcript.Len(),
		CreatedAt:    s.createdAt,
		LastActiveAt: s.lastActive,
	}
}

// Pending is the future for one submitted question. It completes exactly
// once, with either the assistant's reply or an error.
type Pending struct {
	request chat.Message
	done    chan struct{}
	reply   chat.Message
	err     error
}

// Request is the user message that was appended on submit.
func (p *Pending) Request() chat.Message { return p.request }

// Done is closed when the reply has landed or failed.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the reply lands or ctx is done.
func (p *Pending) Wait(ctx context.Context) (chat.Message, error) {
	select {
	case <-ctx.Done():
		return chat.Message{}, ctx.Err()
	case <-p.done:
		return p.reply, p.err
	}
}
