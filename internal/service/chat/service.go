package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/tdcarpool/carpool/backend/internal/model/chat"
	"github.com/tdcarpool/carpool/backend/internal/model/role"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionDiscarded = errors.New("session discarded")
)

// DefaultPage is assumed when the host page does not identify itself.
const DefaultPage = "home"

// Options configures the chat service.
type Options struct {
	Welcome   string
	Responder Responder
	Latency   Latency
	// IdleTTL bounds how long an untouched session survives a sweep; zero
	// disables expiry.
	IdleTTL time.Duration
	Logger  zerolog.Logger
	Now     func() time.Time
}

// Service owns every live assistant session.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     Options
	inflight conc.WaitGroup
	log      zerolog.Logger

	// spawnMu orders spawns against Shutdown's Wait.
	spawnMu sync.Mutex
	closed  bool
}

// NewService bootstraps the in-memory session registry.
func NewService(opts Options) *Service {
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.Latency == nil {
		opts.Latency = NoLatency
	}

	return &Service{
		sessions: make(map[string]*Session),
		opts:     opts,
		log:      opts.Logger,
	}
}

// CreateSession mounts a new, closed assistant widget for caller.
func (s *Service) CreateSession(ctx context.Context, caller chat.CallerContext) (chat.Session, error) {
	if err := ctx.Err(); err != nil {
		return chat.Session{}, err
	}

	caller.Page = strings.TrimSpace(caller.Page)
	if caller.Page == "" {
		caller.Page = DefaultPage
	}
	caller.Role = role.Parse(string(caller.Role))

	session := NewSession(SessionConfig{
		ID:        uuid.NewString(),
		Caller:    caller,
		Welcome:   s.opts.Welcome,
		Responder: s.opts.Responder,
		Latency:   s.opts.Latency,
		Spawn:     s.spawn,
		Logger:    s.log,
		Now:       s.opts.Now,
	})

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.mu.Unlock()

	s.log.Info().
		Str("session", session.ID()).
		Str("page", caller.Page).
		Str("role", caller.Role.String()).
		Msg("[chat] session created")

	return session.View(), nil
}

// Session returns the live session for id.
func (s *Service) Session(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// GetSession retrieves a session snapshot by identifier.
func (s *Service) GetSession(ctx context.Context, id string) (chat.Session, error) {
	session, err := s.Session(ctx, id)
	if err != nil {
		return chat.Session{}, err
	}
	return session.View(), nil
}

// Toggle opens or closes the widget.
func (s *Service) Toggle(ctx context.Context, id string) (chat.Session, error) {
	session, err := s.Session(ctx, id)
	if err != nil {
		return chat.Session{}, err
	}
	return session.Toggle(), nil
}

// Submit hands a question to the session. accepted is false when the
// session rejected the input; that is not an error.
func (s *Service) Submit(ctx context.Context, id, text string) (pending *Pending, accepted bool, err error) {
	session, err := s.Session(ctx, id)
	if err != nil {
		return nil, false, err
	}

	pending, accepted = session.Submit(text)
	if !accepted {
		s.log.Debug().Str("session", id).Str("state", string(session.State())).Msg("[chat] input rejected")
	}
	return pending, accepted, nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(ctx context.Context, id string) ([]chat.Message, error) {
	session, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	return session.Transcript(), nil
}

// DeleteSession unmounts a widget and drops its state.
func (s *Service) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	session.Discard()
	s.log.Info().Str("session", id).Msg("[chat] session deleted")
	return nil
}

// Count reports the number of live sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SweepIdle discards sessions untouched for longer than the idle TTL and
// returns how many were removed.
func (s *Service) SweepIdle(now time.Time) int {
	if s.opts.IdleTTL <= 0 {
		return 0
	}

	var expired []*Session
	s.mu.Lock()
	for id, session := range s.sessions {
		if now.Sub(session.IdleSince()) > s.opts.IdleTTL {
			expired = append(expired, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range expired {
		session.Discard()
	}
	if len(expired) > 0 {
		s.log.Info().Int("expired", len(expired)).Msg("[chat] idle sessions swept")
	}
	return len(expired)
}

// RunJanitor sweeps idle sessions every interval until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.SweepIdle(s.opts.Now())
		}
	}
}

// spawn tracks a reply goroutine. Once the service is closed the reply runs
// inline so no spawn overlaps Shutdown's Wait.
func (s *Service) spawn(fn func()) {
	s.spawnMu.Lock()
	if s.closed {
		s.spawnMu.Unlock()
		fn()
		return
	}
	s.inflight.Go(fn)
	s.spawnMu.Unlock()
}

// Shutdown discards every session and waits for in-flight replies to
// unwind, or for ctx to expire.
func (s *Service) Shutdown(ctx context.Context) error {
	s.spawnMu.Lock()
	s.closed = true
	s.spawnMu.Unlock()

	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.Discard()
	}

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		s.log.Info().Int("sessions", len(sessions)).Msg("[chat] shut down")
		return nil
	}
}
