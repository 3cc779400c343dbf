package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tdcarpool/carpool/backend/internal/analysis/intent"
	"github.com/tdcarpool/carpool/backend/internal/model/chat"
	"github.com/tdcarpool/carpool/backend/internal/model/role"
)

// gateLatency holds every reply until the test releases it.
type gateLatency struct {
	release chan struct{}
}

func newGate() *gateLatency {
	return &gateLatency{release: make(chan struct{}, 16)}
}

func (g *gateLatency) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-g.release:
		return nil
	}
}

func (g *gateLatency) Release() { g.release <- struct{}{} }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestPipeline(t *testing.T) (*Pipeline, *intent.Resolver) {
	t.Helper()
	resolver := intent.NewResolver(intent.Default())
	pipeline, err := NewPipeline(context.Background(), resolver, zerolog.Nop())
	require.NoError(t, err)
	return pipeline, resolver
}

func newTestSession(t *testing.T, who role.Role, latency Latency) (*Session, *intent.Resolver) {
	t.Helper()
	pipeline, resolver := newTestPipeline(t)
	session := NewSession(SessionConfig{
		ID:        "session-1",
		Caller:    chat.CallerContext{Page: "dashboard", Role: who},
		Welcome:   resolver.Table().Welcome(),
		Responder: pipeline,
		Latency:   latency,
		Logger:    zerolog.Nop(),
	})
	t.Cleanup(session.Discard)
	return session, resolver
}

func waitReply(t *testing.T, p *Pending) chat.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg, err := p.Wait(ctx)
	require.NoError(t, err)
	return msg
}
