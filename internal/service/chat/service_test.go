package chat_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdcarpool/carpool/backend/internal/analysis/intent"
	"github.com/tdcarpool/carpool/backend/internal/model/chat"
	"github.com/tdcarpool/carpool/backend/internal/model/role"
	chatservice "github.com/tdcarpool/carpool/backend/internal/service/chat"
)

func newService(t *testing.T, opts chatservice.Options) *chatservice.Service {
	t.Helper()
	resolver := intent.NewResolver(intent.Default())
	pipeline, err := chatservice.NewPipeline(context.Background(), resolver, zerolog.Nop())
	require.NoError(t, err)

	opts.Welcome = resolver.Table().Welcome()
	opts.Responder = pipeline
	opts.Logger = zerolog.Nop()
	svc := chatservice.NewService(opts)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})
	return svc
}

func TestServiceCreateSessionDefaults(t *testing.T) {
	svc := newService(t, chatservice.Options{})
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, chat.CallerContext{Role: "superuser"})
	require.NoError(t, err)

	assert.NotEmpty(t, session.ID)
	assert.Equal(t, chatservice.DefaultPage, session.Page)
	assert.Equal(t, role.Guest, session.Role)
	assert.Equal(t, chat.StateClosed, session.State)
	assert.Equal(t, 1, svc.Count())

	got, err := svc.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := newService(t, chatservice.Options{})
	ctx := context.Background()

	_, err := svc.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, chatservice.ErrSessionNotFound)

	_, _, err = svc.Submit(ctx, "missing", "hello")
	assert.ErrorIs(t, err, chatservice.ErrSessionNotFound)

	_, err = svc.Toggle(ctx, "missing")
	assert.ErrorIs(t, err, chatservice.ErrSessionNotFound)

	assert.ErrorIs(t, svc.DeleteSession(ctx, "missing"), chatservice.ErrSessionNotFound)
}

func TestServiceConversation(t *testing.T) {
	svc := newService(t, chatservice.Options{Latency: chatservice.NoLatency})
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, chat.CallerContext{Page: "admin", Role: role.Admin})
	require.NoError(t, err)

	_, accepted, err := svc.Submit(ctx, session.ID, "manage users")
	require.NoError(t, err)
	assert.False(t, accepted, "closed widget must reject input")

	view, err := svc.Toggle(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, view.Open)

	pending, accepted, err := svc.Submit(ctx, session.ID, "manage users")
	require.NoError(t, err)
	require.True(t, accepted)

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	reply, err := pending.Wait(waitCtx)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "As an admin")

	msgs, err := svc.LoadTranscript(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 3)
}

func TestServiceDeleteSessionDiscardsPending(t *testing.T) {
	svc := newService(t, chatservice.Options{Latency: chatservice.JitterLatency{Base: time.Hour}})
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, chat.CallerContext{Page: "dashboard", Role: role.Rider})
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, session.ID)
	require.NoError(t, err)

	pending, accepted, err := svc.Submit(ctx, session.ID, "hello")
	require.NoError(t, err)
	require.True(t, accepted)

	require.NoError(t, svc.DeleteSession(ctx, session.ID))

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err = pending.Wait(waitCtx)
	assert.True(t, errors.Is(err, chatservice.ErrSessionDiscarded), "got %v", err)

	_, err = svc.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, chatservice.ErrSessionNotFound)
}

func TestServiceSweepIdle(t *testing.T) {
	now := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	svc := newService(t, chatservice.Options{
		IdleTTL: 30 * time.Minute,
		Now:     func() time.Time { return now },
	})
	ctx := context.Background()

	stale, err := svc.CreateSession(ctx, chat.CallerContext{Page: "home"})
	require.NoError(t, err)

	assert.Equal(t, 0, svc.SweepIdle(now.Add(10*time.Minute)))
	assert.Equal(t, 1, svc.SweepIdle(now.Add(31*time.Minute)))

	_, err = svc.GetSession(ctx, stale.ID)
	assert.ErrorIs(t, err, chatservice.ErrSessionNotFound)
	assert.Equal(t, 0, svc.Count())
}

func TestServiceSweepDisabledWithoutTTL(t *testing.T) {
	svc := newService(t, chatservice.Options{})
	_, err := svc.CreateSession(context.Background(), chat.CallerContext{})
	require.NoError(t, err)

	assert.Equal(t, 0, svc.SweepIdle(time.Now().Add(24*time.Hour)))
}

func TestServiceShutdownDrainsInflight(t *testing.T) {
	svc := newService(t, chatservice.Options{Latency: chatservice.JitterLatency{Base: time.Hour}})
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, chat.CallerContext{})
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, session.ID)
	require.NoError(t, err)
	pending, accepted, err := svc.Submit(ctx, session.ID, "hello")
	require.NoError(t, err)
	require.True(t, accepted)

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(shutdownCtx))

	select {
	case <-pending.Done():
	default:
		t.Fatal("pending reply should be settled after shutdown")
	}
	assert.Equal(t, 0, svc.Count())
}

func TestServiceSubmitRacingShutdownSettles(t *testing.T) {
	svc := newService(t, chatservice.Options{Latency: chatservice.JitterLatency{Base: time.Hour}})
	ctx := context.Background()

	const widgets = 8
	sessions := make([]*chatservice.Session, 0, widgets)
	for i := 0; i < widgets; i++ {
		view, err := svc.CreateSession(ctx, chat.CallerContext{})
		require.NoError(t, err)
		session, err := svc.Session(ctx, view.ID)
		require.NoError(t, err)
		session.Toggle()
		sessions = append(sessions, session)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		pending []*chatservice.Pending
	)
	start := make(chan struct{})
	for _, session := range sessions {
		wg.Add(1)
		go func(session *chatservice.Session) {
			defer wg.Done()
			<-start
			if p, ok := session.Submit("where is my ride"); ok {
				mu.Lock()
				pending = append(pending, p)
				mu.Unlock()
			}
		}(session)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	close(start)
	require.NoError(t, svc.Shutdown(shutdownCtx))
	wg.Wait()

	for _, p := range pending {
		_, err := p.Wait(shutdownCtx)
		assert.ErrorIs(t, err, chatservice.ErrSessionDiscarded)
	}

	for _, session := range sessions {
		_, accepted := session.Submit("hello again")
		assert.False(t, accepted, "discarded session must reject input")
	}
}
