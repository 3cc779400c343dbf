package chat

import (
	"context"
	"math/rand/v2"
	"time"
)

// Latency is the simulated think time between a question and its reply.
type Latency interface {
	Wait(ctx context.Context) error
}

// JitterLatency waits Base plus a uniformly random extra of at most Jitter.
type JitterLatency struct {
	Base   time.Duration
	Jitter time.Duration
}

// Wait blocks for the computed delay or until ctx is done.
func (l JitterLatency) Wait(ctx context.Context) error {
	d := l.Base
	if l.Jitter > 0 {
		d += rand.N(l.Jitter + 1)
	}
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NoLatency replies as soon as the resolver returns.
var NoLatency Latency = JitterLatency{}
