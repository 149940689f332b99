package protocol

import (
	"context"
	"sync"
	"time"
)

// StartGate holds a loading screen until startGame arrives, proceeding
// anyway once the fallback elapses.
type StartGate struct {
	fallback  time.Duration
	confirmed chan struct{}
	once      sync.Once
}

func NewStartGate(fallback time.Duration) *StartGate {
	return &StartGate{fallback: fallback, confirmed: make(chan struct{})}
}

// Confirm records that startGame was received. Safe to call repeatedly.
func (g *StartGate) Confirm() {
	g.once.Do(func() { close(g.confirmed) })
}

// Wait blocks until Confirm, the fallback timer, or ctx. It reports whether
// the start was confirmed rather than assumed.
func (g *StartGate) Wait(ctx context.Context) (bool, error) {
	timer := time.NewTimer(g.fallback)
	defer timer.Stop()

	select {
	case <-g.confirmed:
		return true, nil
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
