package crawler

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/catalog-crawler/internal/metrics"
)

// DefaultMinInterval is the default pause between detail fetches.
const DefaultMinInterval = 700 * time.Millisecond

// RateGate enforces a minimum interval between consecutive permits.
// A zero interval disables pacing.
type RateGate struct {
	limiter *rate.Limiter
}

// NewRateGate builds a RateGate. The first Wait returns immediately.
func NewRateGate(minInterval time.Duration) *RateGate {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &RateGate{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next permit is available or ctx is done. When ctx
// has a deadline that falls before the next permit, Wait fails at once with
// an error wrapping context.DeadlineExceeded and the permit is released.
func (g *RateGate) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rate gate wait: %w", err)
	}
	start := time.Now()
	reservation := g.limiter.Reserve()
	if delay := reservation.Delay(); delay > 0 {
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
			reservation.Cancel()
			return fmt.Errorf("rate gate wait: next permit in %s: %w", delay, context.DeadlineExceeded)
		}
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			reservation.Cancel()
			return fmt.Errorf("rate gate wait: %w", ctx.Err())
		}
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateGateWait(waited)
	}
	return nil
}
