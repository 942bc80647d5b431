package sportradar

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRequestInterval is the mandatory gap between API calls on the
// Sportradar trial tier.
const DefaultRequestInterval = 1500 * time.Millisecond

// Pacer gates outbound API calls. Wait blocks until the next call is
// allowed or the context is cancelled.
type Pacer interface {
	Wait(ctx context.Context) error
}

// intervalPacer spaces calls a fixed interval apart using a token
// bucket. The bucket starts empty, so the first call waits a full
// interval too: n calls always span at least n intervals.
type intervalPacer struct {
	limiter *rate.Limiter
}

// NewIntervalPacer returns a Pacer that allows one call per interval.
func NewIntervalPacer(interval time.Duration) Pacer {
	if interval <= 0 {
		interval = DefaultRequestInterval
	}

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	// Burn the initial token so the very first Wait blocks
	limiter.Allow()

	return &intervalPacer{limiter: limiter}
}

func (p *intervalPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
