package navigator

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pacer spaces out interactions with the remote form.
type Pacer interface {
	Pause(ctx context.Context, extra time.Duration) error
}

type randomPacer struct {
	min time.Duration
	max time.Duration
}

// NewRandomPacer pauses for a uniformly random duration in [min, max] plus extra.
func NewRandomPacer(min, max time.Duration) Pacer {
	if max < min {
		max = min
	}
	return &randomPacer{min: min, max: max}
}

func (p *randomPacer) Pause(ctx context.Context, extra time.Duration) error {
	d := p.min
	if span := p.max - p.min; span > 0 {
		d += rand.N(span + 1)
	}
	return sleep(ctx, d+extra)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
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
