package download

import (
	"context"
	"math/rand"
	"time"
)

// DelayRange is an inclusive duration interval to draw random delays from.
// A range whose Max is zero or negative is disabled and always yields zero.
type DelayRange struct {
	Min time.Duration `json:"min"`
	Max time.Duration `json:"max"`
}

// Roll draws a uniformly distributed duration from the range.
func (r DelayRange) Roll() time.Duration {
	if r.Max <= 0 {
		return 0
	}
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(rand.Int63n(int64(r.Max-r.Min)))
}

// Enabled reports whether the range can yield a non-zero delay.
func (r DelayRange) Enabled() bool {
	return r.Max > 0
}

// Pacer produces the delay inserted before a fetch attempt. Randomized
// pacing makes the request pattern look less machine-like, which matters
// against interval-based bot detection.
type Pacer interface {
	Delay() time.Duration
}

type jitterPacer struct {
	rng DelayRange
}

// NewPacer returns a Pacer drawing uniformly from rng. A disabled range
// yields a pacer that always returns zero.
func NewPacer(rng DelayRange) Pacer {
	return jitterPacer{rng: rng}
}

func (p jitterPacer) Delay() time.Duration {
	return p.rng.Roll()
}

// sleep waits for d or until ctx is cancelled, whichever comes first.
// A zero or negative d returns immediately without scheduling a timer.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
