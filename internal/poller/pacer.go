package poller

import (
	"context"
	"time"
)

// Pacer enforces the rate-limiting contract with the fetch provider: never
// more than one call in flight (the poll loop is sequential by construction)
// and never less than the configured delay between call starts. It is not a
// performance knob; the provider cannot sustain faster or overlapping calls.
type Pacer struct {
	delay time.Duration
	last  time.Time

	// Injectable for tests.
	now   func() time.Time
	sleep func(context.Context, time.Duration)
}

// NewPacer creates a pacer with the given minimum spacing between calls.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{
		delay: delay,
		now:   time.Now,
		sleep: sleepContext,
	}
}

// Reset clears the pacing history so the next Wait returns immediately.
// Called at the start of a run: the delay applies between tasks, not before
// the first one.
func (p *Pacer) Reset() {
	p.last = time.Time{}
}

// Wait blocks until at least the configured delay has passed since the
// previous call, then marks the current call's start. Returns early if the
// context is cancelled.
func (p *Pacer) Wait(ctx context.Context) {
	now := p.now()
	if !p.last.IsZero() {
		if remaining := p.delay - now.Sub(p.last); remaining > 0 {
			p.sleep(ctx, remaining)
		}
	}
	p.last = p.now()
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
