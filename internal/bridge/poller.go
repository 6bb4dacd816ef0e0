package bridge

import (
	"context"
	"time"
)

// Default polling parameters. Tuned empirically against Claude Code's redraw
// latency; both are configuration, not invariants.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultDebounce     = 2
)

// WaitResult is the outcome of a stability wait.
type WaitResult int

const (
	// Stable means the ready state held for the debounce count.
	Stable WaitResult = iota
	// TimedOut means the deadline passed first. Not a failure: the caller
	// extracts whatever the transcript holds at that instant.
	TimedOut
)

func (r WaitResult) String() string {
	if r == Stable {
		return "stable"
	}
	return "timed_out"
}

// Poller samples a readiness classification on a fixed interval until it
// holds ready for Debounce consecutive samples. A single ready sample can be
// a snapshot taken mid-redraw that momentarily looks idle; the debounce
// suppresses that false positive at the cost of one extra interval.
type Poller struct {
	Interval time.Duration
	Debounce int
}

// NewPoller returns a Poller with the given interval and debounce count,
// substituting defaults for non-positive values.
func NewPoller(interval time.Duration, debounce int) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Poller{Interval: interval, Debounce: debounce}
}

// WaitUntilStable samples until ready holds for Debounce consecutive samples
// or the timeout elapses, whichever comes first. Any non-ready sample resets
// the counter. Context cancellation counts as a timeout.
//
// The loop samples first and checks the deadline after, so it always
// terminates within timeout plus one interval.
func (p *Poller) WaitUntilStable(ctx context.Context, timeout time.Duration, sample func() State) WaitResult {
	deadline := time.Now().Add(timeout)
	consecutive := 0

	for {
		if sample() == StateReady {
			consecutive++
			if consecutive >= p.Debounce {
				return Stable
			}
		} else {
			consecutive = 0
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return TimedOut
		}
		wait := p.Interval
		if wait > remaining {
			wait = remaining
		}

		select {
		case <-ctx.Done():
			return TimedOut
		case <-time.After(wait):
		}
	}
}
