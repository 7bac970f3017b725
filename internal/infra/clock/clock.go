package clock

import "time"

// Clock abstracts time so handlers and the timeout sweeper can be tested
// against a fixed instant.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// NewSystem returns a Clock backed by the wall clock, in UTC.
func NewSystem() Clock { return systemClock{} }

// Fixed is a Clock pinned to a settable instant.
type Fixed struct {
	Instant time.Time
}

func NewFixed(at time.Time) *Fixed { return &Fixed{Instant: at.UTC()} }

func (f *Fixed) Now() time.Time { return f.Instant }

// Advance moves the fixed instant forward.
func (f *Fixed) Advance(d time.Duration) { f.Instant = f.Instant.Add(d) }
