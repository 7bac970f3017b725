package interval

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidInterval = errors.New("interval: end must be after start")
	ErrUnknownUnit     = errors.New("interval: unknown billing unit")
)

// Unit is the billing granularity of a listing.
type Unit string

const (
	UnitHour Unit = "HOUR"
	UnitDay  Unit = "DAY"
	UnitWeek Unit = "WEEK"
)

// Span returns the wall-clock length of one unit.
func (u Unit) Span() (time.Duration, error) {
	switch u {
	case UnitHour:
		return time.Hour, nil
	case UnitDay:
		return 24 * time.Hour, nil
	case UnitWeek:
		return 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, string(u))
	}
}

// Interval represents a half-open time window [Start, End) in UTC.
type Interval struct {
	Start time.Time
	End   time.Time
}

// New normalizes both timestamps to UTC and validates the window.
func New(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start.UTC(), End: end.UTC()}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

func (iv Interval) Validate() error {
	if iv.Start.IsZero() || iv.End.IsZero() {
		return ErrInvalidInterval
	}
	if !iv.End.After(iv.Start) {
		return ErrInvalidInterval
	}
	return nil
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching endpoints do not overlap, which is what allows back-to-back
// bookings of the same unit.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Adjacent reports whether the intervals touch without overlapping.
func (iv Interval) Adjacent(other Interval) bool {
	return iv.End.Equal(other.Start) || other.End.Equal(iv.Start)
}

// ContainsInstant reports whether t falls inside [Start, End).
func (iv Interval) ContainsInstant(t time.Time) bool {
	t = t.UTC()
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Clip bounds the interval to the given window. The second return value
// is false when the two do not overlap at all.
func (iv Interval) Clip(window Interval) (Interval, bool) {
	if !iv.Overlaps(window) {
		return Interval{}, false
	}
	out := iv
	if window.Start.After(out.Start) {
		out.Start = window.Start
	}
	if window.End.Before(out.End) {
		out.End = window.End
	}
	return out, true
}

// DurationIn converts the elapsed time into whole billing units, rounding
// any partial unit up. A 25-hour interval billed per day is 2 days.
func (iv Interval) DurationIn(u Unit) (int, error) {
	if err := iv.Validate(); err != nil {
		return 0, err
	}
	span, err := u.Span()
	if err != nil {
		return 0, err
	}
	elapsed := iv.End.Sub(iv.Start)
	units := int(elapsed / span)
	if elapsed%span > 0 {
		units++
	}
	return units, nil
}
