package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestNewRejectsInvertedWindow(t *testing.T) {
	_, err := New(day(5), day(5))
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = New(day(6), day(5))
	assert.ErrorIs(t, err, ErrInvalidInterval)

	_, err = New(time.Time{}, day(5))
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestOverlapsHalfOpen(t *testing.T) {
	a, err := New(day(1), day(5))
	require.NoError(t, err)

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"identical", day(1), day(5), true},
		{"contained", day(2), day(3), true},
		{"left partial", day(3), day(8), true},
		{"touching at end", day(5), day(9), false},
		{"touching at start", time.Date(2026, 2, 25, 0, 0, 0, 0, time.UTC), day(1), false},
		{"disjoint", day(10), day(12), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Overlaps(b))
			assert.Equal(t, tt.want, b.Overlaps(a))
		})
	}
}

func TestAdjacent(t *testing.T) {
	a, _ := New(day(1), day(5))
	b, _ := New(day(5), day(9))
	assert.True(t, a.Adjacent(b))
	assert.True(t, b.Adjacent(a))
	assert.False(t, a.Overlaps(b))
}

func TestDurationInRoundsUp(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		unit  Unit
		want  int
	}{
		{"three whole days", day(1), day(4), UnitDay, 3},
		{"25 hours billed per day", day(1), day(2).Add(time.Hour), UnitDay, 2},
		{"one second over one day", day(1), day(2).Add(time.Second), UnitDay, 2},
		{"90 minutes billed per hour", day(1), day(1).Add(90 * time.Minute), UnitHour, 2},
		{"eight days billed per week", day(1), day(9), UnitWeek, 2},
		{"exactly one week", day(1), day(8), UnitWeek, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv, err := New(tt.start, tt.end)
			require.NoError(t, err)
			got, err := iv.DurationIn(tt.unit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDurationInUnknownUnit(t *testing.T) {
	iv, _ := New(day(1), day(2))
	_, err := iv.DurationIn(Unit("FORTNIGHT"))
	assert.ErrorIs(t, err, ErrUnknownUnit)
}

func TestClip(t *testing.T) {
	a, _ := New(day(1), day(10))
	window, _ := New(day(5), day(7))
	clipped, ok := a.Clip(window)
	require.True(t, ok)
	assert.Equal(t, day(5), clipped.Start)
	assert.Equal(t, day(7), clipped.End)

	outside, _ := New(day(20), day(22))
	_, ok = a.Clip(outside)
	assert.False(t, ok)
}

func TestContainsInstant(t *testing.T) {
	iv, _ := New(day(1), day(3))
	assert.True(t, iv.ContainsInstant(day(1)))
	assert.True(t, iv.ContainsInstant(day(2)))
	assert.False(t, iv.ContainsInstant(day(3)))
}
