package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t *testing.T, ts time.Time) {
	t.Helper()
	restore := SetClock(func() time.Time { return ts })
	t.Cleanup(restore)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewDateRange(t *testing.T) {
	start := date(2026, time.March, 1)
	before := start.Add(-time.Second)

	_, err := NewDateRange(start, &before)
	require.ErrorIs(t, err, ErrEndBeforeStart)

	same, err := NewDateRange(start, &start)
	require.NoError(t, err)
	days, ok := same.DurationInDays()
	assert.True(t, ok)
	assert.Equal(t, 0, days)

	ongoing, err := NewDateRange(start, nil)
	require.NoError(t, err)
	assert.True(t, ongoing.IsOngoing())
	assert.Nil(t, ongoing.EndPtr())
}

func TestDateRange_Contains(t *testing.T) {
	start := date(2026, time.March, 1)
	end := date(2026, time.March, 31)
	dr, err := NewClosedDateRange(start, end)
	require.NoError(t, err)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "start is inclusive", at: start, want: true},
		{name: "end is inclusive", at: end, want: true},
		{name: "inside", at: date(2026, time.March, 15), want: true},
		{name: "just before start", at: start.Add(-time.Nanosecond), want: false},
		{name: "just after end", at: end.Add(time.Nanosecond), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dr.Contains(tt.at))
		})
	}

	ongoing := NewOngoingDateRange(start)
	assert.True(t, ongoing.Contains(date(2100, time.January, 1)))
	assert.False(t, ongoing.Contains(start.Add(-time.Nanosecond)))
}

func TestDateRange_Durations(t *testing.T) {
	dr, err := NewClosedDateRange(date(2026, time.March, 1), date(2026, time.March, 31))
	require.NoError(t, err)

	days, ok := dr.DurationInDays()
	require.True(t, ok)
	assert.Equal(t, 30, days)

	secs, ok := dr.DurationInSeconds()
	require.True(t, ok)
	assert.InDelta(t, 30*24*3600, secs, 0.001)

	ongoing := NewOngoingDateRange(date(2026, time.March, 1))
	_, ok = ongoing.DurationInDays()
	assert.False(t, ok)
	_, ok = ongoing.DurationInSeconds()
	assert.False(t, ok)
}

func TestDateRange_Factories(t *testing.T) {
	fixedClock(t, time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC))

	cur, err := CurrentMonth()
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.October, 1), cur.Start())
	end, ok := cur.End()
	require.True(t, ok)
	assert.True(t, cur.Contains(time.Date(2026, time.October, 31, 23, 59, 59, 0, time.UTC)))
	assert.Equal(t, date(2026, time.November, 1).Add(-time.Nanosecond), end)

	last, err := LastMonth()
	require.NoError(t, err)
	assert.Equal(t, date(2026, time.September, 1), last.Start())
	assert.False(t, last.Contains(date(2026, time.October, 1)))

	week, err := LastDays(7)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.October, 9, 12, 0, 0, 0, time.UTC), week.Start())

	_, err = LastDays(-1)
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	year, err := Year(2024)
	require.NoError(t, err)
	days, ok := year.DurationInDays()
	require.True(t, ok)
	assert.Equal(t, 365, days)

	_, err = Year(0)
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = Month(2026, time.Month(13))
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestDateRange_HasEnded(t *testing.T) {
	fixedClock(t, date(2026, time.October, 16))

	past, err := NewClosedDateRange(date(2026, time.January, 1), date(2026, time.January, 31))
	require.NoError(t, err)
	assert.True(t, past.HasEnded())

	future, err := NewClosedDateRange(date(2026, time.October, 1), date(2026, time.December, 31))
	require.NoError(t, err)
	assert.False(t, future.HasEnded())

	assert.False(t, NewOngoingDateRange(date(2020, time.January, 1)).HasEnded())
}

func TestDateRange_Formatting(t *testing.T) {
	march, err := NewClosedDateRange(date(2026, time.March, 1), date(2026, time.March, 31))
	require.NoError(t, err)
	assert.Equal(t, "Mar 1, 2026 - Mar 31, 2026", march.Formatted())
	assert.Equal(t, "Mar 1 - 31", march.ShortFormatted())

	span, err := NewClosedDateRange(date(2026, time.March, 28), date(2026, time.April, 2))
	require.NoError(t, err)
	assert.Equal(t, "Mar 28 - Apr 2", span.ShortFormatted())

	ongoing := NewOngoingDateRange(date(2026, time.March, 1))
	assert.Equal(t, "From Mar 1, 2026 (ongoing)", ongoing.Formatted())
	assert.Equal(t, "From Mar 1", ongoing.ShortFormatted())
}

func TestDateRange_Equal(t *testing.T) {
	a, err := NewClosedDateRange(date(2026, time.March, 1), date(2026, time.March, 31))
	require.NoError(t, err)
	b, err := NewClosedDateRange(date(2026, time.March, 1), date(2026, time.March, 31))
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(NewOngoingDateRange(date(2026, time.March, 1))))
}
