package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExpensePeriod_Validation(t *testing.T) {
	dr := NewOngoingDateRange(date(2026, time.January, 1))

	_, err := NewExpensePeriod("", dr)
	assert.ErrorIs(t, err, ErrPeriodEmptyName)

	_, err = NewExpensePeriod(strings.Repeat("p", MaxPeriodNameLength+1), dr)
	assert.ErrorIs(t, err, ErrPeriodNameTooLong)

	p, err := NewExpensePeriod(" Q1 budget ", dr)
	require.NoError(t, err)
	assert.Equal(t, "Q1 budget", p.Name)
}

func TestPeriodForMonth(t *testing.T) {
	p, err := PeriodForMonth(2, 2024)
	require.NoError(t, err)
	assert.Equal(t, "February 2024", p.Name)
	assert.True(t, p.Contains(time.Date(2024, time.February, 29, 23, 0, 0, 0, time.Local)))
	assert.False(t, p.Contains(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.Local)))

	for _, month := range []int{0, 13, -1} {
		_, err := PeriodForMonth(month, 2024)
		assert.ErrorIs(t, err, ErrInvalidMonth)
	}
}

func TestCurrentMonthPeriod(t *testing.T) {
	fixedClock(t, testNow)
	p, err := CurrentMonthPeriod()
	require.NoError(t, err)
	assert.Equal(t, "October 2026", p.Name)
	assert.True(t, p.IsActive())
	assert.False(t, p.IsOngoing())
}

func TestCustomPeriod(t *testing.T) {
	start := date(2026, time.March, 10)
	end := date(2026, time.March, 1)

	_, err := CustomPeriod("Trip", start, &end)
	assert.ErrorIs(t, err, ErrPeriodInvalidDateRange)
	assert.ErrorIs(t, err, ErrEndBeforeStart)

	open, err := CustomPeriod("Trip", start, nil)
	require.NoError(t, err)
	assert.True(t, open.IsOngoing())
	_, ok := open.DurationInDays()
	assert.False(t, ok)
}

func TestExpensePeriod_Lifecycle(t *testing.T) {
	fixedClock(t, testNow)
	p, err := OngoingPeriod("Renovation", date(2026, time.June, 1))
	require.NoError(t, err)
	assert.True(t, p.IsActive())

	closed, err := p.Close(date(2026, time.June, 30))
	require.NoError(t, err)
	assert.False(t, closed.IsOngoing())
	assert.True(t, closed.HasEnded())
	assert.False(t, closed.IsActive())
	days, ok := closed.DurationInDays()
	require.True(t, ok)
	assert.Equal(t, 29, days)
	assert.True(t, p.IsOngoing())

	_, err = p.Close(date(2026, time.May, 1))
	assert.ErrorIs(t, err, ErrPeriodInvalidDateRange)

	reopened := closed.Reopen()
	assert.True(t, reopened.IsOngoing())
	assert.Equal(t, p.DateRange.Start(), reopened.DateRange.Start())

	renamed, err := p.WithName("Kitchen")
	require.NoError(t, err)
	assert.Equal(t, "Kitchen", renamed.Name)

	_, err = p.WithName(" ")
	assert.ErrorIs(t, err, ErrPeriodEmptyName)
}

func TestExpensePeriod_Overlaps(t *testing.T) {
	closed := func(name string, start, end time.Time) ExpensePeriod {
		t.Helper()
		p, err := CustomPeriod(name, start, &end)
		require.NoError(t, err)
		return p
	}
	ongoing := func(name string, start time.Time) ExpensePeriod {
		t.Helper()
		p, err := OngoingPeriod(name, start)
		require.NoError(t, err)
		return p
	}

	jan := closed("Jan", date(2026, time.January, 1), date(2026, time.January, 31))
	janEnd := closed("Jan end", date(2026, time.January, 31), date(2026, time.February, 5))
	feb := closed("Feb", date(2026, time.February, 1), date(2026, time.February, 28))
	fromFeb := ongoing("From Feb", date(2026, time.February, 1))
	from2030 := ongoing("From 2030", date(2030, time.January, 1))
	midJanToMidFeb := closed("Mid Jan to mid Feb", date(2026, time.January, 15), date(2026, time.February, 15))

	tests := []struct {
		name string
		a, b ExpensePeriod
		want bool
	}{
		{name: "disjoint closed periods", a: jan, b: feb, want: false},
		{name: "shared boundary instant", a: jan, b: janEnd, want: true},
		{name: "ongoing with later closed period", a: fromFeb, b: feb, want: true},
		{name: "ongoing with earlier closed period", a: fromFeb, b: jan, want: false},
		{name: "both ongoing regardless of start", a: fromFeb, b: from2030, want: true},
		{name: "closed straddling ongoing start", a: janEnd, b: fromFeb, want: true},
		{name: "ongoing starting inside earlier closed period", a: fromFeb, b: midJanToMidFeb, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}
