package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeekOf(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("zoneinfo nicht verfügbar: %v", err)
	}

	tests := []struct {
		name      string
		at        time.Time
		wantStart time.Time
	}{
		{
			name:      "mittwoch",
			at:        time.Date(2026, time.October, 14, 15, 30, 0, 0, time.UTC),
			wantStart: time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "montag mitternacht",
			at:        time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "sonntag spät",
			at:        time.Date(2026, time.October, 18, 23, 59, 0, 0, time.UTC),
			wantStart: time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "jahreswechsel",
			at:        time.Date(2027, time.January, 1, 10, 0, 0, 0, time.UTC),
			wantStart: time.Date(2026, time.December, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "zeitzone bleibt erhalten",
			at:        time.Date(2026, time.October, 17, 9, 0, 0, 0, berlin),
			wantStart: time.Date(2026, time.October, 12, 0, 0, 0, 0, berlin),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			week := WeekOf(tt.at)
			assert.True(t, week.Start.Equal(tt.wantStart), "start = %v, want %v", week.Start, tt.wantStart)
			assert.Equal(t, time.Monday, week.Start.Weekday())
			assert.True(t, week.End.Equal(tt.wantStart.AddDate(0, 0, 7)))
			assert.True(t, week.Contains(tt.at))
		})
	}
}

func TestInterval_ContainsIsHalfOpen(t *testing.T) {
	start := time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC)
	i := Interval{Start: start, End: start.Add(time.Hour)}

	assert.True(t, i.Contains(start))
	assert.True(t, i.Contains(start.Add(59*time.Minute)))
	assert.False(t, i.Contains(start.Add(time.Hour)))
	assert.False(t, i.Contains(start.Add(-time.Nanosecond)))
	assert.Equal(t, time.Hour, i.Duration())
	assert.False(t, i.IsZero())
	assert.True(t, Interval{}.IsZero())
}

func TestSameDayAndStartOfDay(t *testing.T) {
	a := time.Date(2026, time.October, 17, 23, 0, 0, 0, time.UTC)
	b := time.Date(2026, time.October, 17, 0, 5, 0, 0, time.UTC)
	c := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(a, c))
	assert.Equal(t, time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC), StartOfDay(a))
}

func TestClocks(t *testing.T) {
	fixed := time.Date(2026, time.October, 17, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, fixed, FixedClock{T: fixed}.Now())
	assert.Equal(t, fixed, ClockFunc(func() time.Time { return fixed }).Now())
	assert.Equal(t, time.UTC, SystemClock{Location: time.UTC}.Now().Location())
	assert.True(t, ThisWeek(FixedClock{T: fixed}).Contains(fixed))
}
