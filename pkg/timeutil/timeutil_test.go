package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfDayNormalizesToUTC(t *testing.T) {
	// 23:30 in UTC+5 is 18:30 UTC the same day.
	plus5 := time.FixedZone("UTC+5", 5*3600)
	local := time.Date(2026, 3, 10, 23, 30, 0, 0, plus5)

	got := StartOfDay(local)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), got)

	// 02:00 in UTC+5 is still the previous UTC day.
	early := time.Date(2026, 3, 10, 2, 0, 0, 0, plus5)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), StartOfDay(early))
}

func TestDayKeyRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 10, 18, 45, 12, 0, time.UTC)
	key := DayKey(ts)
	assert.Equal(t, "2026-03-10", key)

	parsed, err := ParseDayKey(key)
	require.NoError(t, err)
	assert.Equal(t, StartOfDay(ts), parsed)

	_, err = ParseDayKey("not-a-day")
	assert.Error(t, err)
}

func TestSameDayAcrossMidnight(t *testing.T) {
	before := time.Date(2026, 3, 10, 23, 59, 59, 0, time.UTC)
	after := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	assert.False(t, SameDay(before, after))
	assert.True(t, SameDay(before, StartOfDay(before)))
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	b := time.Date(2026, 3, 11, 1, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, DaysBetween(a, b), "clock distance is irrelevant, only the day boundary counts")
	assert.Equal(t, -1, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, StartOfDay(a)))
}

func TestDaysWindow(t *testing.T) {
	end := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	window := DaysWindow(end, 3)
	require.Len(t, window, 3)
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), window[0])
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), window[2])

	assert.Len(t, DaysWindow(end, 1), 1)
	assert.Nil(t, DaysWindow(end, 0))
}

func TestIsFuture(t *testing.T) {
	assert.True(t, IsFuture(time.Now().Add(time.Hour), time.Minute))
	assert.False(t, IsFuture(time.Now().Add(30*time.Second), time.Minute), "within skew tolerance")
	assert.False(t, IsFuture(time.Now().Add(-time.Hour), time.Minute))
}
