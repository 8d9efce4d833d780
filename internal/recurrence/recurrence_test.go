package recurrence

import (
	"testing"
	"time"

	"github.com/hray3182/RemindMe/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		rule models.Recurrence
		want time.Time
	}{
		{"minute", date(2018, 4, 9, 1, 2), models.Recurrence{Interval: models.IntervalMinute, Multiplier: 15}, date(2018, 4, 9, 1, 17)},
		{"hour", date(2018, 4, 9, 23, 0), models.Recurrence{Interval: models.IntervalHour, Multiplier: 2}, date(2018, 4, 10, 1, 0)},
		{"day", date(2018, 4, 9, 9, 0), models.Recurrence{Interval: models.IntervalDay, Multiplier: 1}, date(2018, 4, 10, 9, 0)},
		{"other week", date(2018, 4, 9, 9, 0), models.Recurrence{Interval: models.IntervalWeek, Multiplier: 2}, date(2018, 4, 23, 9, 0)},
		{"weekday friday to monday", date(2018, 4, 13, 9, 0), models.Recurrence{Interval: models.IntervalWeekday, Multiplier: 1}, date(2018, 4, 16, 9, 0)},
		{"weekday thursday to friday", date(2018, 4, 12, 9, 0), models.Recurrence{Interval: models.IntervalWeekday, Multiplier: 1}, date(2018, 4, 13, 9, 0)},
		{"weekday landing on sunday", date(2018, 4, 13, 9, 0), models.Recurrence{Interval: models.IntervalWeekday, Multiplier: 2}, date(2018, 4, 16, 9, 0)},
		{"month", date(2018, 4, 9, 9, 0), models.Recurrence{Interval: models.IntervalMonth, Multiplier: 1}, date(2018, 5, 9, 9, 0)},
		{"month clamps to february", date(2018, 1, 31, 9, 0), models.Recurrence{Interval: models.IntervalMonth, Multiplier: 1}, date(2018, 2, 28, 9, 0)},
		{"month clamps to leap day", date(2020, 1, 30, 9, 0), models.Recurrence{Interval: models.IntervalMonth, Multiplier: 1}, date(2020, 2, 29, 9, 0)},
		{"quarter", date(2018, 1, 15, 9, 0), models.Recurrence{Interval: models.IntervalMonth, Multiplier: 3}, date(2018, 4, 15, 9, 0)},
		{"year", date(2018, 4, 9, 9, 0), models.Recurrence{Interval: models.IntervalYear, Multiplier: 1}, date(2019, 4, 9, 9, 0)},
		{"year from leap day", date(2020, 2, 29, 9, 0), models.Recurrence{Interval: models.IntervalYear, Multiplier: 1}, date(2021, 2, 28, 9, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Advance(tt.from, tt.rule, time.UTC)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestAdvance_WeekdayNeverLandsOnWeekend(t *testing.T) {
	start := date(2018, 4, 9, 9, 0) // Monday
	rule := models.Recurrence{Interval: models.IntervalWeekday, Multiplier: 1}
	cur := start
	for i := 0; i < 30; i++ {
		next, err := Advance(cur, rule, time.UTC)
		require.NoError(t, err)
		assert.NotEqual(t, time.Saturday, next.Weekday())
		assert.NotEqual(t, time.Sunday, next.Weekday())
		assert.True(t, next.After(cur))
		cur = next
	}
}

func TestAdvance_UnknownInterval(t *testing.T) {
	_, err := Advance(date(2018, 4, 9, 9, 0), models.Recurrence{Interval: "fortnight", Multiplier: 1}, nil)
	assert.Error(t, err)
}

func TestNext_SkipsMissedOccurrences(t *testing.T) {
	prev := date(2018, 4, 9, 9, 0)
	now := date(2018, 4, 12, 12, 0) // offline for three days
	rule := models.Recurrence{Interval: models.IntervalDay, Multiplier: 1}

	next, err := Next(prev, rule, now, time.UTC)
	require.NoError(t, err)
	assert.True(t, date(2018, 4, 13, 9, 0).Equal(next), "got %s", next)
}

func TestNext_StrictlyAfterNow(t *testing.T) {
	prev := date(2018, 4, 9, 9, 0)
	now := date(2018, 4, 10, 9, 0) // exactly one interval later
	rule := models.Recurrence{Interval: models.IntervalDay, Multiplier: 1}

	next, err := Next(prev, rule, now, time.UTC)
	require.NoError(t, err)
	assert.True(t, next.After(now))
	assert.True(t, date(2018, 4, 11, 9, 0).Equal(next), "got %s", next)
}

func TestNext_IdempotentOnceInFuture(t *testing.T) {
	prev := date(2018, 4, 9, 9, 0)
	now := date(2018, 4, 9, 9, 0)
	rule := models.Recurrence{Interval: models.IntervalWeek, Multiplier: 1}

	next, err := Next(prev, rule, now, time.UTC)
	require.NoError(t, err)
	assert.True(t, date(2018, 4, 16, 9, 0).Equal(next), "got %s", next)
}

func eastern(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("US/Eastern")
	require.NoError(t, err)
	return loc
}

func TestAdvance_WeekdayUsesOwnerCalendar(t *testing.T) {
	loc := eastern(t)
	rule := models.Recurrence{Interval: models.IntervalWeekday, Multiplier: 1}

	// 21:00 Eastern is already the next day in UTC
	thu := time.Date(2024, 3, 7, 21, 0, 0, 0, loc).UTC()
	fri, err := Advance(thu, rule, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Friday, fri.In(loc).Weekday())
	assert.True(t, time.Date(2024, 3, 8, 21, 0, 0, 0, loc).Equal(fri), "got %s", fri.In(loc))

	// across the DST change on Sunday March 10; still 21:00 local
	mon, err := Advance(fri, rule, loc)
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 11, 21, 0, 0, 0, loc).Equal(mon), "got %s", mon.In(loc))
	assert.Equal(t, time.UTC, mon.Location())
}

func TestAdvance_EveningWeekdaysNeverLandOnLocalWeekend(t *testing.T) {
	loc := eastern(t)
	rule := models.Recurrence{Interval: models.IntervalWeekday, Multiplier: 1}
	cur := time.Date(2024, 3, 4, 21, 0, 0, 0, loc).UTC() // Monday evening
	for i := 0; i < 30; i++ {
		next, err := Advance(cur, rule, loc)
		require.NoError(t, err)
		wd := next.In(loc).Weekday()
		assert.NotEqual(t, time.Saturday, wd)
		assert.NotEqual(t, time.Sunday, wd)
		assert.Equal(t, 21, next.In(loc).Hour())
		cur = next
	}
}

func TestAdvance_MonthClampsInOwnerCalendar(t *testing.T) {
	loc := eastern(t)
	// Jan 31 22:00 Eastern is Feb 1 in UTC
	from := time.Date(2024, 1, 31, 22, 0, 0, 0, loc).UTC()
	got, err := Advance(from, models.Recurrence{Interval: models.IntervalMonth, Multiplier: 1}, loc)
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 2, 29, 22, 0, 0, 0, loc).Equal(got), "got %s", got.In(loc))
}
