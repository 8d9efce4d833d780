package temporal_test

import (
	"context"
	"testing"
	"time"

	"github.com/hray3182/RemindMe/internal/models"
	"github.com/hray3182/RemindMe/internal/temporal"
	"github.com/hray3182/RemindMe/internal/temporal/temporaltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sunday 2018-04-08 21:02:28 in US/Eastern.
var now = time.Unix(1523235748, 0).UTC()

type parserFunc func(ctx context.Context, text string, opts temporal.ParseOptions) (time.Time, bool)

func (f parserFunc) Parse(ctx context.Context, text string, opts temporal.ParseOptions) (time.Time, bool) {
	return f(ctx, text, opts)
}

func TestDisambiguateMeridiem(t *testing.T) {
	tests := []struct {
		phrase string
		hour   int
		want   string
	}{
		{"at 9", 21, "at 21:00"},
		{"tomorrow at 9:30", 21, "tomorrow at 9:30"},
		{"on friday at 9", 21, "on friday at 9"},
		{"next week at 9", 21, "next week at 9"},
		{"on the 5th at 9", 21, "on the 5th at 9"},
		{"tonight at 9", 20, "tonight at 21:00"},
		{"today at 9:30", 21, "today at 21:30"},
		{"9:15", 21, "21:15"},
		{"at 9", 8, "at 9"},
		{"at 9pm", 21, "at 9pm"},
		{"at 9 am", 21, "at 9 am"},
		{"at 12", 21, "at 12"},
		{"at 14", 21, "at 14"},
		{"at 9 or at 10", 21, "at 9 or at 10"},
		{"in 2 hours", 21, "in 2 hours"},
	}
	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			assert.Equal(t, tt.want, temporal.DisambiguateMeridiem(tt.phrase, tt.hour))
		})
	}
}

func TestExtractRecurrence(t *testing.T) {
	tests := []struct {
		phrase   string
		rule     *models.Recurrence
		residual string
	}{
		{"every tuesday at 8am", models.NewRecurrence(models.IntervalWeek, 1), "on tuesday at 8am"},
		{"every other day", models.NewRecurrence(models.IntervalDay, 2), "in 2 days"},
		{"every 3 hours", models.NewRecurrence(models.IntervalHour, 3), "in 3 hours"},
		{"every weekday at 9am", models.NewRecurrence(models.IntervalWeekday, 1), "at 9am"},
		{"every weekday", models.NewRecurrence(models.IntervalWeekday, 1), "in 1 day"},
		{"every morning at 8am", models.NewRecurrence(models.IntervalDay, 1), "at 8am"},
		{"at 8am every third month", models.NewRecurrence(models.IntervalMonth, 3), "at 8am"},
		{"every week", models.NewRecurrence(models.IntervalWeek, 1), "in 1 week"},
		{"tomorrow at 9", nil, "tomorrow at 9"},
	}
	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			rule, residual := temporal.ExtractRecurrence(tt.phrase)
			assert.Equal(t, tt.rule, rule)
			assert.Equal(t, tt.residual, residual)
		})
	}
}

func TestResolve(t *testing.T) {
	r := temporal.NewResolver(temporaltest.Parser{})
	ctx := context.Background()

	t.Run("tomorrow keeps the clock time", func(t *testing.T) {
		res := r.Resolve(ctx, "tomorrow", "", now)
		require.True(t, res.Resolved())
		assert.Equal(t, now.Add(24*time.Hour), *res.Time)
		assert.Nil(t, res.Recurrence)
	})

	t.Run("bare hour after it passed means evening", func(t *testing.T) {
		at := time.Date(2018, 4, 9, 0, 30, 0, 0, time.UTC) // 20:30 local
		res := r.Resolve(ctx, "at 9", "US/Eastern", at)
		require.True(t, res.Resolved())
		assert.Equal(t, time.Date(2018, 4, 9, 1, 0, 0, 0, time.UTC), *res.Time)
	})

	t.Run("user timezone is the relative base", func(t *testing.T) {
		res := r.Resolve(ctx, "Tomorrow at 9am.", "US/Pacific", now)
		require.True(t, res.Resolved())
		assert.Equal(t, time.Date(2018, 4, 9, 16, 0, 0, 0, time.UTC), *res.Time)
	})

	t.Run("recurrence only", func(t *testing.T) {
		res := r.Resolve(ctx, "every week", "", now)
		require.True(t, res.Resolved())
		assert.Equal(t, now.AddDate(0, 0, 7), *res.Time)
		assert.Equal(t, models.NewRecurrence(models.IntervalWeek, 1), res.Recurrence)
	})

	t.Run("gibberish", func(t *testing.T) {
		res := r.Resolve(ctx, "whenever you feel like it", "", now)
		assert.False(t, res.Resolved())
		assert.Nil(t, res.Recurrence)
	})
}

func TestResolve_TruncatesToSeconds(t *testing.T) {
	r := temporal.NewResolver(parserFunc(func(_ context.Context, _ string, opts temporal.ParseOptions) (time.Time, bool) {
		return opts.RelativeBase.Add(time.Hour + 750*time.Millisecond), true
	}))
	res := r.Resolve(context.Background(), "in an hour", "", now)
	require.True(t, res.Resolved())
	assert.Equal(t, now.Add(time.Hour), *res.Time)
	assert.Equal(t, time.UTC, res.Time.Location())
}

func TestResolve_PastInstantIsNoMatch(t *testing.T) {
	r := temporal.NewResolver(parserFunc(func(_ context.Context, _ string, opts temporal.ParseOptions) (time.Time, bool) {
		return opts.RelativeBase.Add(-time.Hour), true
	}))
	res := r.Resolve(context.Background(), "every day at noon", "", now)
	assert.False(t, res.Resolved())
	assert.Equal(t, models.NewRecurrence(models.IntervalDay, 1), res.Recurrence)
}

func TestResolve_PassesPreferences(t *testing.T) {
	var got temporal.ParseOptions
	var gotText string
	r := temporal.NewResolver(parserFunc(func(_ context.Context, text string, opts temporal.ParseOptions) (time.Time, bool) {
		got, gotText = opts, text
		return time.Time{}, false
	}))
	r.Resolve(context.Background(), "Every Tuesday at 8am!", "", now)

	assert.Equal(t, "on tuesday at 8am", gotText)
	assert.True(t, got.PreferFuture)
	assert.True(t, got.PreferFirstDayOfMonth)
	assert.Equal(t, "US/Eastern", got.Location.String())
	assert.True(t, now.Equal(got.RelativeBase))
}

func TestLoadLocation_FallsBack(t *testing.T) {
	assert.Equal(t, "US/Eastern", temporal.LoadLocation("").String())
	assert.Equal(t, "US/Eastern", temporal.LoadLocation("Not/AZone").String())
	assert.Equal(t, "Europe/Berlin", temporal.LoadLocation("Europe/Berlin").String())
	assert.False(t, temporal.ValidZone("Local"))
	assert.False(t, temporal.ValidZone("pizza"))
	assert.True(t, temporal.ValidZone("America/New_York"))
}
