package temporal_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hray3182/RemindMe/internal/temporal"
)

func easternBase(t *testing.T) (time.Time, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("US/Eastern")
	require.NoError(t, err)
	// Tuesday evening
	return time.Date(2024, 3, 5, 21, 2, 0, 0, loc), loc
}

func TestDateParser(t *testing.T) {
	base, loc := easternBase(t)
	p := temporal.NewDateParser()
	opts := temporal.ParseOptions{
		PreferFuture:          true,
		PreferFirstDayOfMonth: true,
		RelativeBase:          base,
		Location:              loc,
	}
	parse := func(t *testing.T, text string) time.Time {
		t.Helper()
		got, ok := p.Parse(context.Background(), text, opts)
		require.True(t, ok, "%q did not parse", text)
		return got.In(loc)
	}

	t.Run("tomorrow", func(t *testing.T) {
		got := parse(t, "tomorrow")
		y, m, d := got.Date()
		assert.Equal(t, []int{2024, 3, 6}, []int{y, int(m), d})
	})

	t.Run("tomorrow at 9am", func(t *testing.T) {
		got := parse(t, "tomorrow at 9am")
		assert.True(t, time.Date(2024, 3, 6, 9, 0, 0, 0, loc).Equal(got), "got %s", got)
	})

	t.Run("weekday with time", func(t *testing.T) {
		got := parse(t, "on tuesday at 8am")
		assert.Equal(t, time.Tuesday, got.Weekday())
		assert.Equal(t, 8, got.Hour())
		assert.Zero(t, got.Minute())

		got = parse(t, "on thursday at 8am")
		assert.True(t, time.Date(2024, 3, 7, 8, 0, 0, 0, loc).Equal(got), "got %s", got)
	})

	t.Run("in 10 minutes", func(t *testing.T) {
		got := parse(t, "in 10 minutes")
		assert.WithinDuration(t, base.Add(10*time.Minute), got, time.Second)
	})

	t.Run("time only stays today", func(t *testing.T) {
		got := parse(t, "at 21:00")
		assert.True(t, time.Date(2024, 3, 5, 21, 0, 0, 0, loc).Equal(got), "got %s", got)

		got = parse(t, "at 5pm")
		assert.True(t, time.Date(2024, 3, 5, 17, 0, 0, 0, loc).Equal(got), "got %s", got)
	})

	t.Run("empty", func(t *testing.T) {
		_, ok := p.Parse(context.Background(), "  ", opts)
		assert.False(t, ok)
	})
}

func TestResolve_WithDateParser(t *testing.T) {
	base, _ := easternBase(t)
	now := base.UTC()
	r := temporal.NewResolver(temporal.NewDateParser())
	ctx := context.Background()

	res := r.Resolve(ctx, "tomorrow at 9am", "US/Eastern", now)
	require.True(t, res.Resolved())
	assert.Equal(t, time.Date(2024, 3, 6, 14, 0, 0, 0, time.UTC), *res.Time)

	res = r.Resolve(ctx, "in 10 minutes", "US/Eastern", now)
	require.True(t, res.Resolved())
	assert.WithinDuration(t, now.Add(10*time.Minute), *res.Time, time.Second)

	// earlier today: rejected rather than moved to tomorrow
	assert.False(t, r.Resolve(ctx, "at 5pm", "US/Eastern", now).Resolved())
	assert.False(t, r.Resolve(ctx, "at 9", "US/Eastern", now).Resolved())

	res = r.Resolve(ctx, "every day at 5pm", "US/Eastern", now)
	assert.False(t, res.Resolved())
	assert.NotNil(t, res.Recurrence)
}
