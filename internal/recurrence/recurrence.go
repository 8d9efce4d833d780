// Package recurrence computes when a repeating reminder fires next.
package recurrence

import (
	"fmt"
	"time"

	"github.com/hray3182/RemindMe/internal/models"
	"github.com/teambition/rrule-go"
)

// maxCatchUp bounds how many intervals Next walks before giving up.
const maxCatchUp = 1 << 20

// Advance returns the occurrence one rule step after t. Calendar steps
// (day and longer) are taken in loc so the wall-clock time and the weekday
// are the owner's; nil means UTC. The result keeps t's location.
func Advance(t time.Time, rule models.Recurrence, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	next, err := advance(t.In(loc), rule)
	if err != nil {
		return time.Time{}, err
	}
	return next.In(t.Location()), nil
}

func advance(t time.Time, rule models.Recurrence) (time.Time, error) {
	n := rule.Multiplier
	if n < 1 {
		n = 1
	}

	switch rule.Interval {
	case models.IntervalMinute:
		return t.Add(time.Duration(n) * time.Minute), nil
	case models.IntervalHour:
		return t.Add(time.Duration(n) * time.Hour), nil
	case models.IntervalDay:
		return t.AddDate(0, 0, n), nil
	case models.IntervalWeek:
		return t.AddDate(0, 0, 7*n), nil
	case models.IntervalWeekday:
		next := t.AddDate(0, 0, n)
		switch next.Weekday() {
		case time.Saturday:
			next = next.AddDate(0, 0, 2)
		case time.Sunday:
			next = next.AddDate(0, 0, 1)
		}
		return next, nil
	case models.IntervalMonth:
		return calendarStep(t, rrule.MONTHLY, n)
	case models.IntervalYear:
		return calendarStep(t, rrule.YEARLY, n)
	}
	return time.Time{}, fmt.Errorf("unknown interval %q", rule.Interval)
}

// Next returns the first occurrence after prev that is strictly after now.
// A reminder fired late (e.g. after downtime) skips the missed occurrences.
func Next(prev time.Time, rule models.Recurrence, now time.Time, loc *time.Location) (time.Time, error) {
	next, err := Advance(prev, rule, loc)
	if err != nil {
		return time.Time{}, err
	}
	for i := 0; !next.After(now); i++ {
		if i >= maxCatchUp {
			return time.Time{}, fmt.Errorf("no occurrence of %s after %s", rule.Interval, now)
		}
		if next, err = Advance(next, rule, loc); err != nil {
			return time.Time{}, err
		}
	}
	return next, nil
}

// calendarStep moves t by n months or years keeping the day of month,
// clamped to the last day when the target month is shorter. The clamp is
// expressed as BYMONTHDAY=min(d,28)..d with BYSETPOS=-1.
func calendarStep(t time.Time, freq rrule.Frequency, n int) (time.Time, error) {
	nanos := time.Duration(t.Nanosecond())
	start := t.Truncate(time.Second)

	day := start.Day()
	days := []int{day}
	if day > 28 {
		days = days[:0]
		for d := 28; d <= day; d++ {
			days = append(days, d)
		}
	}

	opt := rrule.ROption{
		Freq:       freq,
		Interval:   n,
		Dtstart:    start,
		Bymonthday: days,
		Bysetpos:   []int{-1},
	}
	if freq == rrule.YEARLY {
		opt.Bymonth = []int{int(start.Month())}
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to build rule: %w", err)
	}
	next := rule.After(start, false)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("no %v occurrence after %s", freq, start)
	}
	return next.Add(nanos), nil
}
