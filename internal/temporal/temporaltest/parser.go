// Package temporaltest provides a small deterministic date grammar for tests.
package temporaltest

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hray3182/RemindMe/internal/temporal"
)

// Parser understands a fixed subset of English date phrases:
//
//	in N minute(s)|hour(s)|day(s)|week(s)|month(s)|year(s)
//	today | tonight | tomorrow
//	[on] monday .. sunday
//	at H[:MM][am|pm] | H:MM | Ham | Hpm
//
// Anything left over makes the whole phrase a no-match. Like go-dateparser,
// a time with no date is today's, even when it has already passed.
type Parser struct{}

var (
	inRe      = regexp.MustCompile(`^in\s+(\d+|a|an|one)\s+(minute|hour|day|week|month|year)s?\b`)
	clockRe   = regexp.MustCompile(`^(?:at\s+)?(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	dayWordRe = regexp.MustCompile(`^(today|tonight|tomorrow)\b`)
	weekdayRe = regexp.MustCompile(`^(?:on\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
)

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

func (Parser) Parse(_ context.Context, text string, opts temporal.ParseOptions) (time.Time, bool) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	base := opts.RelativeBase.In(loc)
	rest := strings.TrimSpace(strings.ToLower(text))
	if rest == "" {
		return time.Time{}, false
	}

	t := base
	var clockSet bool

	for rest != "" {
		switch {
		case inRe.MatchString(rest):
			m := inRe.FindStringSubmatch(rest)
			n := 1
			if v, err := strconv.Atoi(m[1]); err == nil {
				n = v
			}
			t = shift(t, m[2], n)
			rest = rest[len(m[0]):]
		case dayWordRe.MatchString(rest):
			m := dayWordRe.FindStringSubmatch(rest)
			y, mo, d := base.Date()
			t = time.Date(y, mo, d, t.Hour(), t.Minute(), t.Second(), 0, loc)
			switch m[1] {
			case "tomorrow":
				t = t.AddDate(0, 0, 1)
			case "tonight":
				if !clockSet {
					t = time.Date(y, mo, d, 20, 0, 0, 0, loc)
					clockSet = true
				}
			}
			rest = rest[len(m[0]):]
		case weekdayRe.MatchString(rest):
			m := weekdayRe.FindStringSubmatch(rest)
			ahead := (int(weekdays[m[1]]) - int(base.Weekday()) + 7) % 7
			if ahead == 0 {
				ahead = 7
			}
			y, mo, d := base.AddDate(0, 0, ahead).Date()
			t = time.Date(y, mo, d, t.Hour(), t.Minute(), t.Second(), 0, loc)
			rest = rest[len(m[0]):]
		case clockRe.MatchString(rest):
			m := clockRe.FindStringSubmatch(rest)
			// a bare number is only a time with "at" or a meridiem
			if !strings.HasPrefix(m[0], "at") && m[2] == "" && m[3] == "" {
				return time.Time{}, false
			}
			hour, _ := strconv.Atoi(m[1])
			minute := 0
			if m[2] != "" {
				minute, _ = strconv.Atoi(m[2])
			}
			switch m[3] {
			case "pm":
				if hour < 12 {
					hour += 12
				}
			case "am":
				if hour == 12 {
					hour = 0
				}
			}
			if hour > 23 || minute > 59 {
				return time.Time{}, false
			}
			y, mo, d := t.Date()
			t = time.Date(y, mo, d, hour, minute, 0, 0, loc)
			clockSet = true
			rest = rest[len(m[0]):]
		default:
			return time.Time{}, false
		}
		rest = strings.TrimSpace(rest)
	}

	return t, true
}

func shift(t time.Time, unit string, n int) time.Time {
	switch unit {
	case "minute":
		return t.Add(time.Duration(n) * time.Minute)
	case "hour":
		return t.Add(time.Duration(n) * time.Hour)
	case "day":
		return t.AddDate(0, 0, n)
	case "week":
		return t.AddDate(0, 0, 7*n)
	case "month":
		return t.AddDate(0, n, 0)
	}
	return t.AddDate(n, 0, 0)
}
