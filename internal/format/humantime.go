package format

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/hray3182/RemindMe/internal/models"
)

// Within this window a reminder reads as "at 9:00 PM" without a date.
const sameDayWindow = 16 * time.Hour

// TimeOptions shapes a rendered reminder time.
type TimeOptions struct {
	// Full always spells out weekday, date and year.
	Full bool
	// NoPreposition drops the leading "on"/"at".
	NoPreposition bool
}

// HumanTime renders when a reminder fires, in the user's zone. With no
// stored zone the default one is used and its abbreviation appended.
func HumanTime(at time.Time, rec *models.Recurrence, timezone string, now time.Time, opts TimeOptions) string {
	var interval models.Interval
	if rec != nil {
		interval = rec.Interval
	}
	repeats := rec != nil

	delta := at.Sub(now)
	days := int(math.Floor(delta.Hours() / 24))

	needsDate := opts.Full || delta > sameDayWindow
	needsDay := opts.Full || (needsDate && days > 7)
	needsYear := opts.Full || (needsDay && at.UTC().Year() != now.UTC().Year())

	needsDOW := needsDate && (interval == "" || interval == models.IntervalWeek)
	needsDay = needsDay && (interval == "" || interval == models.IntervalYear || interval == models.IntervalMonth)
	needsMonth := needsDay && interval != models.IntervalMonth
	needsYear = needsYear && !repeats
	needsTime := interval != models.IntervalHour && interval != models.IntervalMinute

	needsDate = needsDOW || needsDay || needsMonth || needsYear

	zone := timezone
	if zone == "" {
		zone = models.DefaultTimezone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		loc = time.UTC
	}
	local := at.In(loc)

	var parts []string
	if needsDate && !opts.NoPreposition {
		parts = append(parts, "on")
	}
	if needsDOW {
		parts = append(parts, local.Format("Monday"))
	}
	if needsMonth && needsDay {
		parts = append(parts, local.Format("January 2"))
	}
	if needsDay && !needsMonth {
		parts = append(parts, "the "+Ordinal(local.Day()))
	}
	if needsYear {
		parts = append(parts, local.Format("2006"))
	}
	if needsTime {
		if needsDate || !opts.NoPreposition {
			parts = append(parts, "at")
		}
		layout := "03:04 PM"
		if timezone == "" {
			layout += " MST"
		}
		parts = append(parts, local.Format(layout))
	}
	formatted := strings.Join(parts, " ")

	if !repeats {
		return formatted
	}
	every := rec.String()
	if !needsTime {
		return every
	}
	return every + " " + formatted
}

// Ordinal renders 1 as "1st", 12 as "12th", 22 as "22nd".
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

var okPhrases = []string{"Ok!", "Gotcha.", "Sure thing!", "Alright.", "You bet.", "Got it."}

// Picker chooses an index in [0, n).
type Picker func(n int) int

// RandomPicker is the Picker used outside tests.
func RandomPicker(n int) int {
	return rand.IntN(n)
}

// FirstPicker always picks the first option.
func FirstPicker(int) int {
	return 0
}

// Confirmation is the reply to a newly scheduled reminder.
func Confirmation(pick Picker, body, when string) string {
	return okPhrases[pick(len(okPhrases))] + " I'll remind you to " + body + " " + when
}

// ReminderText is the message delivered when a reminder fires.
func ReminderText(body string) string {
	return "🔔 *Reminder:* " + body
}
