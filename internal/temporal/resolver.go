// Package temporal resolves natural-language time phrases into instants
// and recurrence rules.
package temporal

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // zone names like US/Eastern must resolve on bare hosts

	"github.com/hray3182/RemindMe/internal/models"
)

// Resolution is the outcome of resolving a phrase. Time is nil when no
// future instant could be found; Recurrence may still be set so the rule
// survives until the user supplies a time.
type Resolution struct {
	Time       *time.Time
	Recurrence *models.Recurrence
}

func (r Resolution) Resolved() bool {
	return r.Time != nil
}

type Resolver struct {
	parser Parser
}

func NewResolver(parser Parser) *Resolver {
	return &Resolver{parser: parser}
}

// Resolve interprets text relative to now in the given timezone ("" means
// the default zone). Instants in the past are reported as unresolved.
func (r *Resolver) Resolve(ctx context.Context, text, timezone string, now time.Time) Resolution {
	loc := LoadLocation(timezone)
	localNow := now.In(loc)

	phrase := Normalize(text)
	phrase = DisambiguateMeridiem(phrase, localNow.Hour())
	rec, residual := ExtractRecurrence(phrase)

	t, ok := r.parser.Parse(ctx, residual, ParseOptions{
		PreferFuture:          true,
		PreferFirstDayOfMonth: true,
		RelativeBase:          localNow,
		Location:              loc,
	})
	if !ok {
		return Resolution{Recurrence: rec}
	}

	t = t.UTC().Truncate(time.Second)
	if t.Before(now) {
		return Resolution{Recurrence: rec}
	}
	return Resolution{Time: &t, Recurrence: rec}
}

// Normalize lowercases a phrase and trims surrounding punctuation.
func Normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.Trim(text, " .!?,")
	return strings.Join(strings.Fields(text), " ")
}

// LoadLocation returns the named zone, or the default zone when the name is
// empty or unknown.
func LoadLocation(name string) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	loc, err := time.LoadLocation(models.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ValidZone reports whether name is a loadable IANA zone identifier.
func ValidZone(name string) bool {
	if name == "" || strings.EqualFold(name, "local") {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

var (
	// "at 9", "at 9:30" or a bare "9:30".
	timeTokenRe = regexp.MustCompile(`\bat\s+(\d{1,2})(?::(\d{2}))?\b|\b(\d{1,2}):(\d{2})\b`)
	meridiemRe  = regexp.MustCompile(`^\s*(?:am|pm|a\.m|p\.m|a\b|p\b|o'?clock)`)
	// a day other than today; its hours have not started yet
	otherDayRe = regexp.MustCompile(`\b(?:tomorrow|next|(?:mon|tues|wednes|thurs|fri|satur|sun)days?|` +
		`jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?|` +
		`\d{1,2}(?:st|nd|rd|th))\b`)
)

// DisambiguateMeridiem rewrites a single bare hour that has already passed
// today (in localHour terms) into its afternoon/evening form: at 21:02,
// "at 9" becomes "at 21:00". Phrases with zero or several bare times, or
// that name another day ("tomorrow at 9:30"), are returned unchanged.
func DisambiguateMeridiem(phrase string, localHour int) string {
	if otherDayRe.MatchString(phrase) {
		return phrase
	}
	matches := timeTokenRe.FindAllStringSubmatchIndex(phrase, -1)

	var bare [][]int
	for _, m := range matches {
		if meridiemRe.MatchString(phrase[m[1]:]) {
			continue
		}
		bare = append(bare, m)
	}
	if len(bare) != 1 {
		return phrase
	}

	m := bare[0]
	hourIdx, minIdx, prefix := 2, 4, "at "
	if m[2] < 0 {
		hourIdx, minIdx, prefix = 6, 8, ""
	}
	hour, err := strconv.Atoi(phrase[m[hourIdx]:m[hourIdx+1]])
	if err != nil || hour < 1 || hour > 11 || hour >= localHour {
		return phrase
	}
	minutes := "00"
	if m[minIdx] >= 0 {
		minutes = phrase[m[minIdx]:m[minIdx+1]]
	}

	token := fmt.Sprintf("%s%d:%s", prefix, hour+12, minutes)
	return phrase[:m[0]] + token + phrase[m[1]:]
}

var (
	recurrenceRe = regexp.MustCompile(`\bevery\s+(?:(other|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth|\d+)\s+)?` +
		`(monday|tuesday|wednesday|thursday|friday|saturday|sunday|weekday|minute|hour|day|night|evening|morning|afternoon|week|month|year)s?\b`)

	multiplierWords = map[string]int{
		"other": 2, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
		"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
	}
	weekdayNames = map[string]bool{
		"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
		"friday": true, "saturday": true, "sunday": true,
	}
)

// ExtractRecurrence pulls an "every [N] <unit>" clause out of phrase and
// returns the rule plus what remains for the date grammar. Weekday names
// become a weekly rule anchored with "on <weekday>".
func ExtractRecurrence(phrase string) (*models.Recurrence, string) {
	m := recurrenceRe.FindStringSubmatchIndex(phrase)
	if m == nil {
		return nil, phrase
	}

	multiplier := 1
	if m[2] >= 0 {
		word := phrase[m[2]:m[3]]
		if n, ok := multiplierWords[word]; ok {
			multiplier = n
		} else if n, err := strconv.Atoi(word); err == nil && n > 0 {
			multiplier = n
		}
	}

	unit := phrase[m[4]:m[5]]
	var interval models.Interval
	replacement := ""
	switch {
	case weekdayNames[unit]:
		interval = models.IntervalWeek
		replacement = "on " + unit
	case unit == "night" || unit == "evening" || unit == "morning" || unit == "afternoon":
		interval = models.IntervalDay
	default:
		interval, _ = models.ParseInterval(unit)
	}

	residual := strings.Join(strings.Fields(phrase[:m[0]]+" "+replacement+" "+phrase[m[1]:]), " ")
	if residual == "" {
		residual = synthesize(interval, multiplier)
	}
	return models.NewRecurrence(interval, multiplier), residual
}

// synthesize gives the date grammar an anchor when the phrase was nothing
// but a recurrence clause, e.g. "every 2 hours" -> "in 2 hours".
func synthesize(interval models.Interval, n int) string {
	unit := string(interval)
	if interval == models.IntervalWeekday {
		unit = string(models.IntervalDay)
	}
	if n == 1 {
		return "in 1 " + unit
	}
	return fmt.Sprintf("in %d %ss", n, unit)
}
