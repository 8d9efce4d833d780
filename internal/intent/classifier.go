package intent

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/hray3182/RemindMe/internal/models"
	"github.com/hray3182/RemindMe/internal/temporal"
)

// DefaultSnooze is used when "snooze" comes without a duration.
const DefaultSnooze = "10 minutes"

// Input is everything a classification may look at.
type Input struct {
	Text           string
	Conversation   *models.Conversation
	User           *models.User
	Upcoming       []*models.Reminder // listing order
	RecentlyActive bool
	Now            time.Time
}

func (in Input) state() models.ContextState {
	if in.Conversation == nil || in.Conversation.Context == "" {
		return models.ContextNone
	}
	return in.Conversation.Context
}

// Classifier runs the matcher cascade. It has no side effects.
type Classifier struct {
	resolver *temporal.Resolver
	mention  *regexp.Regexp
}

func NewClassifier(resolver *temporal.Resolver, botName string) *Classifier {
	c := &Classifier{resolver: resolver}
	if name := strings.TrimPrefix(botName, "@"); name != "" {
		c.mention = regexp.MustCompile(`(?i)@?\b` + regexp.QuoteMeta(name) + `\b[:,]?`)
	}
	return c
}

// Classify returns the first intent whose matcher accepts the input.
// Order matters and is part of the bot's observable behavior.
func (c *Classifier) Classify(ctx context.Context, in Input) Intent {
	text := c.stripMention(in.Text)
	state := in.state()

	if it, ok := c.matchDelete(ctx, text, in); ok {
		return it
	}
	if it, ok := c.matchCreate(ctx, text, in); ok {
		return it
	}
	if helpRe.MatchString(strings.ToLower(text)) {
		return Help{}
	}
	if state == models.ContextAwaitingTime {
		if res := c.resolve(ctx, text, in); res.Resolved() {
			return SetWhen{Time: *res.Time, Recurrence: res.Recurrence}
		}
	}
	if it, ok := matchTimezone(text); ok {
		return it
	}
	if matchList(text) {
		return List{}
	}
	if state == models.ContextAwaitingTime && matchStop(text) {
		return Stop{}
	}
	if (state == models.ContextJustSet || state == models.ContextJustDeleted) && matchUndo(text) {
		return Undo{}
	}
	if matchSource(text) {
		return Source{}
	}
	if in.RecentlyActive && state.IsWeak() && matchAck(text) {
		return Acknowledge{}
	}
	if phrase, ok := matchGreeting(text); ok {
		return Greeting{Phrase: phrase}
	}
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "#debug":
		return SetDebug{Enabled: true}
	case "#nodebug":
		return SetDebug{Enabled: false}
	}
	if state == models.ContextJustReminded {
		if it, ok := c.matchSnooze(ctx, text, in); ok {
			return it
		}
	}
	return Unknown{}
}

func (c *Classifier) resolve(ctx context.Context, phrase string, in Input) temporal.Resolution {
	return c.resolver.Resolve(ctx, phrase, in.User.Timezone(), in.Now)
}

func (c *Classifier) stripMention(text string) string {
	if c.mention == nil {
		return strings.TrimSpace(text)
	}
	return strings.Join(strings.Fields(c.mention.ReplaceAllString(text, " ")), " ")
}

// words lowercases text and splits it on anything that is not a letter,
// digit, '#' or apostrophe.
func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '#' && r != '\''
	})
}

func clean(text string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(text)), " .!?,")
}

var helpRe = regexp.MustCompile(`\bhelp\b`)

// Create

var (
	whenFirstRe = regexp.MustCompile(`(?i)\bremind me\s+(.+?)\s+to\s+(.+)$`)
	whatFirstRe = regexp.MustCompile(`(?i)\b(?:remind me|reminder) to\s+`)

	splitWords = map[string]bool{
		"today": true, "tonight": true, "tomorrow": true, "next": true,
		"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
		"friday": true, "saturday": true, "sunday": true,
		"at": true, "on": true, "in": true, "every": true,
	}
)

func (c *Classifier) matchCreate(ctx context.Context, text string, in Input) (Intent, bool) {
	var fallback *CreateReminder

	if m := whenFirstRe.FindStringSubmatch(text); m != nil && !strings.EqualFold(firstWord(m[1]), "to") {
		body := trimBody(m[2])
		res := c.resolve(ctx, m[1], in)
		if res.Resolved() {
			return CreateReminder{Body: body, Time: res.Time, Recurrence: res.Recurrence}, true
		}
		fallback = &CreateReminder{Body: body, Recurrence: res.Recurrence}
	}

	loc := whatFirstRe.FindAllStringIndex(text, -1)
	if loc == nil {
		if fallback != nil {
			return *fallback, true
		}
		return nil, false
	}
	rest := strings.Fields(text[loc[len(loc)-1][1]:])
	if len(rest) == 0 {
		return nil, false
	}

	var recurring *CreateReminder
	for i := 1; i < len(rest); i++ {
		if !splitWords[strings.ToLower(strings.Trim(rest[i], ".,!?"))] {
			continue
		}
		body := trimBody(strings.Join(rest[:i], " "))
		res := c.resolve(ctx, strings.Join(rest[i:], " "), in)
		if res.Resolved() {
			return CreateReminder{Body: body, Time: res.Time, Recurrence: res.Recurrence}, true
		}
		if res.Recurrence != nil && recurring == nil {
			recurring = &CreateReminder{Body: body, Recurrence: res.Recurrence}
		}
	}
	if recurring != nil {
		return *recurring, true
	}
	return CreateReminder{Body: trimBody(strings.Join(rest, " "))}, true
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

func trimBody(s string) string {
	return strings.Trim(strings.TrimSpace(s), " .!?,")
}

// Delete

var (
	deleteRe  = regexp.MustCompile(`\b(delete|cancel|undo|remove|clear)\b.*\breminders?\b|\breminders?\b.*\b(delete|cancel|remove|clear)\b`)
	ordinalRe = regexp.MustCompile(`^(?:#\s*(\d+)|(\d+)|(first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth|last))$`)

	ordinalWords = map[string]int{
		"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
		"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
	}

	deleteStopWords = map[string]bool{
		"delete": true, "cancel": true, "undo": true, "remove": true, "clear": true,
		"the": true, "a": true, "an": true, "my": true, "me": true, "to": true, "for": true,
		"that": true, "this": true, "is": true, "was": true, "set": true, "of": true,
		"and": true, "please": true, "reminder": true, "reminders": true, "i": true,
		"you": true, "it": true, "about": true, "one": true, "number": true,
	}
)

func (c *Classifier) matchDelete(ctx context.Context, text string, in Input) (Intent, bool) {
	var upcoming []*models.Reminder
	for _, r := range in.Upcoming {
		if !r.Deleted {
			upcoming = append(upcoming, r)
		}
	}
	lower := strings.ToLower(text)
	if len(upcoming) == 0 || !deleteRe.MatchString(lower) {
		return nil, false
	}

	scores := make([]int, len(upcoming))

	loc := temporal.LoadLocation(in.User.Timezone())
	for _, phrase := range c.deletePhrases(lower) {
		if ordinalRe.MatchString(phrase) {
			continue
		}
		res := c.resolve(ctx, phrase, in)
		if !res.Resolved() {
			continue
		}
		for i, r := range upcoming {
			scores[i] += timeScore(r, *res.Time, loc)
		}
		break
	}

	target := contentWords(words(lower))
	for i, r := range upcoming {
		n := overlap(target, contentWords(words(r.Body)))
		scores[i] += n * n
	}

	best := -1
	for i, s := range scores {
		if s > 0 && (best < 0 || s > scores[best]) {
			best = i
		}
	}
	if best >= 0 {
		return DeleteReminder{Reminder: upcoming[best]}, true
	}

	if idx, ok := ordinalIndex(lower, len(upcoming)); ok {
		return DeleteReminder{Reminder: upcoming[idx]}, true
	}
	return nil, false
}

// deletePhrases yields the text around "reminder" with the verb and filler
// removed, longest first: "delete the tomorrow reminder" gives "tomorrow".
func (c *Classifier) deletePhrases(lower string) []string {
	var before, after []string
	seen := false
	for _, f := range strings.Fields(lower) {
		w := strings.Trim(f, ".,!?\"'")
		if w == "" {
			continue
		}
		switch {
		case w == "reminder" || w == "reminders":
			seen = true
		case !seen:
			if !deleteStopWords[w] {
				before = append(before, w)
			}
		default:
			after = append(after, w)
		}
	}
	for len(after) > 0 && deleteStopWords[after[0]] {
		after = after[1:]
	}

	var phrases []string
	for _, part := range [][]string{after, before} {
		for i := range part {
			if i == 0 || splitWords[part[i]] {
				phrases = append(phrases, strings.Join(part[i:], " "))
			}
		}
	}
	return phrases
}

func timeScore(r *models.Reminder, t time.Time, loc *time.Location) int {
	if r.Time == nil {
		return 0
	}
	diff := r.Time.Sub(t)
	if diff < 0 {
		diff = -diff
	}
	if diff <= time.Minute {
		return 4
	}
	switch days := dayDistance(r.Time.In(loc), t.In(loc)); days {
	case 0:
		return 2
	case 1:
		return 1
	}
	return 0
}

func dayDistance(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	d := int(da.Sub(db).Hours() / 24)
	if d < 0 {
		d = -d
	}
	return d
}

func contentWords(ws []string) map[string]bool {
	out := make(map[string]bool, len(ws))
	for _, w := range ws {
		if !deleteStopWords[w] && !splitWords[w] {
			out[w] = true
		}
	}
	return out
}

func overlap(a, b map[string]bool) int {
	n := 0
	for w := range a {
		if b[w] {
			n++
		}
	}
	return n
}

func ordinalIndex(lower string, n int) (int, bool) {
	for _, w := range words(lower) {
		m := ordinalRe.FindStringSubmatch(w)
		if m == nil {
			continue
		}
		var idx int
		switch {
		case m[1] != "":
			idx, _ = strconv.Atoi(m[1])
		case m[2] != "":
			idx, _ = strconv.Atoi(m[2])
		case m[3] == "last":
			idx = n
		default:
			idx = ordinalWords[m[3]]
		}
		if idx >= 1 && idx <= n {
			return idx - 1, true
		}
	}
	return 0, false
}

// Timezone

func matchTimezone(text string) (Intent, bool) {
	fields := strings.Fields(strings.TrimSpace(text))
	anchor := -1
	for i, f := range fields {
		w := strings.ToLower(strings.Trim(f, " .?!,"))
		if w == "timezone" {
			anchor = i + 1
		} else if w == "zone" && i > 0 && strings.ToLower(strings.Trim(fields[i-1], " .?!,")) == "time" {
			anchor = i + 1
		}
	}
	if anchor < 0 {
		return nil, false
	}

	for _, f := range fields[anchor:] {
		word := strings.Trim(f, " .?!,")
		switch strings.ToLower(word) {
		case "et", "eastern", "us/eastern":
			return SetTimezone{Zone: "US/Eastern"}, true
		case "pt", "pacific", "us/pacific":
			return SetTimezone{Zone: "US/Pacific"}, true
		}
		if temporal.ValidZone(word) {
			return SetTimezone{Zone: word}, true
		}
		if up := strings.ToUpper(word); up != word && len(word) <= 4 && temporal.ValidZone(up) {
			return SetTimezone{Zone: up}, true
		}
	}
	return UnknownTimezone{}, true
}

// List, Stop, Undo, Source

var (
	listRe      = regexp.MustCompile(`\blist\b|\bupcoming\b`)
	showRe      = regexp.MustCompile(`\bshow\b`)
	remindersRe = regexp.MustCompile(`\breminders\b`)

	stopPhrases = map[string]bool{
		"nevermind": true, "never mind": true, "stop": true, "stfu": true, "shut up": true,
		"go away": true, "leave me alone": true, "never": true,
	}

	undoRe = regexp.MustCompile(`\b(undo|never ?mind|no|undo that|delete that|nvm)\b`)

	sourcePhrases = map[string]bool{
		"what are you": true, "who are you": true, "who made you": true, "who wrote you": true,
		"who built you": true, "what is this": true, "source": true, "source code": true,
		"what is your source code": true, "where is your source code": true,
		"show me your source code": true, "what are you made of": true, "what language are you written in": true,
	}
)

func matchList(text string) bool {
	lower := strings.ToLower(text)
	return listRe.MatchString(lower) || (showRe.MatchString(lower) && remindersRe.MatchString(lower))
}

func matchStop(text string) bool {
	return stopPhrases[clean(text)]
}

func matchUndo(text string) bool {
	return undoRe.MatchString(strings.Join(words(text), " "))
}

func matchSource(text string) bool {
	return sourcePhrases[strings.Join(words(strings.ReplaceAll(text, "'", "")), " ")]
}

// Acknowledge, Greeting

var (
	ackWords = map[string]bool{
		"ok": true, "okay": true, "k": true, "kk": true, "thanks": true, "thank": true, "you": true,
		"thx": true, "ty": true, "cool": true, "great": true, "awesome": true, "nice": true,
		"got": true, "it": true, "sounds": true, "good": true, "perfect": true, "sure": true,
		"yep": true, "yes": true, "alright": true,
	}

	// longer phrases first so "good morning" beats nothing shorter
	greetings = []string{
		"good morning", "good afternoon", "good evening", "what's up", "whats up",
		"hello", "hi", "hey", "howdy", "hiya", "yo", "sup", "greetings",
	}
)

func matchAck(text string) bool {
	ws := words(text)
	if len(ws) == 0 {
		return false
	}
	for _, w := range ws {
		if !ackWords[w] {
			return false
		}
	}
	return true
}

func matchGreeting(text string) (string, bool) {
	joined := " " + strings.Join(words(text), " ") + " "
	for _, g := range greetings {
		if strings.Contains(joined, " "+g+" ") {
			return strings.ToUpper(g[:1]) + g[1:] + "!", true
		}
	}
	return "", false
}

// Snooze

var snoozeRe = regexp.MustCompile(`^snooze(?:\s+(?:for\s+)?(.+))?$`)

func (c *Classifier) matchSnooze(ctx context.Context, text string, in Input) (Intent, bool) {
	m := snoozeRe.FindStringSubmatch(clean(text))
	if m == nil {
		return nil, false
	}
	phrase := strings.TrimSpace(m[1])
	if phrase == "" {
		phrase = DefaultSnooze
	}
	res := c.resolve(ctx, "in "+phrase, in)
	if !res.Resolved() {
		return nil, false
	}
	return Snooze{Phrase: phrase, Until: *res.Time}, true
}
