// Package intent classifies chat messages into typed intents.
package intent

import (
	"time"

	"github.com/hray3182/RemindMe/internal/models"
)

// Intent is one of the concrete types below. The set is closed: only this
// package can add variants.
type Intent interface {
	isIntent()
}

// CreateReminder asks for a new reminder. Time is nil when the message did
// not say when.
type CreateReminder struct {
	Body       string
	Time       *time.Time
	Recurrence *models.Recurrence
}

// DeleteReminder names one of the conversation's upcoming reminders.
type DeleteReminder struct {
	Reminder *models.Reminder
}

type SetTimezone struct {
	Zone string
}

// UnknownTimezone is a timezone request naming no zone we know.
type UnknownTimezone struct{}

type List struct{}

// Stop abandons the reminder that is waiting for a time.
type Stop struct{}

type Undo struct{}

// Source is a question about what the bot is.
type Source struct{}

type Acknowledge struct{}

type Greeting struct {
	Phrase string // already capitalized, with "!"
}

type SetDebug struct {
	Enabled bool
}

// Snooze pushes the reminder that just fired to Until. Phrase is the
// duration as the user said it ("10 minutes" when unspecified).
type Snooze struct {
	Phrase string
	Until  time.Time
}

// SetWhen answers "when should I remind you?".
type SetWhen struct {
	Time       time.Time
	Recurrence *models.Recurrence
}

type Help struct{}

type Unknown struct{}

func (CreateReminder) isIntent()  {}
func (DeleteReminder) isIntent()  {}
func (SetTimezone) isIntent()     {}
func (UnknownTimezone) isIntent() {}
func (List) isIntent()            {}
func (Stop) isIntent()            {}
func (Undo) isIntent()            {}
func (Source) isIntent()          {}
func (Acknowledge) isIntent()     {}
func (Greeting) isIntent()        {}
func (SetDebug) isIntent()        {}
func (Snooze) isIntent()          {}
func (SetWhen) isIntent()         {}
func (Help) isIntent()            {}
func (Unknown) isIntent()         {}
