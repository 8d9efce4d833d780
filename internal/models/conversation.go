package models

import "time"

// ContextState is the dialogue mode of a conversation.
type ContextState string

const (
	ContextNone         ContextState = "none"
	ContextAwaitingTime ContextState = "awaiting_time" // "When should I remind you?"
	ContextJustSet      ContextState = "just_set"
	ContextJustReminded ContextState = "just_reminded"
	ContextJustDeleted  ContextState = "just_deleted"
)

// RequiresReminder reports whether the state must carry an active reminder.
func (s ContextState) RequiresReminder() bool {
	switch s {
	case ContextAwaitingTime, ContextJustSet, ContextJustReminded:
		return true
	}
	return false
}

// IsStrong reports whether the bot keeps engaging without being addressed.
func (s ContextState) IsStrong() bool {
	return s == ContextAwaitingTime
}

// IsWeak reports whether the state is cleared by most other intents.
func (s ContextState) IsWeak() bool {
	switch s {
	case ContextJustSet, ContextJustReminded, ContextJustDeleted:
		return true
	}
	return false
}

func (s ContextState) Valid() bool {
	switch s {
	case ContextNone, ContextAwaitingTime, ContextJustSet, ContextJustReminded, ContextJustDeleted:
		return true
	}
	return false
}

type Conversation struct {
	ID             string       `json:"id"`
	Channel        string       `json:"channel"`
	IsTeam         bool         `json:"is_team"`
	Topic          *string      `json:"topic"`
	LastActiveTime time.Time    `json:"last_active_time"`
	Context        ContextState `json:"context"`
	ReminderRef    *int64       `json:"reminder_ref"` // active reminder, by id
	DeletedRef     *int64       `json:"deleted_ref"`  // just deleted, restorable by undo
	Debug          bool         `json:"debug"`
}
