// Package repository persists users, conversations and reminders.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hray3182/RemindMe/internal/models"
)

var ErrNotFound = errors.New("not found")

type UserStore interface {
	// GetOrCreateUser returns the user, inserting an empty one on first sight.
	GetOrCreateUser(ctx context.Context, username string) (*models.User, error)
	SaveUserSettings(ctx context.Context, user *models.User) error
	// SetUserTimezone stores zone and moves the user's pending reminders by
	// shift, in one transaction.
	SetUserTimezone(ctx context.Context, username, zone string, shift time.Duration) (*models.User, error)
	// DeleteUser removes the user and all of their reminders.
	DeleteUser(ctx context.Context, username string) error
}

type ConversationStore interface {
	// GetOrCreateConversation looks conv up by ID, inserting it if missing.
	// Channel metadata is refreshed; dialogue state is left alone.
	GetOrCreateConversation(ctx context.Context, conv *models.Conversation) (*models.Conversation, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	UpdateConversation(ctx context.Context, conv *models.Conversation) error
	DeleteConversation(ctx context.Context, id string) error
}

type ReminderStore interface {
	CreateReminder(ctx context.Context, r *models.Reminder) error
	GetReminder(ctx context.Context, id int64) (*models.Reminder, error)
	// UpdateReminder writes time, recurrence, body, deleted and errors.
	UpdateReminder(ctx context.Context, r *models.Reminder) error
	SetReminderDeleted(ctx context.Context, id int64, deleted bool) error
	IncrementErrors(ctx context.Context, id int64) error
	// ListUpcoming returns the conversation's live reminders at or after
	// now, soonest first.
	ListUpcoming(ctx context.Context, convID string, now time.Time) ([]*models.Reminder, error)
	// DueReminders returns live reminders with time <= now and
	// errors <= errorLimit, oldest first, at most limit rows.
	DueReminders(ctx context.Context, now time.Time, errorLimit, limit int) ([]*models.Reminder, error)
	// MarkDelivered soft-deletes the fired reminder and, when successor is
	// non-nil, inserts it, atomically.
	MarkDelivered(ctx context.Context, id int64, successor *models.Reminder) error
	// Vacuum hard-deletes soft-deleted reminders no conversation refers to,
	// either as its active or its just-deleted reminder.
	Vacuum(ctx context.Context) (int64, error)
}

type Store interface {
	UserStore
	ConversationStore
	ReminderStore
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func recurrenceColumns(rec *models.Recurrence) (*string, *int) {
	if rec == nil {
		return nil, nil
	}
	interval := string(rec.Interval)
	n := rec.Multiplier
	return &interval, &n
}

func recurrenceFromColumns(interval *string, n *int) *models.Recurrence {
	if interval == nil || *interval == "" {
		return nil
	}
	iv, ok := models.ParseInterval(*interval)
	if !ok {
		return nil
	}
	mult := 1
	if n != nil {
		mult = *n
	}
	return models.NewRecurrence(iv, mult)
}
