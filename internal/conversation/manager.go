// Package conversation tracks the dialogue state of each chat.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hray3182/RemindMe/internal/clock"
	"github.com/hray3182/RemindMe/internal/models"
)

// RecentWindow is how long after its last exchange a conversation still
// counts as active.
const RecentWindow = 30 * time.Minute

var ErrInvalidContext = errors.New("invalid conversation context")

type Store interface {
	UpdateConversation(ctx context.Context, conv *models.Conversation) error
	SetReminderDeleted(ctx context.Context, id int64, deleted bool) error
}

type Manager struct {
	store Store
	clock clock.Clock
}

func NewManager(store Store, clk clock.Clock) *Manager {
	return &Manager{store: store, clock: clk}
}

// SetContext moves conv into state. A reminder must be given exactly for
// the states that refer to one. Any remembered deletion is forgotten.
func (m *Manager) SetContext(ctx context.Context, conv *models.Conversation, state models.ContextState, reminder *models.Reminder) error {
	return m.setContext(ctx, conv, state, reminder, nil)
}

// SetJustDeleted moves conv into JUST_DELETED and remembers deleted so
// that an undo can restore it. The active reference stays empty.
func (m *Manager) SetJustDeleted(ctx context.Context, conv *models.Conversation, deleted *models.Reminder) error {
	if deleted == nil || deleted.ID == 0 {
		return fmt.Errorf("%w: nothing was deleted", ErrInvalidContext)
	}
	return m.setContext(ctx, conv, models.ContextJustDeleted, nil, deleted)
}

func (m *Manager) setContext(ctx context.Context, conv *models.Conversation, state models.ContextState, reminder, deleted *models.Reminder) error {
	if !state.Valid() {
		return fmt.Errorf("%w: unknown state %q", ErrInvalidContext, state)
	}
	if state.RequiresReminder() {
		if reminder == nil || reminder.ID == 0 {
			return fmt.Errorf("%w: %s needs a stored reminder", ErrInvalidContext, state)
		}
	} else if reminder != nil {
		return fmt.Errorf("%w: %s takes no reminder", ErrInvalidContext, state)
	}

	prevState, prevRef, prevDeleted := conv.Context, conv.ReminderRef, conv.DeletedRef
	conv.Context = state
	conv.ReminderRef, conv.DeletedRef = nil, nil
	if reminder != nil {
		id := reminder.ID
		conv.ReminderRef = &id
	}
	if deleted != nil {
		id := deleted.ID
		conv.DeletedRef = &id
	}
	if err := m.store.UpdateConversation(ctx, conv); err != nil {
		conv.Context, conv.ReminderRef, conv.DeletedRef = prevState, prevRef, prevDeleted
		return err
	}
	return nil
}

// ClearWeakContext drops a weak state. Strong states are left alone.
func (m *Manager) ClearWeakContext(ctx context.Context, conv *models.Conversation) error {
	if !conv.Context.IsWeak() {
		return nil
	}
	return m.SetContext(ctx, conv, models.ContextNone, nil)
}

// ClearContext abandons the current exchange. A reminder still waiting
// for its time is deleted with it.
func (m *Manager) ClearContext(ctx context.Context, conv *models.Conversation) error {
	if conv.Context == models.ContextAwaitingTime && conv.ReminderRef != nil {
		if err := m.store.SetReminderDeleted(ctx, *conv.ReminderRef, true); err != nil {
			return err
		}
	}
	return m.SetContext(ctx, conv, models.ContextNone, nil)
}

func IsStrong(conv *models.Conversation) bool {
	return conv.Context.IsStrong()
}

func (m *Manager) IsRecentlyActive(conv *models.Conversation) bool {
	if conv.LastActiveTime.IsZero() {
		return false
	}
	return m.clock.Now().Sub(conv.LastActiveTime) < RecentWindow
}

// ExpectsAck reports whether a bare "thanks" or "ok" would be a reply to us.
func (m *Manager) ExpectsAck(conv *models.Conversation) bool {
	return conv.Context.IsWeak() && m.IsRecentlyActive(conv)
}

func (m *Manager) SetActive(ctx context.Context, conv *models.Conversation) error {
	prev := conv.LastActiveTime
	conv.LastActiveTime = m.clock.Now()
	if err := m.store.UpdateConversation(ctx, conv); err != nil {
		conv.LastActiveTime = prev
		return err
	}
	return nil
}

func (m *Manager) SetDebug(ctx context.Context, conv *models.Conversation, enabled bool) error {
	prev := conv.Debug
	conv.Debug = enabled
	if err := m.store.UpdateConversation(ctx, conv); err != nil {
		conv.Debug = prev
		return err
	}
	return nil
}
