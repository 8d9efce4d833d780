package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hray3182/RemindMe/internal/format"
	"github.com/hray3182/RemindMe/internal/intent"
	"github.com/hray3182/RemindMe/internal/models"
)

var errNoActiveReminder = errors.New("conversation has no active reminder")

func (h *Handlers) createReminder(ctx context.Context, req Request, it intent.CreateReminder, reply *Reply) error {
	if req.User.Timezone() == "" {
		user, err := h.store.SetUserTimezone(ctx, req.User.Username, models.DefaultTimezone, 0)
		if err != nil {
			return err
		}
		*req.User = *user
		reply.say(assumeTZ)
	}

	r := &models.Reminder{
		Time:        it.Time,
		CreatedTime: h.clock.Now(),
		Body:        it.Body,
		Username:    req.User.Username,
		ConvID:      req.Conversation.ID,
		Recurrence:  it.Recurrence,
	}
	if err := h.store.CreateReminder(ctx, r); err != nil {
		return err
	}

	if r.Time == nil {
		if err := h.contexts.SetContext(ctx, req.Conversation, models.ContextAwaitingTime, r); err != nil {
			return err
		}
		reply.say(when)
		return nil
	}

	if err := h.contexts.SetContext(ctx, req.Conversation, models.ContextJustSet, r); err != nil {
		return err
	}
	h.notifyIfSoon(r)
	reply.say(h.confirmation(r, req.User))
	return nil
}

func (h *Handlers) activeReminder(ctx context.Context, conv *models.Conversation) (*models.Reminder, error) {
	if conv.ReminderRef == nil {
		return nil, errNoActiveReminder
	}
	return h.store.GetReminder(ctx, *conv.ReminderRef)
}

func (h *Handlers) setWhen(ctx context.Context, req Request, it intent.SetWhen, reply *Reply) error {
	r, err := h.activeReminder(ctx, req.Conversation)
	if err != nil {
		return err
	}
	t := it.Time
	r.Time = &t
	r.Recurrence = it.Recurrence
	if err := h.store.UpdateReminder(ctx, r); err != nil {
		return err
	}
	if err := h.contexts.SetContext(ctx, req.Conversation, models.ContextJustSet, r); err != nil {
		return err
	}
	h.notifyIfSoon(r)
	reply.say(h.confirmation(r, req.User))
	return nil
}

func (h *Handlers) deleteReminder(ctx context.Context, req Request, it intent.DeleteReminder, reply *Reply) error {
	r := it.Reminder
	if err := h.store.SetReminderDeleted(ctx, r.ID, true); err != nil {
		return err
	}
	if err := h.contexts.SetJustDeleted(ctx, req.Conversation, r); err != nil {
		return err
	}
	reply.say(fmt.Sprintf("Alright, I've deleted the reminder to %s that was set for %s.",
		r.Body, h.humanTime(r, req.User, format.TimeOptions{NoPreposition: true})))
	return nil
}

func (h *Handlers) list(ctx context.Context, req Request, reply *Reply) error {
	if err := h.contexts.ClearWeakContext(ctx, req.Conversation); err != nil {
		return err
	}
	if len(req.Upcoming) == 0 {
		reply.say(noReminders)
		return nil
	}

	var b strings.Builder
	b.WriteString(listIntro)
	for i, r := range req.Upcoming {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(r.Body)
		b.WriteString(" - ")
		b.WriteString(h.humanTime(r, req.User, format.TimeOptions{Full: true}))
		b.WriteString("\n")
	}
	reply.say(b.String())
	return nil
}

// snooze schedules a one-off copy of the reminder that just fired. A
// repeating reminder keeps its own schedule.
func (h *Handlers) snooze(ctx context.Context, req Request, it intent.Snooze, reply *Reply) error {
	fired, err := h.activeReminder(ctx, req.Conversation)
	if err != nil {
		return err
	}
	until := it.Until
	r := &models.Reminder{
		Time:        &until,
		CreatedTime: h.clock.Now(),
		Body:        fired.Body,
		Username:    fired.Username,
		ConvID:      fired.ConvID,
	}
	if err := h.store.CreateReminder(ctx, r); err != nil {
		return err
	}
	if err := h.contexts.SetContext(ctx, req.Conversation, models.ContextJustSet, r); err != nil {
		return err
	}
	h.notifyIfSoon(r)
	reply.say("Ok. I'll remind you again in " + it.Phrase + ".")
	return nil
}

// undo takes back the last set or delete.
func (h *Handlers) undo(ctx context.Context, req Request, reply *Reply) error {
	conv := req.Conversation
	switch {
	case conv.Context == models.ContextJustSet && conv.ReminderRef != nil:
		if err := h.store.SetReminderDeleted(ctx, *conv.ReminderRef, true); err != nil {
			return err
		}
	case conv.Context == models.ContextJustDeleted && conv.DeletedRef != nil:
		if err := h.store.SetReminderDeleted(ctx, *conv.DeletedRef, false); err != nil {
			return err
		}
	default:
		if err := h.contexts.ClearWeakContext(ctx, conv); err != nil {
			return err
		}
		reply.say(nothingToUndo)
		return nil
	}
	if err := h.contexts.ClearWeakContext(ctx, conv); err != nil {
		return err
	}
	reply.say(ok)
	return nil
}
