package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/hray3182/RemindMe/internal/intent"
	"github.com/hray3182/RemindMe/internal/models"
	"github.com/hray3182/RemindMe/internal/temporal"
)

func (h *Handlers) setTimezone(ctx context.Context, req Request, it intent.SetTimezone, reply *Reply) error {
	shift := ZoneShift(req.User.Timezone(), it.Zone, h.clock.Now())
	user, err := h.store.SetUserTimezone(ctx, req.User.Username, it.Zone, shift)
	if err != nil {
		return err
	}
	*req.User = *user

	if req.Conversation.Context == models.ContextAwaitingTime {
		reply.say(ackWhen)
		return nil
	}
	if err := h.contexts.ClearWeakContext(ctx, req.Conversation); err != nil {
		return err
	}
	reply.say(ack)
	return nil
}

// ZoneShift is how far reminders move so their wall-clock time is the same
// in zone to as it was in zone from. No previous zone means no shift.
func ZoneShift(from, to string, at time.Time) time.Duration {
	if from == "" {
		return 0
	}
	_, fromOffset := at.In(temporal.LoadLocation(from)).Zone()
	_, toOffset := at.In(temporal.LoadLocation(to)).Zone()
	return time.Duration(fromOffset-toOffset) * time.Second
}

func (h *Handlers) help(ctx context.Context, req Request, reply *Reply) error {
	if !req.User.Settings.HasSeenHelp {
		req.User.Settings.HasSeenHelp = true
		if err := h.store.SaveUserSettings(ctx, req.User); err != nil {
			return err
		}
	}
	if err := h.contexts.ClearWeakContext(ctx, req.Conversation); err != nil {
		return err
	}
	reply.say(fmt.Sprintf(help, h.owner))
	return nil
}
