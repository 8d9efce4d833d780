// Package handlers carries out classified intents: store mutations,
// context transitions and the replies that go with them.
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hray3182/RemindMe/internal/clock"
	"github.com/hray3182/RemindMe/internal/conversation"
	"github.com/hray3182/RemindMe/internal/format"
	"github.com/hray3182/RemindMe/internal/intent"
	"github.com/hray3182/RemindMe/internal/models"
	"github.com/hray3182/RemindMe/internal/repository"
)

// Notifier is told about reminders that fall due before its next poll.
type Notifier interface {
	Notify()
	PollInterval() time.Duration
}

// Request is one classified message with the state it was classified in.
type Request struct {
	Conversation   *models.Conversation
	User           *models.User
	Username       string
	Text           string
	Upcoming       []*models.Reminder
	RecentlyActive bool
}

// Reply holds messages for the conversation and for the operator's debug
// chat, in send order.
type Reply struct {
	Texts []string
	Debug []string
}

func (r *Reply) say(texts ...string) {
	r.Texts = append(r.Texts, texts...)
}

type Handlers struct {
	store    repository.Store
	contexts *conversation.Manager
	clock    clock.Clock
	notifier Notifier
	pick     format.Picker
	owner    string
	log      zerolog.Logger
}

func New(store repository.Store, contexts *conversation.Manager, clk clock.Clock, owner string, log zerolog.Logger) *Handlers {
	return &Handlers{
		store:    store,
		contexts: contexts,
		clock:    clk,
		pick:     format.RandomPicker,
		owner:    owner,
		log:      log,
	}
}

func (h *Handlers) SetNotifier(n Notifier) {
	h.notifier = n
}

// SetPicker replaces the random choice of confirmation phrase.
func (h *Handlers) SetPicker(p format.Picker) {
	h.pick = p
}

// Handle applies it. A returned error is a storage failure; the reply
// built so far is discarded by the caller.
func (h *Handlers) Handle(ctx context.Context, req Request, it intent.Intent) (Reply, error) {
	var reply Reply
	var err error

	switch it := it.(type) {
	case intent.CreateReminder:
		err = h.createReminder(ctx, req, it, &reply)
	case intent.SetWhen:
		err = h.setWhen(ctx, req, it, &reply)
	case intent.DeleteReminder:
		err = h.deleteReminder(ctx, req, it, &reply)
	case intent.List:
		err = h.list(ctx, req, &reply)
	case intent.Snooze:
		err = h.snooze(ctx, req, it, &reply)
	case intent.Undo:
		err = h.undo(ctx, req, &reply)
	case intent.Stop:
		err = h.contexts.ClearContext(ctx, req.Conversation)
		reply.say(ok)
	case intent.SetTimezone:
		err = h.setTimezone(ctx, req, it, &reply)
	case intent.UnknownTimezone:
		err = h.contexts.ClearWeakContext(ctx, req.Conversation)
		reply.say(helpTZ)
	case intent.Help:
		err = h.help(ctx, req, &reply)
	case intent.SetDebug:
		err = h.contexts.SetDebug(ctx, req.Conversation, it.Enabled)
		if it.Enabled {
			reply.say(debugOn)
		} else {
			reply.say(debugOff)
		}
	case intent.Source:
		err = h.contexts.ClearWeakContext(ctx, req.Conversation)
		reply.say(fmt.Sprintf(source, h.owner))
	case intent.Acknowledge:
		err = h.contexts.ClearWeakContext(ctx, req.Conversation)
	case intent.Greeting:
		err = h.contexts.ClearWeakContext(ctx, req.Conversation)
		reply.say(it.Phrase)
	case intent.Unknown:
		h.unknown(req, &reply)
	default:
		err = fmt.Errorf("unhandled intent %T", it)
	}

	if err != nil {
		return Reply{}, err
	}
	return reply, nil
}

// unknown leaves the context alone; the user may still answer a question.
func (h *Handlers) unknown(req Request, reply *Reply) {
	if req.Conversation.Debug {
		reply.Debug = append(reply.Debug, fmt.Sprintf("Message from @%s parsed UNKNOWN: %s", req.Username, req.Text))
	}
	switch {
	case req.Conversation.Context == models.ContextAwaitingTime:
		reply.say(helpWhen)
	case req.RecentlyActive || req.User.Settings.HasSeenHelp:
		reply.say(unknown)
	default:
		reply.say(promptHelp)
	}
}

// Crash is the apology sent when handling a message failed.
func (h *Handlers) Crash(req Request, err error) Reply {
	reply := Reply{
		Texts: []string{fmt.Sprintf(crashed, h.owner)},
		Debug: []string{"I crashed! Error:\n" + err.Error()},
	}
	if req.Conversation != nil && req.Conversation.Debug {
		reply.Debug = append(reply.Debug, fmt.Sprintf("The message, sent by @%s was: %s", req.Username, req.Text))
	}
	return reply
}

func (h *Handlers) humanTime(r *models.Reminder, user *models.User, opts format.TimeOptions) string {
	return format.HumanTime(*r.Time, r.Recurrence, user.Timezone(), h.clock.Now(), opts)
}

func (h *Handlers) confirmation(r *models.Reminder, user *models.User) string {
	return format.Confirmation(h.pick, r.Body, h.humanTime(r, user, format.TimeOptions{}))
}

// notifyIfSoon wakes the scheduler when r would otherwise wait a whole
// poll interval past its time.
func (h *Handlers) notifyIfSoon(r *models.Reminder) {
	if h.notifier == nil || r.Time == nil {
		return
	}
	if r.Time.Sub(h.clock.Now()) <= h.notifier.PollInterval() {
		h.notifier.Notify()
	}
}
