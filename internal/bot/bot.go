package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hray3182/RemindMe/internal/bot/handlers"
	"github.com/hray3182/RemindMe/internal/clock"
	"github.com/hray3182/RemindMe/internal/conversation"
	"github.com/hray3182/RemindMe/internal/intent"
	"github.com/hray3182/RemindMe/internal/lock"
	"github.com/hray3182/RemindMe/internal/models"
	"github.com/hray3182/RemindMe/internal/repository"
	"github.com/hray3182/RemindMe/internal/temporal"
	"github.com/hray3182/RemindMe/internal/transport"
)

type Config struct {
	// Owner is the operator's handle, without "@".
	Owner string
	// DebugChatID receives crash reports and debug-mode transcripts. The
	// bot does not answer messages posted there.
	DebugChatID string
}

type Bot struct {
	transport  transport.Transport
	store      repository.Store
	classifier *intent.Classifier
	contexts   *conversation.Manager
	handlers   *handlers.Handlers
	locker     lock.Locker
	clock      clock.Clock
	cfg        Config
	log        zerolog.Logger
}

func New(
	tr transport.Transport,
	store repository.Store,
	resolver *temporal.Resolver,
	locker lock.Locker,
	clk clock.Clock,
	cfg Config,
	log zerolog.Logger,
) *Bot {
	contexts := conversation.NewManager(store, clk)
	return &Bot{
		transport:  tr,
		store:      store,
		classifier: intent.NewClassifier(resolver, tr.Username()),
		contexts:   contexts,
		handlers:   handlers.New(store, contexts, clk, cfg.Owner, log),
		locker:     locker,
		clock:      clk,
		cfg:        cfg,
		log:        log.With().Str("component", "bot").Logger(),
	}
}

// Handlers exposes the intent handlers for wiring the scheduler and, in
// tests, a fixed confirmation phrase.
func (b *Bot) Handlers() *handlers.Handlers {
	return b.handlers
}

// Contexts is the conversation state manager shared with the scheduler.
func (b *Bot) Contexts() *conversation.Manager {
	return b.contexts
}

// Run handles inbound messages one at a time until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info().Str("username", b.transport.Username()).Msg("bot started")
	for msg := range b.transport.Messages(ctx) {
		if err := b.HandleMessage(ctx, msg); err != nil {
			b.log.Error().Err(err).Str("conv_id", msg.ConvID).Msg("failed to handle message")
		}
	}
	b.log.Info().Msg("bot stopped")
	return nil
}

// HandleMessage classifies msg and carries it out. Errors have already
// been apologized for in the conversation.
func (b *Bot) HandleMessage(ctx context.Context, msg transport.Message) (err error) {
	if b.cfg.DebugChatID != "" && msg.ConvID == b.cfg.DebugChatID {
		return nil
	}

	unlock, err := b.locker.Lock(ctx, msg.ConvID)
	if err != nil {
		return fmt.Errorf("failed to lock conversation: %w", err)
	}
	defer unlock()

	req := handlers.Request{Username: msg.Username, Text: msg.Text}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			b.crash(ctx, msg, req, err)
		}
	}()

	conv, err := b.store.GetOrCreateConversation(ctx, &models.Conversation{
		ID:      msg.ConvID,
		Channel: msg.Channel,
		IsTeam:  msg.IsTeam,
		Topic:   msg.Topic,
	})
	if err != nil {
		return err
	}
	req.Conversation = conv

	if !msg.Private && !b.mentioned(msg.Text) && !conversation.IsStrong(conv) {
		b.log.Debug().Str("conv_id", conv.ID).Msg("ignoring message not for me")
		return nil
	}

	user, err := b.store.GetOrCreateUser(ctx, msg.Username)
	if err != nil {
		return err
	}
	req.User = user

	now := b.clock.Now()
	upcoming, err := b.store.ListUpcoming(ctx, conv.ID, now)
	if err != nil {
		return err
	}
	req.Upcoming = upcoming
	req.RecentlyActive = b.contexts.IsRecentlyActive(conv)

	it := b.classifier.Classify(ctx, intent.Input{
		Text:           msg.Text,
		Conversation:   conv,
		User:           user,
		Upcoming:       upcoming,
		RecentlyActive: req.RecentlyActive,
		Now:            now,
	})
	b.log.Debug().Str("conv_id", conv.ID).Str("intent", fmt.Sprintf("%T", it)).Str("context", string(conv.Context)).Msg("classified message")

	reply, err := b.handlers.Handle(ctx, req, it)
	if err != nil {
		return err
	}
	b.deliver(ctx, conv.ID, reply)

	return b.contexts.SetActive(ctx, conv)
}

func (b *Bot) mentioned(text string) bool {
	name := b.transport.Username()
	return name != "" && strings.Contains(strings.ToLower(text), strings.ToLower(name))
}

func (b *Bot) deliver(ctx context.Context, convID string, reply handlers.Reply) {
	for _, text := range reply.Texts {
		if err := b.transport.Send(ctx, convID, text); err != nil {
			if !errors.Is(err, transport.ErrNoAccess) {
				b.log.Error().Err(err).Str("conv_id", convID).Msg("failed to send reply")
			}
			break
		}
	}
	for _, text := range reply.Debug {
		b.debug(ctx, text)
	}
}

func (b *Bot) debug(ctx context.Context, text string) {
	if b.cfg.DebugChatID == "" {
		b.log.Warn().Str("debug", text).Msg("no debug chat configured")
		return
	}
	if err := b.transport.Send(ctx, b.cfg.DebugChatID, text); err != nil {
		b.log.Error().Err(err).Msg("failed to send to debug chat")
	}
}

// crash apologizes, reports to the operator and drops whatever exchange
// was in progress.
func (b *Bot) crash(ctx context.Context, msg transport.Message, req handlers.Request, err error) {
	b.log.Error().Err(err).Str("conv_id", msg.ConvID).Msg("crashed handling message")
	b.deliver(ctx, msg.ConvID, b.handlers.Crash(req, err))

	if req.Conversation == nil {
		return
	}
	if resetErr := b.contexts.SetContext(ctx, req.Conversation, models.ContextNone, nil); resetErr != nil {
		b.log.Error().Err(resetErr).Str("conv_id", msg.ConvID).Msg("failed to reset context")
	}
}
