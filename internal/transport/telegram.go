package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/hray3182/RemindMe/internal/format"
)

// BotAPI is the slice of tgbotapi.BotAPI used here.
type BotAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetSelf() tgbotapi.User
}

type botWrapper struct {
	*tgbotapi.BotAPI
}

func (w botWrapper) GetSelf() tgbotapi.User {
	return w.Self
}

type Telegram struct {
	bot     BotAPI
	retries uint64
	backoff func() *backoff.ExponentialBackOff
	log     zerolog.Logger
}

func NewTelegram(token string, retries int, log zerolog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return NewTelegramWithBot(botWrapper{api}, retries, log), nil
}

func NewTelegramWithBot(bot BotAPI, retries int, log zerolog.Logger) *Telegram {
	if retries < 0 {
		retries = 0
	}
	return &Telegram{
		bot:     bot,
		retries: uint64(retries),
		backoff: func() *backoff.ExponentialBackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.Multiplier = 2
			b.MaxInterval = 5 * time.Second
			return b
		},
		log: log,
	}
}

func (t *Telegram) Username() string {
	return t.bot.GetSelf().UserName
}

// Send posts text, rendering *bold*, _italic_ and `code` as entities.
// Transient failures are retried with exponential backoff.
func (t *Telegram) Send(ctx context.Context, convID, text string) error {
	chatID, err := strconv.ParseInt(convID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", convID, err)
	}

	parsed := format.ParseMarkdown(text)
	msg := tgbotapi.NewMessage(chatID, parsed.Text)
	msg.Entities = parsed.Entities

	policy := backoff.WithContext(backoff.WithMaxRetries(t.backoff(), t.retries), ctx)
	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		_, err := t.bot.Send(msg)
		if err == nil {
			return nil
		}
		err = classify(err)
		if isPermanent(err) {
			return backoff.Permanent(err)
		}
		t.log.Warn().Err(err).Str("conv_id", convID).Int("attempt", attempt).Msg("send failed, retrying")
		return err
	}, policy)
	if err != nil {
		return fmt.Errorf("failed to send to %s: %w", convID, err)
	}
	return nil
}

// classify maps Telegram API errors onto ErrNoAccess where the bot has
// lost the chat.
func classify(err error) error {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	desc := strings.ToLower(apiErr.Message)
	switch {
	case apiErr.Code == http.StatusForbidden,
		strings.Contains(desc, "chat not found"),
		strings.Contains(desc, "bot was kicked"),
		strings.Contains(desc, "bot was blocked"):
		return fmt.Errorf("%w: %s", ErrNoAccess, apiErr.Message)
	}
	return err
}

func isPermanent(err error) bool {
	if errors.Is(err, ErrNoAccess) {
		return true
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		// 4xx other than rate limiting will fail the same way again
		return apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests
	}
	return false
}

// Messages streams inbound text messages until ctx is done.
func (t *Telegram) Messages(ctx context.Context) <-chan Message {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.bot.GetUpdatesChan(u)

	out := make(chan Message)
	go func() {
		defer close(out)
		defer t.bot.StopReceivingUpdates()
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				msg, ok := toMessage(update)
				if !ok {
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func toMessage(update tgbotapi.Update) (Message, bool) {
	m := update.Message
	if m == nil || m.Text == "" || m.Chat == nil || m.From == nil {
		return Message{}, false
	}

	username := m.From.UserName
	if username == "" {
		username = strconv.FormatInt(m.From.ID, 10)
	}
	msg := Message{
		ConvID:   strconv.FormatInt(m.Chat.ID, 10),
		Username: username,
		Text:     m.Text,
		Private:  m.Chat.IsPrivate(),
		IsTeam:   m.Chat.IsGroup() || m.Chat.IsSuperGroup(),
		Channel:  m.Chat.Title,
	}
	if msg.Channel == "" {
		msg.Channel = username
	}
	return msg, true
}
