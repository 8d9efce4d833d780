// Package transport moves chat messages between users and the bot.
package transport

import (
	"context"
	"errors"
)

// ErrNoAccess means the bot can no longer post to the conversation (it was
// blocked, kicked, or the chat is gone). Retrying will not help.
var ErrNoAccess = errors.New("no access to conversation")

// Message is an inbound chat message.
type Message struct {
	ConvID   string
	Username string
	Text     string
	Private  bool
	// Channel names the chat: the group title, or the peer's username.
	Channel string
	IsTeam  bool
	// Topic is unset on Telegram, which has no per-thread names here.
	Topic *string
}

type Sender interface {
	Send(ctx context.Context, convID, text string) error
}

type Transport interface {
	Sender
	Messages(ctx context.Context) <-chan Message
	Username() string
}
