// Package ai offers an LLM-backed date grammar for phrases the rule-based
// parser does not cover.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/hray3182/RemindMe/internal/temporal"
)

type Client struct {
	client *openai.Client
	model  string
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

const systemPromptTemplate = `You convert an English date or time phrase into one absolute instant.

Current local time: %s (%s)
Timezone: %s
Prefer future dates: %t
When only a month is given, use its first day: %t

Reply with the instant in RFC 3339 format including the UTC offset.
If the phrase does not describe a single point in time, reply with an empty string.`

func systemPrompt(opts temporal.ParseOptions) string {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	base := opts.RelativeBase.In(loc)
	return fmt.Sprintf(systemPromptTemplate,
		base.Format("2006-01-02 15:04:05"), base.Format("Monday"),
		loc.String(), opts.PreferFuture, opts.PreferFirstDayOfMonth)
}

var instantSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"instant": {
			"type": "string",
			"description": "RFC 3339 timestamp, or empty when the phrase is not a date"
		}
	},
	"required": ["instant"],
	"additionalProperties": false
}`)

type instantReply struct {
	Instant string `json:"instant"`
}

// ResolveInstant asks the model for the instant described by phrase. An
// empty reply yields ok=false with a nil error.
func (c *Client) ResolveInstant(ctx context.Context, phrase string, opts temporal.ParseOptions) (time.Time, bool, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt(opts),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: phrase,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "instant",
				Schema: instantSchema,
				Strict: true,
			},
		},
		Temperature: 0,
	})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to call AI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return time.Time{}, false, fmt.Errorf("no response from AI")
	}

	var reply instantReply
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &reply); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse AI response: %w", err)
	}

	instant := strings.TrimSpace(reply.Instant)
	if instant == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, instant)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse instant %q: %w", instant, err)
	}
	return t, true, nil
}

// DateParser adapts Client to temporal.Parser. Errors are logged and
// reported as no match; there is no retry.
type DateParser struct {
	client *Client
	log    zerolog.Logger
}

func NewDateParser(client *Client, log zerolog.Logger) *DateParser {
	return &DateParser{client: client, log: log}
}

func (p *DateParser) Parse(ctx context.Context, text string, opts temporal.ParseOptions) (time.Time, bool) {
	if strings.TrimSpace(text) == "" {
		return time.Time{}, false
	}
	t, ok, err := p.client.ResolveInstant(ctx, text, opts)
	if err != nil {
		p.log.Warn().Err(err).Str("phrase", text).Msg("date phrase not resolved")
		return time.Time{}, false
	}
	return t, ok
}
