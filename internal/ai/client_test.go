package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hray3182/RemindMe/internal/temporal"
)

func completionServer(t *testing.T, content string, status int) (*httptest.Server, *[]string) {
	t.Helper()
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, m := range req.Messages {
			prompts = append(prompts, m.Content)
		}

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		body, _ := json.Marshal(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			}},
		})
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &prompts
}

func opts() temporal.ParseOptions {
	loc, _ := time.LoadLocation("US/Eastern")
	return temporal.ParseOptions{
		PreferFuture:          true,
		PreferFirstDayOfMonth: true,
		RelativeBase:          time.Unix(1523235748, 0).In(loc),
		Location:              loc,
	}
}

func TestDateParser_Instant(t *testing.T) {
	srv, prompts := completionServer(t, `{"instant":"2018-04-09T09:00:00-04:00"}`, http.StatusOK)
	p := NewDateParser(New("key", srv.URL, "test-model"), zerolog.Nop())

	got, ok := p.Parse(context.Background(), "tomorrow morning at nine", opts())
	require.True(t, ok)
	assert.True(t, time.Date(2018, 4, 9, 13, 0, 0, 0, time.UTC).Equal(got), "got %s", got)

	require.Len(t, *prompts, 2)
	assert.Contains(t, (*prompts)[0], "2018-04-08 21:02:28")
	assert.Contains(t, (*prompts)[0], "US/Eastern")
	assert.Equal(t, "tomorrow morning at nine", (*prompts)[1])
}

func TestDateParser_EmptyReplyIsNoMatch(t *testing.T) {
	srv, _ := completionServer(t, `{"instant":""}`, http.StatusOK)
	p := NewDateParser(New("key", srv.URL, "test-model"), zerolog.Nop())

	_, ok := p.Parse(context.Background(), "purple", opts())
	assert.False(t, ok)
}

func TestDateParser_FailureIsNoMatch(t *testing.T) {
	srv, prompts := completionServer(t, "", http.StatusInternalServerError)
	p := NewDateParser(New("key", srv.URL, "test-model"), zerolog.Nop())

	_, ok := p.Parse(context.Background(), "tomorrow", opts())
	assert.False(t, ok)
	assert.Len(t, *prompts, 2, "no retry")
}

func TestClient_BadInstant(t *testing.T) {
	srv, _ := completionServer(t, `{"instant":"next tuesday"}`, http.StatusOK)
	c := New("key", srv.URL, "test-model")

	_, ok, err := c.ResolveInstant(context.Background(), "next tuesday", opts())
	assert.Error(t, err)
	assert.False(t, ok)
}
