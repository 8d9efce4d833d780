package intent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hray3182/RemindMe/internal/models"
	"github.com/hray3182/RemindMe/internal/temporal"
	"github.com/hray3182/RemindMe/internal/temporal/temporaltest"
)

// Sunday 2018-04-08 21:02:28 in US/Eastern.
var now = time.Unix(1523235748, 0).UTC()

func newClassifier() *Classifier {
	return NewClassifier(temporal.NewResolver(temporaltest.Parser{}), "remindbot")
}

func input(text string, state models.ContextState) Input {
	return Input{
		Text:         text,
		Conversation: &models.Conversation{ID: "42", Context: state},
		User:         &models.User{Username: "alice"},
		Now:          now,
	}
}

func classify(t *testing.T, in Input) Intent {
	t.Helper()
	return newClassifier().Classify(context.Background(), in)
}

func utc(month time.Month, day, hour, min, sec int) time.Time {
	return time.Date(2018, month, day, hour, min, sec, 0, time.UTC)
}

func TestClassify_Create(t *testing.T) {
	tests := []struct {
		text string
		body string
		at   *time.Time
		rule *models.Recurrence
	}{
		{"remind me to foo tomorrow", "foo", ptr(now.Add(24 * time.Hour)), nil},
		{"remind me tomorrow at 9am to call mom", "call mom", ptr(utc(4, 9, 13, 0, 0)), nil},
		{"Remind me to water the plants every day at 10pm", "water the plants", ptr(utc(4, 9, 2, 0, 0)), models.NewRecurrence(models.IntervalDay, 1)},
		{"remind me to water the plants every day at 9am", "water the plants", nil, models.NewRecurrence(models.IntervalDay, 1)},
		{"remind me to check in on bob in 2 hours", "check in on bob", ptr(now.Add(2 * time.Hour)), nil},
		{"remind me to take out the trash on monday", "take out the trash", ptr(now.Add(24 * time.Hour)), nil},
		{"reminder to stretch in 30 minutes", "stretch", ptr(now.Add(30 * time.Minute)), nil},
		{"remind me to foo.", "foo", nil, nil},
		{"remind me to pay rent at the bank", "pay rent at the bank", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := classify(t, input(tt.text, models.ContextNone)).(CreateReminder)
			require.True(t, ok)
			assert.Equal(t, tt.body, got.Body)
			assert.Equal(t, tt.rule, got.Recurrence)
			if tt.at == nil {
				assert.Nil(t, got.Time)
				return
			}
			require.NotNil(t, got.Time)
			assert.True(t, tt.at.Equal(*got.Time), "got %s, want %s", got.Time, tt.at)
		})
	}
}

func ptr(t time.Time) *time.Time { return &t }

func TestClassify_CreateWhenFirstFallsBack(t *testing.T) {
	got, ok := classify(t, input("remind me sometime to call mom", models.ContextNone)).(CreateReminder)
	require.True(t, ok)
	assert.Equal(t, "call mom", got.Body)
	assert.Nil(t, got.Time)
}

func TestClassify_Delete(t *testing.T) {
	r1 := &models.Reminder{ID: 1, Body: "call mom", Time: ptr(now.Add(time.Hour))}   // Sunday 22:02 local
	r2 := &models.Reminder{ID: 2, Body: "buy milk", Time: ptr(utc(4, 9, 13, 0, 0))}  // Monday 09:00 local
	r3 := &models.Reminder{ID: 3, Body: "pay rent", Time: ptr(utc(4, 15, 13, 0, 0))} // next Sunday
	gone := &models.Reminder{ID: 4, Body: "walk the dog", Time: ptr(utc(4, 9, 14, 0, 0)), Deleted: true}

	tests := []struct {
		text string
		want *models.Reminder
	}{
		{"delete the reminder to buy milk", r2},
		{"please cancel my pay rent reminder", r3},
		{"cancel reminder #3", r3},
		{"delete the last reminder", r3},
		{"remove the second reminder", r2},
		{"delete the tomorrow reminder", r2},
		{"delete the 10:02pm reminder", r1},
		{"delete reminder 1", r1},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			in := input(tt.text, models.ContextNone)
			in.Upcoming = []*models.Reminder{r1, r2, gone, r3}
			assert.Equal(t, DeleteReminder{Reminder: tt.want}, classify(t, in))
		})
	}

	t.Run("no match falls through", func(t *testing.T) {
		in := input("cancel my walk the dog reminder", models.ContextNone)
		in.Upcoming = []*models.Reminder{r1, r2, gone, r3}
		assert.Equal(t, Unknown{}, classify(t, in))
	})

	t.Run("nothing upcoming", func(t *testing.T) {
		assert.Equal(t, Unknown{}, classify(t, input("cancel the buy milk reminder", models.ContextNone)))
	})
}

func TestClassify_SetWhen(t *testing.T) {
	got, ok := classify(t, input("tomorrow at 9am", models.ContextAwaitingTime)).(SetWhen)
	require.True(t, ok)
	assert.True(t, utc(4, 9, 13, 0, 0).Equal(got.Time))

	assert.Equal(t, Unknown{}, classify(t, input("tomorrow at 9am", models.ContextNone)))
}

func TestClassify_Timezone(t *testing.T) {
	tests := []struct {
		text string
		want Intent
	}{
		{"set my timezone to US/Pacific.", SetTimezone{Zone: "US/Pacific"}},
		{"my time zone is Europe/Berlin", SetTimezone{Zone: "Europe/Berlin"}},
		{"timezone eastern", SetTimezone{Zone: "US/Eastern"}},
		{"timezone pt", SetTimezone{Zone: "US/Pacific"}},
		{"my timezone is est", SetTimezone{Zone: "EST"}},
		{"my timezone is mars", UnknownTimezone{}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(t, input(tt.text, models.ContextNone)))
		})
	}
}

func TestClassify_Simple(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		state  models.ContextState
		active bool
		want   Intent
	}{
		{"help", "help me please", models.ContextNone, false, Help{}},
		{"help beats timezone", "timezone help", models.ContextNone, false, Help{}},
		{"list", "list", models.ContextNone, false, List{}},
		{"show reminders", "show me my reminders", models.ContextNone, false, List{}},
		{"upcoming", "what's upcoming?", models.ContextNone, false, List{}},
		{"stop while awaiting", "never mind.", models.ContextAwaitingTime, false, Stop{}},
		{"stop needs awaiting", "stop", models.ContextNone, false, Unknown{}},
		{"undo after set", "no", models.ContextJustSet, true, Undo{}},
		{"undo with mention", "@remindbot nvm", models.ContextJustSet, false, Undo{}},
		{"undo after delete", "undo that", models.ContextJustDeleted, false, Undo{}},
		{"undo needs weak state", "undo", models.ContextJustReminded, false, Unknown{}},
		{"source", "Who made you?", models.ContextNone, false, Source{}},
		{"ack", "ok thanks!", models.ContextJustSet, true, Acknowledge{}},
		{"ack needs activity", "ok thanks!", models.ContextJustSet, false, Unknown{}},
		{"ack needs weak state", "cool", models.ContextNone, true, Unknown{}},
		{"greeting", "hey there", models.ContextNone, false, Greeting{Phrase: "Hey!"}},
		{"greeting phrase", "Good morning remindbot", models.ContextNone, false, Greeting{Phrase: "Good morning!"}},
		{"debug", "#debug", models.ContextNone, false, SetDebug{Enabled: true}},
		{"nodebug", " #NoDebug ", models.ContextNone, false, SetDebug{Enabled: false}},
		{"unknown", "purple monkey dishwasher", models.ContextNone, false, Unknown{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input(tt.text, tt.state)
			in.RecentlyActive = tt.active
			assert.Equal(t, tt.want, classify(t, in))
		})
	}
}

func TestClassify_Snooze(t *testing.T) {
	got, ok := classify(t, input("snooze", models.ContextJustReminded)).(Snooze)
	require.True(t, ok)
	assert.Equal(t, DefaultSnooze, got.Phrase)
	assert.True(t, now.Add(10*time.Minute).Equal(got.Until))

	got, ok = classify(t, input("Snooze for 1 hour.", models.ContextJustReminded)).(Snooze)
	require.True(t, ok)
	assert.Equal(t, "1 hour", got.Phrase)
	assert.True(t, now.Add(time.Hour).Equal(got.Until))

	assert.Equal(t, Unknown{}, classify(t, input("snooze", models.ContextJustSet)))
}

func TestClassify_NilConversationIsNone(t *testing.T) {
	in := Input{Text: "tomorrow at 9am", Now: now}
	assert.Equal(t, Unknown{}, classify(t, in))
}
