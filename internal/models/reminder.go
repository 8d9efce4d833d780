package models

import (
	"fmt"
	"time"
)

// Interval is the unit a repeating reminder advances by.
type Interval string

const (
	IntervalMinute  Interval = "minute"
	IntervalHour    Interval = "hour"
	IntervalDay     Interval = "day"
	IntervalWeekday Interval = "weekday"
	IntervalWeek    Interval = "week"
	IntervalMonth   Interval = "month"
	IntervalYear    Interval = "year"
)

// ParseInterval maps a stored or spoken unit to an Interval.
func ParseInterval(s string) (Interval, bool) {
	switch Interval(s) {
	case IntervalMinute, IntervalHour, IntervalDay, IntervalWeekday, IntervalWeek, IntervalMonth, IntervalYear:
		return Interval(s), true
	}
	return "", false
}

// Recurrence says how a reminder reschedules itself after firing.
type Recurrence struct {
	Interval   Interval `json:"interval"`
	Multiplier int      `json:"multiplier"`
}

// NewRecurrence returns a rule with the multiplier floored at 1.
func NewRecurrence(interval Interval, multiplier int) *Recurrence {
	if multiplier < 1 {
		multiplier = 1
	}
	return &Recurrence{Interval: interval, Multiplier: multiplier}
}

// String renders "every week" or "every 2 weeks".
func (r *Recurrence) String() string {
	if r == nil {
		return ""
	}
	if r.Multiplier > 1 {
		return fmt.Sprintf("every %d %ss", r.Multiplier, r.Interval)
	}
	return "every " + string(r.Interval)
}

type Reminder struct {
	ID          int64       `json:"id"`
	Time        *time.Time  `json:"reminder_time"` // nil while waiting for the user to say when
	CreatedTime time.Time   `json:"created_time"`
	Body        string      `json:"body"`
	Username    string      `json:"user"`
	ConvID      string      `json:"conv_id"`
	Recurrence  *Recurrence `json:"recurrence"`
	Deleted     bool        `json:"deleted"`
	Errors      int         `json:"errors"`
}

// IsRecurring returns true if this reminder has a recurrence rule
func (r *Reminder) IsRecurring() bool {
	return r.Recurrence != nil
}

// Successor builds the row that replaces a fired repeating reminder.
func (r *Reminder) Successor(at, now time.Time) *Reminder {
	rec := *r.Recurrence
	return &Reminder{
		Time:        &at,
		CreatedTime: now,
		Body:        r.Body,
		Username:    r.Username,
		ConvID:      r.ConvID,
		Recurrence:  &rec,
	}
}
