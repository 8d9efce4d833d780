package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hray3182/RemindMe/internal/models"
)

// SQLite is the single-file Store. Instants are kept as unix microseconds.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

type sqlQueryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func toMicros(t time.Time) int64 {
	return t.UnixMicro()
}

func fromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}

func toNullMicros(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMicro(), Valid: true}
}

func (s *SQLite) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteReminder(row sqlScanner) (*models.Reminder, error) {
	r := &models.Reminder{}
	var at sql.NullInt64
	var created int64
	var interval sql.NullString
	var nth sql.NullInt64
	if err := row.Scan(&r.ID, &at, &created, &r.Body, &r.Username, &r.ConvID,
		&r.Deleted, &interval, &nth, &r.Errors); err != nil {
		return nil, err
	}
	if at.Valid {
		t := fromMicros(at.Int64)
		r.Time = &t
	}
	r.CreatedTime = fromMicros(created)
	if interval.Valid {
		n := int(nth.Int64)
		r.Recurrence = recurrenceFromColumns(&interval.String, &n)
	}
	return r, nil
}

func (s *SQLite) queryReminders(ctx context.Context, query string, args ...any) ([]*models.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		r, err := scanSQLiteReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

func insertSQLiteReminder(ctx context.Context, q sqlQueryer, r *models.Reminder) error {
	interval, nth := recurrenceColumns(r.Recurrence)
	res, err := q.ExecContext(ctx,
		`INSERT INTO reminders (reminder_time, created_time, body, username, conv_id, deleted, repetition_interval, repetition_nth, errors)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		toNullMicros(r.Time), toMicros(r.CreatedTime), r.Body, r.Username, r.ConvID, r.Deleted, interval, nth, r.Errors,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reminder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read reminder id: %w", err)
	}
	r.ID = id
	return nil
}

func (s *SQLite) CreateReminder(ctx context.Context, r *models.Reminder) error {
	return insertSQLiteReminder(ctx, s.db, r)
}

func (s *SQLite) GetReminder(ctx context.Context, id int64) (*models.Reminder, error) {
	r, err := scanSQLiteReminder(s.db.QueryRowContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder %d: %w", id, err)
	}
	return r, nil
}

func (s *SQLite) UpdateReminder(ctx context.Context, r *models.Reminder) error {
	interval, nth := recurrenceColumns(r.Recurrence)
	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET reminder_time = ?, body = ?, deleted = ?, repetition_interval = ?, repetition_nth = ?, errors = ?
		 WHERE id = ?`,
		toNullMicros(r.Time), r.Body, r.Deleted, interval, nth, r.Errors, r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update reminder %d: %w", r.ID, err)
	}
	if rowsAffected(res) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) SetReminderDeleted(ctx context.Context, id int64, deleted bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE reminders SET deleted = ? WHERE id = ?`, deleted, id)
	if err != nil {
		return fmt.Errorf("failed to set deleted on reminder %d: %w", id, err)
	}
	if rowsAffected(res) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) IncrementErrors(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE reminders SET errors = errors + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to count error on reminder %d: %w", id, err)
	}
	return nil
}

func (s *SQLite) ListUpcoming(ctx context.Context, convID string, now time.Time) ([]*models.Reminder, error) {
	reminders, err := s.queryReminders(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE conv_id = ? AND deleted = 0 AND reminder_time IS NOT NULL AND reminder_time >= ?
		 ORDER BY reminder_time ASC, id ASC`,
		convID, toMicros(now))
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}

func (s *SQLite) DueReminders(ctx context.Context, now time.Time, errorLimit, limit int) ([]*models.Reminder, error) {
	reminders, err := s.queryReminders(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE deleted = 0 AND reminder_time IS NOT NULL AND reminder_time <= ? AND errors <= ?
		 ORDER BY reminder_time ASC, id ASC
		 LIMIT ?`,
		toMicros(now), errorLimit, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	return reminders, nil
}

func (s *SQLite) MarkDelivered(ctx context.Context, id int64, successor *models.Reminder) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE reminders SET deleted = 1 WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to mark reminder %d delivered: %w", id, err)
		}
		if rowsAffected(res) == 0 {
			return ErrNotFound
		}
		if successor == nil {
			return nil
		}
		return insertSQLiteReminder(ctx, tx, successor)
	})
}

func (s *SQLite) Vacuum(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reminders
		 WHERE deleted = 1
		 AND id NOT IN (SELECT reminder_ref FROM conversations WHERE reminder_ref IS NOT NULL)
		 AND id NOT IN (SELECT deleted_ref FROM conversations WHERE deleted_ref IS NOT NULL)`)
	if err != nil {
		return 0, fmt.Errorf("failed to vacuum reminders: %w", err)
	}
	return rowsAffected(res), nil
}

// Users

func (s *SQLite) GetOrCreateUser(ctx context.Context, username string) (*models.User, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, settings) VALUES (?, '{}')
		 ON CONFLICT (username) DO UPDATE SET username = excluded.username
		 RETURNING settings`,
		username,
	).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", username, err)
	}
	settings, err := models.UnmarshalSettings([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode settings of %s: %w", username, err)
	}
	return &models.User{Username: username, Settings: settings}, nil
}

func (s *SQLite) SaveUserSettings(ctx context.Context, user *models.User) error {
	raw, err := models.MarshalSettings(user.Settings)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE users SET settings = ? WHERE username = ?`, string(raw), user.Username)
	if err != nil {
		return fmt.Errorf("failed to save settings of %s: %w", user.Username, err)
	}
	if rowsAffected(res) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) SetUserTimezone(ctx context.Context, username, zone string, shift time.Duration) (*models.User, error) {
	var user *models.User
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx, `SELECT settings FROM users WHERE username = ?`, username).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		settings, err := models.UnmarshalSettings([]byte(raw))
		if err != nil {
			return err
		}
		settings.Timezone = &zone
		out, err := models.MarshalSettings(settings)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE users SET settings = ? WHERE username = ?`, string(out), username); err != nil {
			return err
		}
		if shift != 0 {
			_, err = tx.ExecContext(ctx,
				`UPDATE reminders SET reminder_time = reminder_time + ?
				 WHERE username = ? AND deleted = 0 AND reminder_time IS NOT NULL`,
				shift.Microseconds(), username)
			if err != nil {
				return err
			}
		}
		user = &models.User{Username: username, Settings: settings}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set timezone of %s: %w", username, err)
	}
	return user, nil
}

func (s *SQLite) DeleteUser(ctx context.Context, username string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username); err != nil {
			return fmt.Errorf("failed to delete user %s: %w", username, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM reminders WHERE username = ?`, username); err != nil {
			return fmt.Errorf("failed to delete reminders of %s: %w", username, err)
		}
		return nil
	})
}

// Conversations

func scanSQLiteConversation(row sqlScanner) (*models.Conversation, error) {
	c := &models.Conversation{}
	var state string
	var active int64
	var topic sql.NullString
	var ref, deleted sql.NullInt64
	if err := row.Scan(&c.ID, &c.Channel, &c.IsTeam, &topic, &active, &state, &ref, &deleted, &c.Debug); err != nil {
		return nil, err
	}
	c.Context = models.ContextState(state)
	c.LastActiveTime = fromMicros(active)
	if topic.Valid {
		c.Topic = &topic.String
	}
	if ref.Valid {
		c.ReminderRef = &ref.Int64
	}
	if deleted.Valid {
		c.DeletedRef = &deleted.Int64
	}
	return c, nil
}

func (s *SQLite) GetOrCreateConversation(ctx context.Context, conv *models.Conversation) (*models.Conversation, error) {
	c, err := scanSQLiteConversation(s.db.QueryRowContext(ctx,
		`INSERT INTO conversations (id, channel, is_team, topic, context)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET channel = excluded.channel, is_team = excluded.is_team, topic = excluded.topic
		 RETURNING `+conversationColumns,
		conv.ID, conv.Channel, conv.IsTeam, conv.Topic, string(models.ContextNone),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation %s: %w", conv.ID, err)
	}
	return c, nil
}

func (s *SQLite) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	c, err := scanSQLiteConversation(s.db.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation %s: %w", id, err)
	}
	return c, nil
}

func (s *SQLite) UpdateConversation(ctx context.Context, conv *models.Conversation) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET channel = ?, is_team = ?, topic = ?, last_active_time = ?,
		 context = ?, reminder_ref = ?, deleted_ref = ?, debug = ?
		 WHERE id = ?`,
		conv.Channel, conv.IsTeam, conv.Topic, toMicros(conv.LastActiveTime),
		string(conv.Context), conv.ReminderRef, conv.DeletedRef, conv.Debug, conv.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update conversation %s: %w", conv.ID, err)
	}
	if rowsAffected(res) == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) DeleteConversation(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	return nil
}
