package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hray3182/RemindMe/internal/database"
	"github.com/hray3182/RemindMe/internal/models"
)

// Postgres is the Store backed by a pgx pool.
type Postgres struct {
	db *database.DB
}

func NewPostgres(db *database.DB) *Postgres {
	return &Postgres{db: db}
}

const reminderColumns = `id, reminder_time, created_time, body, username, conv_id, deleted, repetition_interval, repetition_nth, errors`

func scanReminder(row pgx.Row) (*models.Reminder, error) {
	r := &models.Reminder{}
	var interval *string
	var nth *int
	if err := row.Scan(&r.ID, &r.Time, &r.CreatedTime, &r.Body, &r.Username, &r.ConvID,
		&r.Deleted, &interval, &nth, &r.Errors); err != nil {
		return nil, err
	}
	r.Time = utcPtr(r.Time)
	r.CreatedTime = r.CreatedTime.UTC()
	r.Recurrence = recurrenceFromColumns(interval, nth)
	return r, nil
}

func collectReminders(rows pgx.Rows) ([]*models.Reminder, error) {
	defer rows.Close()

	var reminders []*models.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

func (p *Postgres) CreateReminder(ctx context.Context, r *models.Reminder) error {
	return insertReminder(ctx, p.db.Pool, r)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertReminder(ctx context.Context, q queryRower, r *models.Reminder) error {
	interval, nth := recurrenceColumns(r.Recurrence)
	err := q.QueryRow(ctx,
		`INSERT INTO reminders (reminder_time, created_time, body, username, conv_id, deleted, repetition_interval, repetition_nth, errors)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		utcPtr(r.Time), r.CreatedTime.UTC(), r.Body, r.Username, r.ConvID, r.Deleted, interval, nth, r.Errors,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("failed to insert reminder: %w", err)
	}
	return nil
}

func (p *Postgres) GetReminder(ctx context.Context, id int64) (*models.Reminder, error) {
	r, err := scanReminder(p.db.Pool.QueryRow(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder %d: %w", id, err)
	}
	return r, nil
}

func (p *Postgres) UpdateReminder(ctx context.Context, r *models.Reminder) error {
	interval, nth := recurrenceColumns(r.Recurrence)
	tag, err := p.db.Pool.Exec(ctx,
		`UPDATE reminders SET reminder_time = $1, body = $2, deleted = $3, repetition_interval = $4, repetition_nth = $5, errors = $6
		 WHERE id = $7`,
		utcPtr(r.Time), r.Body, r.Deleted, interval, nth, r.Errors, r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update reminder %d: %w", r.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) SetReminderDeleted(ctx context.Context, id int64, deleted bool) error {
	tag, err := p.db.Pool.Exec(ctx, `UPDATE reminders SET deleted = $1 WHERE id = $2`, deleted, id)
	if err != nil {
		return fmt.Errorf("failed to set deleted on reminder %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) IncrementErrors(ctx context.Context, id int64) error {
	_, err := p.db.Pool.Exec(ctx, `UPDATE reminders SET errors = errors + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to count error on reminder %d: %w", id, err)
	}
	return nil
}

func (p *Postgres) ListUpcoming(ctx context.Context, convID string, now time.Time) ([]*models.Reminder, error) {
	rows, err := p.db.Pool.Query(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE conv_id = $1 AND deleted = FALSE AND reminder_time IS NOT NULL AND reminder_time >= $2
		 ORDER BY reminder_time ASC, id ASC`,
		convID, now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return collectReminders(rows)
}

func (p *Postgres) DueReminders(ctx context.Context, now time.Time, errorLimit, limit int) ([]*models.Reminder, error) {
	rows, err := p.db.Pool.Query(ctx,
		`SELECT `+reminderColumns+` FROM reminders
		 WHERE deleted = FALSE AND reminder_time IS NOT NULL AND reminder_time <= $1 AND errors <= $2
		 ORDER BY reminder_time ASC, id ASC
		 LIMIT $3`,
		now.UTC(), errorLimit, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	return collectReminders(rows)
}

func (p *Postgres) MarkDelivered(ctx context.Context, id int64, successor *models.Reminder) error {
	return pgx.BeginFunc(ctx, p.db.Pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE reminders SET deleted = TRUE WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to mark reminder %d delivered: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if successor == nil {
			return nil
		}
		return insertReminder(ctx, tx, successor)
	})
}

func (p *Postgres) Vacuum(ctx context.Context) (int64, error) {
	tag, err := p.db.Pool.Exec(ctx,
		`DELETE FROM reminders
		 WHERE deleted = TRUE
		 AND id NOT IN (SELECT reminder_ref FROM conversations WHERE reminder_ref IS NOT NULL)
		 AND id NOT IN (SELECT deleted_ref FROM conversations WHERE deleted_ref IS NOT NULL)`)
	if err != nil {
		return 0, fmt.Errorf("failed to vacuum reminders: %w", err)
	}
	return tag.RowsAffected(), nil
}
