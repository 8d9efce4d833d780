package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hray3182/RemindMe/internal/models"
)

func (p *Postgres) GetOrCreateUser(ctx context.Context, username string) (*models.User, error) {
	var raw []byte
	err := p.db.Pool.QueryRow(ctx,
		`INSERT INTO users (username, settings) VALUES ($1, '{}'::jsonb)
		 ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username
		 RETURNING settings`,
		username,
	).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", username, err)
	}
	settings, err := models.UnmarshalSettings(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode settings of %s: %w", username, err)
	}
	return &models.User{Username: username, Settings: settings}, nil
}

func (p *Postgres) SaveUserSettings(ctx context.Context, user *models.User) error {
	raw, err := models.MarshalSettings(user.Settings)
	if err != nil {
		return err
	}
	tag, err := p.db.Pool.Exec(ctx,
		`UPDATE users SET settings = $1::jsonb WHERE username = $2`, string(raw), user.Username)
	if err != nil {
		return fmt.Errorf("failed to save settings of %s: %w", user.Username, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) SetUserTimezone(ctx context.Context, username, zone string, shift time.Duration) (*models.User, error) {
	var user *models.User
	err := pgx.BeginFunc(ctx, p.db.Pool, func(tx pgx.Tx) error {
		var raw []byte
		err := tx.QueryRow(ctx, `SELECT settings FROM users WHERE username = $1 FOR UPDATE`, username).Scan(&raw)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		settings, err := models.UnmarshalSettings(raw)
		if err != nil {
			return err
		}
		settings.Timezone = &zone
		raw, err = models.MarshalSettings(settings)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE users SET settings = $1::jsonb WHERE username = $2`, string(raw), username); err != nil {
			return err
		}
		if shift != 0 {
			_, err = tx.Exec(ctx,
				`UPDATE reminders SET reminder_time = reminder_time + ($1::bigint * INTERVAL '1 microsecond')
				 WHERE username = $2 AND deleted = FALSE AND reminder_time IS NOT NULL`,
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

func (p *Postgres) DeleteUser(ctx context.Context, username string) error {
	return pgx.BeginFunc(ctx, p.db.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM users WHERE username = $1`, username); err != nil {
			return fmt.Errorf("failed to delete user %s: %w", username, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM reminders WHERE username = $1`, username); err != nil {
			return fmt.Errorf("failed to delete reminders of %s: %w", username, err)
		}
		return nil
	})
}
