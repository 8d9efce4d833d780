package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hray3182/RemindMe/internal/models"
)

const conversationColumns = `id, channel, is_team, topic, last_active_time, context, reminder_ref, deleted_ref, debug`

func scanConversation(row pgx.Row) (*models.Conversation, error) {
	c := &models.Conversation{}
	var state string
	if err := row.Scan(&c.ID, &c.Channel, &c.IsTeam, &c.Topic, &c.LastActiveTime, &state, &c.ReminderRef, &c.DeletedRef, &c.Debug); err != nil {
		return nil, err
	}
	c.Context = models.ContextState(state)
	c.LastActiveTime = c.LastActiveTime.UTC()
	return c, nil
}

func (p *Postgres) GetOrCreateConversation(ctx context.Context, conv *models.Conversation) (*models.Conversation, error) {
	c, err := scanConversation(p.db.Pool.QueryRow(ctx,
		`INSERT INTO conversations (id, channel, is_team, topic, context)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET channel = EXCLUDED.channel, is_team = EXCLUDED.is_team, topic = EXCLUDED.topic
		 RETURNING `+conversationColumns,
		conv.ID, conv.Channel, conv.IsTeam, conv.Topic, string(models.ContextNone),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation %s: %w", conv.ID, err)
	}
	return c, nil
}

func (p *Postgres) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	c, err := scanConversation(p.db.Pool.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation %s: %w", id, err)
	}
	return c, nil
}

func (p *Postgres) UpdateConversation(ctx context.Context, conv *models.Conversation) error {
	tag, err := p.db.Pool.Exec(ctx,
		`UPDATE conversations SET channel = $1, is_team = $2, topic = $3, last_active_time = $4,
		 context = $5, reminder_ref = $6, deleted_ref = $7, debug = $8
		 WHERE id = $9`,
		conv.Channel, conv.IsTeam, conv.Topic, conv.LastActiveTime.UTC(),
		string(conv.Context), conv.ReminderRef, conv.DeletedRef, conv.Debug, conv.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update conversation %s: %w", conv.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeleteConversation(ctx context.Context, id string) error {
	_, err := p.db.Pool.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	return nil
}
