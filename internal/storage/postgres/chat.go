package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fdg312/coach-hub/internal/storage"
)

func (p *PostgresStorage) InsertMessage(ctx context.Context, m *storage.ChatMessage) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.UserID = strings.TrimSpace(m.UserID)
	m.Role = strings.TrimSpace(m.Role)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO chat_messages (id, user_id, role, content, intent, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := p.pool.Exec(ctx, query,
		m.ID,
		m.UserID,
		m.Role,
		m.Content,
		m.Intent,
		m.Date,
		m.CreatedAt,
	)
	return err
}

func (p *PostgresStorage) ListMessages(ctx context.Context, userID string, limit int, before *time.Time) ([]storage.ChatMessage, error) {
	userID = strings.TrimSpace(userID)
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT id, user_id, role, content, intent, date, created_at
		FROM (
			SELECT id, user_id, role, content, intent, date, created_at
			FROM chat_messages
			WHERE user_id = $1
			  AND ($2::timestamptz IS NULL OR created_at < $2)
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		) latest
		ORDER BY created_at ASC, id ASC
	`

	rows, err := p.pool.Query(ctx, query, userID, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]storage.ChatMessage, 0, limit)
	for rows.Next() {
		var msg storage.ChatMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.UserID,
			&msg.Role,
			&msg.Content,
			&msg.Intent,
			&msg.Date,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
