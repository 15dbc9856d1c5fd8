package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fdg312/coach-hub/internal/storage"
)

func (p *PostgresStorage) GetWeeklyPlan(ctx context.Context, userID string) (*storage.WeeklyPlan, error) {
	const query = `
		SELECT user_id, entries, created_at, updated_at
		FROM weekly_plans
		WHERE user_id = $1
	`

	var (
		plan    storage.WeeklyPlan
		entries []byte
	)
	err := p.pool.QueryRow(ctx, query, userID).Scan(&plan.UserID, &entries, &plan.CreatedAt, &plan.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly plan: %w", err)
	}

	plan.Entries = []storage.WeeklyPlanEntry{}
	if err := unmarshalJSON(entries, &plan.Entries); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (p *PostgresStorage) UpsertWeeklyPlan(ctx context.Context, plan *storage.WeeklyPlan) error {
	entries, err := marshalJSON(plan.Entries)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO weekly_plans (user_id, entries)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET
			entries = EXCLUDED.entries,
			updated_at = now()
		RETURNING created_at, updated_at
	`

	if err := p.pool.QueryRow(ctx, query, plan.UserID, entries).Scan(&plan.CreatedAt, &plan.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert weekly plan: %w", err)
	}
	return nil
}
