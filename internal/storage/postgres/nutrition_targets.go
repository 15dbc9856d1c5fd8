package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fdg312/coach-hub/internal/storage"
)

func (p *PostgresStorage) GetTargets(ctx context.Context, userID string) (*storage.NutritionTargets, error) {
	query := `
		SELECT user_id, calories_kcal, protein_g, fat_g, carbs_g, created_at, updated_at
		FROM nutrition_targets
		WHERE user_id = $1
	`

	var target storage.NutritionTargets
	err := p.pool.QueryRow(ctx, query, userID).Scan(
		&target.UserID,
		&target.CaloriesKcal,
		&target.ProteinG,
		&target.FatG,
		&target.CarbsG,
		&target.CreatedAt,
		&target.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil // not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get nutrition targets: %w", err)
	}

	return &target, nil
}

func (p *PostgresStorage) UpsertTargets(ctx context.Context, t *storage.NutritionTargets) error {
	query := `
		INSERT INTO nutrition_targets (user_id, calories_kcal, protein_g, fat_g, carbs_g)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id)
		DO UPDATE SET
			calories_kcal = EXCLUDED.calories_kcal,
			protein_g = EXCLUDED.protein_g,
			fat_g = EXCLUDED.fat_g,
			carbs_g = EXCLUDED.carbs_g,
			updated_at = now()
		RETURNING created_at, updated_at
	`

	err := p.pool.QueryRow(ctx, query,
		t.UserID,
		t.CaloriesKcal,
		t.ProteinG,
		t.FatG,
		t.CarbsG,
	).Scan(&t.CreatedAt, &t.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert nutrition targets: %w", err)
	}

	return nil
}
