package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fdg312/coach-hub/internal/storage"
)

func (p *PostgresStorage) GetProfile(ctx context.Context, userID string) (*storage.Profile, error) {
	const query = `
		SELECT user_id, name, onboarding_step, onboarding_completed, answers, summary, goal, insights, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	var (
		prof     storage.Profile
		answers  []byte
		insights []byte
	)
	err := p.pool.QueryRow(ctx, query, userID).Scan(
		&prof.UserID,
		&prof.Name,
		&prof.OnboardingStep,
		&prof.OnboardingCompleted,
		&answers,
		&prof.Summary,
		&prof.Goal,
		&insights,
		&prof.CreatedAt,
		&prof.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	prof.Answers = map[string]string{}
	if err := unmarshalJSON(answers, &prof.Answers); err != nil {
		return nil, err
	}
	prof.Insights = []string{}
	if err := unmarshalJSON(insights, &prof.Insights); err != nil {
		return nil, err
	}
	return &prof, nil
}

func (p *PostgresStorage) UpsertProfile(ctx context.Context, prof *storage.Profile) error {
	answers := prof.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	answersJSON, err := marshalJSON(answers)
	if err != nil {
		return err
	}
	insights := prof.Insights
	if insights == nil {
		insights = []string{}
	}
	insightsJSON, err := marshalJSON(insights)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO profiles (user_id, name, onboarding_step, onboarding_completed, answers, summary, goal, insights)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id)
		DO UPDATE SET
			name = EXCLUDED.name,
			onboarding_step = EXCLUDED.onboarding_step,
			onboarding_completed = EXCLUDED.onboarding_completed,
			answers = EXCLUDED.answers,
			summary = EXCLUDED.summary,
			goal = EXCLUDED.goal,
			insights = EXCLUDED.insights,
			updated_at = now()
		RETURNING created_at, updated_at
	`

	err = p.pool.QueryRow(ctx, query,
		prof.UserID,
		prof.Name,
		prof.OnboardingStep,
		prof.OnboardingCompleted,
		answersJSON,
		prof.Summary,
		prof.Goal,
		insightsJSON,
	).Scan(&prof.CreatedAt, &prof.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}
