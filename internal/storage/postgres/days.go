package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fdg312/coach-hub/internal/meal"
	"github.com/fdg312/coach-hub/internal/storage"
)

const mealColumns = `id, user_id, day_id, date, meal_type, source_text, items, totals, confidence, created_at, updated_at`

const workoutColumns = `id, user_id, day_id, date, type, minutes, intensity, description, status, distance_km, created_at, updated_at`

func (p *PostgresStorage) UpsertDay(ctx context.Context, day *storage.Day) error {
	day.ID = storage.DayID(day.UserID, day.Date)

	const query = `
		INSERT INTO days (id, user_id, date, mood_note)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id)
		DO UPDATE SET
			mood_note = COALESCE(EXCLUDED.mood_note, days.mood_note),
			updated_at = now()
		RETURNING mood_note, created_at, updated_at
	`

	err := p.pool.QueryRow(ctx, query, day.ID, day.UserID, day.Date, day.MoodNote).
		Scan(&day.MoodNote, &day.CreatedAt, &day.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert day: %w", err)
	}
	return nil
}

func (p *PostgresStorage) GetDaySnapshot(ctx context.Context, userID, date string) (*storage.DaySnapshot, error) {
	snap := &storage.DaySnapshot{}

	const dayQuery = `
		SELECT id, user_id, date, mood_note, created_at, updated_at
		FROM days
		WHERE id = $1
	`
	var d storage.Day
	err := p.pool.QueryRow(ctx, dayQuery, storage.DayID(userID, date)).
		Scan(&d.ID, &d.UserID, &d.Date, &d.MoodNote, &d.CreatedAt, &d.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("failed to get day: %w", err)
	default:
		snap.Day = &d
	}

	meals, err := p.ListMeals(ctx, userID, date, date)
	if err != nil {
		return nil, err
	}
	workouts, err := p.ListWorkouts(ctx, userID, date, date)
	if err != nil {
		return nil, err
	}

	snap.Meals = meals
	snap.Workouts = workouts
	return snap, nil
}

func (p *PostgresStorage) UpsertMeal(ctx context.Context, m *storage.MealLog) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.DayID = storage.DayID(m.UserID, m.Date)

	if err := p.ensureDay(ctx, m.UserID, m.Date); err != nil {
		return err
	}

	items, err := marshalJSON(m.Items)
	if err != nil {
		return err
	}
	var totals []byte
	if m.Totals != nil {
		if totals, err = marshalJSON(m.Totals); err != nil {
			return err
		}
	}

	const query = `
		INSERT INTO meals (id, user_id, day_id, date, meal_type, source_text, items, totals, confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id)
		DO UPDATE SET
			day_id = EXCLUDED.day_id,
			date = EXCLUDED.date,
			meal_type = EXCLUDED.meal_type,
			source_text = EXCLUDED.source_text,
			items = EXCLUDED.items,
			totals = EXCLUDED.totals,
			confidence = EXCLUDED.confidence,
			updated_at = now()
		WHERE meals.user_id = EXCLUDED.user_id
		RETURNING created_at, updated_at
	`

	err = p.pool.QueryRow(ctx, query,
		m.ID,
		m.UserID,
		m.DayID,
		m.Date,
		string(m.MealType),
		m.SourceText,
		items,
		totals,
		string(m.Confidence),
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// id занят приёмом пищи другого пользователя
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to upsert meal: %w", err)
	}
	return nil
}

func (p *PostgresStorage) GetMeal(ctx context.Context, userID string, id uuid.UUID) (*storage.MealLog, error) {
	query := `SELECT ` + mealColumns + ` FROM meals WHERE id = $1 AND user_id = $2`

	m, err := scanMeal(p.pool.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal: %w", err)
	}
	return m, nil
}

func (p *PostgresStorage) ListMeals(ctx context.Context, userID, from, to string) ([]storage.MealLog, error) {
	query := `
		SELECT ` + mealColumns + `
		FROM meals
		WHERE user_id = $1
		  AND ($2 = '' OR date >= $2)
		  AND ($3 = '' OR date <= $3)
		ORDER BY date ASC, created_at ASC
	`

	rows, err := p.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	defer rows.Close()

	meals := []storage.MealLog{}
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		meals = append(meals, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	return meals, nil
}

func (p *PostgresStorage) UpsertWorkout(ctx context.Context, w *storage.WorkoutLog) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	w.DayID = storage.DayID(w.UserID, w.Date)

	if err := p.ensureDay(ctx, w.UserID, w.Date); err != nil {
		return err
	}

	const query = `
		INSERT INTO workouts (id, user_id, day_id, date, type, minutes, intensity, description, status, distance_km)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id)
		DO UPDATE SET
			type = EXCLUDED.type,
			minutes = EXCLUDED.minutes,
			intensity = EXCLUDED.intensity,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			distance_km = EXCLUDED.distance_km,
			updated_at = now()
		RETURNING created_at, updated_at
	`

	err := p.pool.QueryRow(ctx, query,
		w.ID,
		w.UserID,
		w.DayID,
		w.Date,
		w.Type,
		w.Minutes,
		w.Intensity,
		w.Description,
		w.Status,
		w.DistanceKm,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert workout: %w", err)
	}
	return nil
}

func (p *PostgresStorage) ListWorkouts(ctx context.Context, userID, from, to string) ([]storage.WorkoutLog, error) {
	query := `
		SELECT ` + workoutColumns + `
		FROM workouts
		WHERE user_id = $1
		  AND ($2 = '' OR date >= $2)
		  AND ($3 = '' OR date <= $3)
		ORDER BY date ASC, created_at ASC
	`

	rows, err := p.pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}
	defer rows.Close()

	workouts := []storage.WorkoutLog{}
	for rows.Next() {
		var w storage.WorkoutLog
		if err := rows.Scan(
			&w.ID,
			&w.UserID,
			&w.DayID,
			&w.Date,
			&w.Type,
			&w.Minutes,
			&w.Intensity,
			&w.Description,
			&w.Status,
			&w.DistanceKm,
			&w.CreatedAt,
			&w.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}
	return workouts, nil
}

func scanMeal(row pgx.Row) (*storage.MealLog, error) {
	var (
		m          storage.MealLog
		mealType   string
		confidence string
		items      []byte
		totals     []byte
	)
	if err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.DayID,
		&m.Date,
		&mealType,
		&m.SourceText,
		&items,
		&totals,
		&confidence,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}

	m.MealType = meal.Type(mealType)
	m.Confidence = meal.Confidence(confidence)
	if err := unmarshalJSON(items, &m.Items); err != nil {
		return nil, err
	}
	if len(totals) > 0 {
		m.Totals = &meal.NutritionEstimate{}
		if err := unmarshalJSON(totals, m.Totals); err != nil {
			return nil, err
		}
	}
	return &m, nil
}
