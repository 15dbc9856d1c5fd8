package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fdg312/coach-hub/internal/meal"
	"github.com/fdg312/coach-hub/internal/storage"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStorage) UpsertDay(ctx context.Context, day *storage.Day) error {
	day.ID = storage.DayID(day.UserID, day.Date)
	now := formatTime(time.Now())

	query := `
        INSERT INTO days (id, user_id, date, mood_note, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            mood_note = COALESCE(excluded.mood_note, days.mood_note),
            updated_at = excluded.updated_at
    `
	if _, err := s.db.ExecContext(ctx, query, day.ID, day.UserID, day.Date, nullString(day.MoodNote), now, now); err != nil {
		return fmt.Errorf("failed to upsert day: %w", err)
	}

	stored, err := s.getDay(ctx, day.ID)
	if err != nil {
		return err
	}
	*day = *stored
	return nil
}

func (s *SQLiteStorage) getDay(ctx context.Context, id string) (*storage.Day, error) {
	var (
		d                    storage.Day
		mood                 sql.NullString
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, date, mood_note, created_at, updated_at FROM days WHERE id = ?`, id,
	).Scan(&d.ID, &d.UserID, &d.Date, &mood, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get day: %w", err)
	}
	d.MoodNote = stringPtr(mood)
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if d.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *SQLiteStorage) GetDaySnapshot(ctx context.Context, userID, date string) (*storage.DaySnapshot, error) {
	day, err := s.getDay(ctx, storage.DayID(userID, date))
	if err != nil {
		return nil, err
	}
	meals, err := s.ListMeals(ctx, userID, date, date)
	if err != nil {
		return nil, err
	}
	workouts, err := s.ListWorkouts(ctx, userID, date, date)
	if err != nil {
		return nil, err
	}
	return &storage.DaySnapshot{Day: day, Meals: meals, Workouts: workouts}, nil
}

func (s *SQLiteStorage) ensureDay(ctx context.Context, userID, date string) error {
	now := formatTime(time.Now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO days (id, user_id, date, created_at, updated_at) VALUES (?, ?, ?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		storage.DayID(userID, date), userID, date, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure day: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) UpsertMeal(ctx context.Context, m *storage.MealLog) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.DayID = storage.DayID(m.UserID, m.Date)

	if existing, err := s.mealOwner(ctx, m.ID); err != nil {
		return err
	} else if existing != "" && existing != m.UserID {
		return storage.ErrNotFound
	}

	if err := s.ensureDay(ctx, m.UserID, m.Date); err != nil {
		return err
	}

	items, err := encodeJSON(m.Items)
	if err != nil {
		return err
	}
	var totals sql.NullString
	if m.Totals != nil {
		raw, err := encodeJSON(m.Totals)
		if err != nil {
			return err
		}
		totals = sql.NullString{String: raw, Valid: true}
	}

	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	query := `
        INSERT INTO meals (id, user_id, day_id, date, meal_type, source_text, items, totals, confidence, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            day_id = excluded.day_id,
            date = excluded.date,
            meal_type = excluded.meal_type,
            source_text = excluded.source_text,
            items = excluded.items,
            totals = excluded.totals,
            confidence = excluded.confidence,
            updated_at = excluded.updated_at
    `
	_, err = s.db.ExecContext(ctx, query,
		m.ID.String(), m.UserID, m.DayID, m.Date, string(m.MealType), m.SourceText,
		items, totals, string(m.Confidence), formatTime(m.CreatedAt), formatTime(m.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert meal: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) mealOwner(ctx context.Context, id uuid.UUID) (string, error) {
	var owner string
	err := s.db.QueryRowContext(ctx, `SELECT user_id FROM meals WHERE id = ?`, id.String()).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to check meal owner: %w", err)
	}
	return owner, nil
}

const mealColumns = `id, user_id, day_id, date, meal_type, source_text, items, totals, confidence, created_at, updated_at`

func (s *SQLiteStorage) GetMeal(ctx context.Context, userID string, id uuid.UUID) (*storage.MealLog, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+mealColumns+` FROM meals WHERE id = ? AND user_id = ?`, id.String(), userID)
	m, err := scanMeal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal: %w", err)
	}
	return m, nil
}

func (s *SQLiteStorage) ListMeals(ctx context.Context, userID, from, to string) ([]storage.MealLog, error) {
	query := `SELECT ` + mealColumns + ` FROM meals WHERE user_id = ?`
	args := []any{userID}
	if from != "" {
		query += " AND date >= ?"
		args = append(args, from)
	}
	if to != "" {
		query += " AND date <= ?"
		args = append(args, to)
	}
	query += " ORDER BY date ASC, created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
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
	return meals, rows.Err()
}

func scanMeal(row rowScanner) (*storage.MealLog, error) {
	var (
		m                    storage.MealLog
		id                   string
		mealType, confidence string
		items                string
		totals               sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&id, &m.UserID, &m.DayID, &m.Date, &mealType, &m.SourceText,
		&items, &totals, &confidence, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if m.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid meal id %q: %w", id, err)
	}
	m.MealType = meal.Type(mealType)
	m.Confidence = meal.Confidence(confidence)
	if err := decodeJSON(items, &m.Items); err != nil {
		return nil, err
	}
	if totals.Valid {
		m.Totals = &meal.NutritionEstimate{}
		if err := decodeJSON(totals.String, m.Totals); err != nil {
			return nil, err
		}
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *SQLiteStorage) UpsertWorkout(ctx context.Context, w *storage.WorkoutLog) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	w.DayID = storage.DayID(w.UserID, w.Date)

	if err := s.ensureDay(ctx, w.UserID, w.Date); err != nil {
		return err
	}

	now := time.Now().UTC()
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now

	var distance sql.NullFloat64
	if w.DistanceKm != nil {
		distance = sql.NullFloat64{Float64: *w.DistanceKm, Valid: true}
	}

	query := `
        INSERT INTO workouts (id, user_id, day_id, date, type, minutes, intensity, description, status, distance_km, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            type = excluded.type,
            minutes = excluded.minutes,
            intensity = excluded.intensity,
            description = excluded.description,
            status = excluded.status,
            distance_km = excluded.distance_km,
            updated_at = excluded.updated_at
    `
	_, err := s.db.ExecContext(ctx, query,
		w.ID.String(), w.UserID, w.DayID, w.Date, w.Type, w.Minutes, w.Intensity,
		w.Description, w.Status, distance, formatTime(w.CreatedAt), formatTime(w.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert workout: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) ListWorkouts(ctx context.Context, userID, from, to string) ([]storage.WorkoutLog, error) {
	query := `
        SELECT id, user_id, day_id, date, type, minutes, intensity, description, status, distance_km, created_at, updated_at
        FROM workouts
        WHERE user_id = ?
    `
	args := []any{userID}
	if from != "" {
		query += " AND date >= ?"
		args = append(args, from)
	}
	if to != "" {
		query += " AND date <= ?"
		args = append(args, to)
	}
	query += " ORDER BY date ASC, created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workouts: %w", err)
	}
	defer rows.Close()

	workouts := []storage.WorkoutLog{}
	for rows.Next() {
		var (
			w                    storage.WorkoutLog
			id                   string
			distance             sql.NullFloat64
			createdAt, updatedAt string
		)
		if err := rows.Scan(&id, &w.UserID, &w.DayID, &w.Date, &w.Type, &w.Minutes, &w.Intensity,
			&w.Description, &w.Status, &distance, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}
		if w.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid workout id %q: %w", id, err)
		}
		if distance.Valid {
			v := distance.Float64
			w.DistanceKm = &v
		}
		if w.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if w.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}
