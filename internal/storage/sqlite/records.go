package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fdg312/coach-hub/internal/storage"
)

func (s *SQLiteStorage) GetProfile(ctx context.Context, userID string) (*storage.Profile, error) {
	var (
		p                    storage.Profile
		completed            int
		answers, insights    string
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
        SELECT user_id, name, onboarding_step, onboarding_completed, answers, summary, goal, insights, created_at, updated_at
        FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.Name, &p.OnboardingStep, &completed, &answers, &p.Summary, &p.Goal, &insights, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	p.OnboardingCompleted = completed != 0
	p.Answers = map[string]string{}
	if err := decodeJSON(answers, &p.Answers); err != nil {
		return nil, err
	}
	p.Insights = []string{}
	if err := decodeJSON(insights, &p.Insights); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLiteStorage) UpsertProfile(ctx context.Context, p *storage.Profile) error {
	answers := p.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	answersJSON, err := encodeJSON(answers)
	if err != nil {
		return err
	}
	insights := p.Insights
	if insights == nil {
		insights = []string{}
	}
	insightsJSON, err := encodeJSON(insights)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	completed := 0
	if p.OnboardingCompleted {
		completed = 1
	}

	_, err = s.db.ExecContext(ctx, `
        INSERT INTO profiles (user_id, name, onboarding_step, onboarding_completed, answers, summary, goal, insights, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(user_id) DO UPDATE SET
            name = excluded.name,
            onboarding_step = excluded.onboarding_step,
            onboarding_completed = excluded.onboarding_completed,
            answers = excluded.answers,
            summary = excluded.summary,
            goal = excluded.goal,
            insights = excluded.insights,
            updated_at = excluded.updated_at`,
		p.UserID, p.Name, p.OnboardingStep, completed, answersJSON, p.Summary, p.Goal, insightsJSON,
		formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) InsertMessage(ctx context.Context, m *storage.ChatMessage) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.UserID = strings.TrimSpace(m.UserID)
	m.Role = strings.TrimSpace(m.Role)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	// seq сохраняет порядок вставки для сообщений с одинаковым created_at
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO chat_messages (id, user_id, role, content, intent, date, created_at, seq)
        VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM chat_messages))`,
		m.ID.String(), m.UserID, m.Role, m.Content, m.Intent, m.Date, formatTime(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert chat message: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) ListMessages(ctx context.Context, userID string, limit int, before *time.Time) ([]storage.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	inner := `SELECT id, user_id, role, content, intent, date, created_at, seq FROM chat_messages WHERE user_id = ?`
	args := []any{strings.TrimSpace(userID)}
	if before != nil {
		inner += " AND created_at < ?"
		args = append(args, formatTime(*before))
	}
	query := `SELECT id, user_id, role, content, intent, date, created_at FROM (` +
		inner + ` ORDER BY seq DESC LIMIT ?) ORDER BY seq ASC`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer rows.Close()

	messages := []storage.ChatMessage{}
	for rows.Next() {
		var (
			m             storage.ChatMessage
			id, createdAt string
		)
		if err := rows.Scan(&id, &m.UserID, &m.Role, &m.Content, &m.Intent, &m.Date, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		if m.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid message id %q: %w", id, err)
		}
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *SQLiteStorage) GetWeeklyPlan(ctx context.Context, userID string) (*storage.WeeklyPlan, error) {
	var (
		plan                 storage.WeeklyPlan
		entries              string
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, entries, created_at, updated_at FROM weekly_plans WHERE user_id = ?`, userID,
	).Scan(&plan.UserID, &entries, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly plan: %w", err)
	}

	plan.Entries = []storage.WeeklyPlanEntry{}
	if err := decodeJSON(entries, &plan.Entries); err != nil {
		return nil, err
	}
	if plan.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if plan.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (s *SQLiteStorage) UpsertWeeklyPlan(ctx context.Context, plan *storage.WeeklyPlan) error {
	entries, err := encodeJSON(plan.Entries)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `
        INSERT INTO weekly_plans (user_id, entries, created_at, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(user_id) DO UPDATE SET
            entries = excluded.entries,
            updated_at = excluded.updated_at`,
		plan.UserID, entries, formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("failed to upsert weekly plan: %w", err)
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) GetTargets(ctx context.Context, userID string) (*storage.NutritionTargets, error) {
	var (
		t                    storage.NutritionTargets
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
        SELECT user_id, calories_kcal, protein_g, fat_g, carbs_g, created_at, updated_at
        FROM nutrition_targets WHERE user_id = ?`, userID,
	).Scan(&t.UserID, &t.CaloriesKcal, &t.ProteinG, &t.FatG, &t.CarbsG, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get nutrition targets: %w", err)
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLiteStorage) UpsertTargets(ctx context.Context, t *storage.NutritionTargets) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO nutrition_targets (user_id, calories_kcal, protein_g, fat_g, carbs_g, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(user_id) DO UPDATE SET
            calories_kcal = excluded.calories_kcal,
            protein_g = excluded.protein_g,
            fat_g = excluded.fat_g,
            carbs_g = excluded.carbs_g,
            updated_at = excluded.updated_at`,
		t.UserID, t.CaloriesKcal, t.ProteinG, t.FatG, t.CarbsG, formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("failed to upsert nutrition targets: %w", err)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	return nil
}

const reportColumns = `id, user_id, format, from_date, to_date, object_key, size_bytes, status, error, data, created_at, updated_at`

func (s *SQLiteStorage) CreateReport(ctx context.Context, r *storage.ReportMeta) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `INSERT INTO reports (`+reportColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.UserID, r.Format, r.FromDate, r.ToDate, nullString(r.ObjectKey), r.SizeBytes,
		r.Status, nullString(r.Error), r.Data, formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetReport(ctx context.Context, id uuid.UUID) (*storage.ReportMeta, error) {
	r, err := scanReport(s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return r, nil
}

func (s *SQLiteStorage) ListReports(ctx context.Context, userID string, limit, offset int) ([]storage.ReportMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []storage.ReportMeta{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		r.Data = nil
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

func (s *SQLiteStorage) DeleteReport(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanReport(row rowScanner) (*storage.ReportMeta, error) {
	var (
		r                    storage.ReportMeta
		id                   string
		objectKey, errMsg    sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&id, &r.UserID, &r.Format, &r.FromDate, &r.ToDate, &objectKey, &r.SizeBytes,
		&r.Status, &errMsg, &r.Data, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if r.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid report id %q: %w", id, err)
	}
	r.ObjectKey = stringPtr(objectKey)
	r.Error = stringPtr(errMsg)
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}
