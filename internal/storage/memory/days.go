package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fdg312/coach-hub/internal/meal"
	"github.com/fdg312/coach-hub/internal/storage"
)

func (s *daysStorage) UpsertDay(ctx context.Context, day *storage.Day) error {
	if day.UserID == "" || day.Date == "" {
		return fmt.Errorf("day requires user_id and date")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	day.ID = storage.DayID(day.UserID, day.Date)
	now := time.Now().UTC()

	if existing, ok := s.days[day.ID]; ok {
		day.CreatedAt = existing.CreatedAt
		if day.MoodNote == nil {
			day.MoodNote = existing.MoodNote
		}
	} else {
		day.CreatedAt = now
	}
	day.UpdatedAt = now

	s.days[day.ID] = *day
	return nil
}

func (s *daysStorage) GetDaySnapshot(ctx context.Context, userID, date string) (*storage.DaySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &storage.DaySnapshot{
		Meals:    []storage.MealLog{},
		Workouts: []storage.WorkoutLog{},
	}
	if d, ok := s.days[storage.DayID(userID, date)]; ok {
		copied := d
		snap.Day = &copied
	}

	for _, m := range s.meals {
		if m.UserID == userID && m.Date == date {
			snap.Meals = append(snap.Meals, cloneMeal(m))
		}
	}
	for _, w := range s.workouts {
		if w.UserID == userID && w.Date == date {
			snap.Workouts = append(snap.Workouts, w)
		}
	}

	sortMeals(snap.Meals)
	sortWorkouts(snap.Workouts)
	return snap, nil
}

func (s *daysStorage) UpsertMeal(ctx context.Context, m *storage.MealLog) error {
	if m.UserID == "" || m.Date == "" {
		return fmt.Errorf("meal requires user_id and date")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.DayID = storage.DayID(m.UserID, m.Date)

	now := time.Now().UTC()
	if existing, ok := s.meals[m.ID.String()]; ok {
		if existing.UserID != m.UserID {
			return storage.ErrNotFound
		}
		m.CreatedAt = existing.CreatedAt
	} else if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	s.ensureDayLocked(m.UserID, m.Date, now)

	s.meals[m.ID.String()] = cloneMeal(*m)
	return nil
}

func (s *daysStorage) GetMeal(ctx context.Context, userID string, id uuid.UUID) (*storage.MealLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.meals[id.String()]
	if !ok || m.UserID != userID {
		return nil, storage.ErrNotFound
	}
	copied := cloneMeal(m)
	return &copied, nil
}

func (s *daysStorage) ListMeals(ctx context.Context, userID, from, to string) ([]storage.MealLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []storage.MealLog{}
	for _, m := range s.meals {
		if m.UserID == userID && inRange(m.Date, from, to) {
			out = append(out, cloneMeal(m))
		}
	}
	sortMeals(out)
	return out, nil
}

func (s *daysStorage) UpsertWorkout(ctx context.Context, w *storage.WorkoutLog) error {
	if w.UserID == "" || w.Date == "" {
		return fmt.Errorf("workout requires user_id and date")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	w.DayID = storage.DayID(w.UserID, w.Date)

	now := time.Now().UTC()
	if existing, ok := s.workouts[w.ID.String()]; ok {
		w.CreatedAt = existing.CreatedAt
	} else if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	w.UpdatedAt = now
	s.ensureDayLocked(w.UserID, w.Date, now)

	s.workouts[w.ID.String()] = *w
	return nil
}

func (s *daysStorage) ListWorkouts(ctx context.Context, userID, from, to string) ([]storage.WorkoutLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []storage.WorkoutLog{}
	for _, w := range s.workouts {
		if w.UserID == userID && inRange(w.Date, from, to) {
			out = append(out, w)
		}
	}
	sortWorkouts(out)
	return out, nil
}

// ensureDayLocked заводит пустой день; вызывается под s.mu.
func (s *daysStorage) ensureDayLocked(userID, date string, now time.Time) {
	id := storage.DayID(userID, date)
	if _, ok := s.days[id]; ok {
		return
	}
	s.days[id] = storage.Day{ID: id, UserID: userID, Date: date, CreatedAt: now, UpdatedAt: now}
}

// inRange сравнивает даты YYYY-MM-DD лексикографически; пустая граница не ограничивает.
func inRange(date, from, to string) bool {
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}

func sortMeals(meals []storage.MealLog) {
	sort.Slice(meals, func(i, j int) bool {
		if meals[i].Date != meals[j].Date {
			return meals[i].Date < meals[j].Date
		}
		return meals[i].CreatedAt.Before(meals[j].CreatedAt)
	})
}

func sortWorkouts(workouts []storage.WorkoutLog) {
	sort.Slice(workouts, func(i, j int) bool {
		if workouts[i].Date != workouts[j].Date {
			return workouts[i].Date < workouts[j].Date
		}
		return workouts[i].CreatedAt.Before(workouts[j].CreatedAt)
	})
}

func cloneMeal(m storage.MealLog) storage.MealLog {
	out := m
	out.Items = append([]meal.Item(nil), m.Items...)
	if m.Totals != nil {
		t := *m.Totals
		out.Totals = &t
	}
	return out
}
