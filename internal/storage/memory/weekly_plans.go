package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
)

type weeklyPlansStorage struct {
	mu    sync.RWMutex
	plans map[string]storage.WeeklyPlan
}

func newWeeklyPlansStorage() *weeklyPlansStorage {
	return &weeklyPlansStorage{plans: make(map[string]storage.WeeklyPlan)}
}

func (s *weeklyPlansStorage) GetWeeklyPlan(ctx context.Context, userID string) (*storage.WeeklyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[userID]
	if !ok {
		return nil, nil
	}
	p.Entries = append([]storage.WeeklyPlanEntry{}, p.Entries...)
	return &p, nil
}

func (s *weeklyPlansStorage) UpsertWeeklyPlan(ctx context.Context, plan *storage.WeeklyPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.plans[plan.UserID]; ok {
		plan.CreatedAt = existing.CreatedAt
	} else {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	stored := *plan
	stored.Entries = append([]storage.WeeklyPlanEntry{}, plan.Entries...)
	s.plans[plan.UserID] = stored
	return nil
}
