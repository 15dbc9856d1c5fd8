package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
)

type nutritionTargetsStorage struct {
	mu      sync.RWMutex
	targets map[string]*storage.NutritionTargets // key: userID
}

func newNutritionTargetsStorage() *nutritionTargetsStorage {
	return &nutritionTargetsStorage{
		targets: make(map[string]*storage.NutritionTargets),
	}
}

func (s *nutritionTargetsStorage) GetTargets(ctx context.Context, userID string) (*storage.NutritionTargets, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	target, ok := s.targets[userID]
	if !ok {
		return nil, nil // not found, return nil without error
	}

	// Return a copy
	copied := *target
	return &copied, nil
}

func (s *nutritionTargetsStorage) UpsertTargets(ctx context.Context, t *storage.NutritionTargets) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	existing, ok := s.targets[t.UserID]
	if ok {
		// Update existing
		existing.CaloriesKcal = t.CaloriesKcal
		existing.ProteinG = t.ProteinG
		existing.FatG = t.FatG
		existing.CarbsG = t.CarbsG
		existing.UpdatedAt = now

		*t = *existing
		return nil
	}

	// Create new
	t.CreatedAt = now
	t.UpdatedAt = now
	copied := *t
	s.targets[t.UserID] = &copied
	return nil
}
