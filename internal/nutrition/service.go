package nutrition

import (
	"context"
	"fmt"

	"github.com/fdg312/coach-hub/internal/storage"
)

// Service handles nutrition targets business logic.
type Service struct {
	targetsStorage storage.NutritionTargetsStorage
}

// NewService creates a new nutrition service.
func NewService(targetsStorage storage.NutritionTargetsStorage) *Service {
	return &Service{targetsStorage: targetsStorage}
}

// GetOrDefault returns the user's targets, or the defaults if none are stored.
func (s *Service) GetOrDefault(ctx context.Context, userID string) (TargetsDTO, bool, error) {
	target, err := s.targetsStorage.GetTargets(ctx, userID)
	if err != nil {
		return TargetsDTO{}, false, fmt.Errorf("failed to get nutrition targets: %w", err)
	}

	if target == nil {
		return DefaultTargets(), true, nil
	}

	return toDTO(target), false, nil
}

// Upsert creates or updates the user's targets.
func (s *Service) Upsert(ctx context.Context, userID string, req UpsertTargetsRequest) (TargetsDTO, error) {
	if err := req.Validate(); err != nil {
		return TargetsDTO{}, fmt.Errorf("%w: %v", ErrInvalidTargets, err)
	}

	target := &storage.NutritionTargets{
		UserID:       userID,
		CaloriesKcal: req.CaloriesKcal,
		ProteinG:     req.ProteinG,
		FatG:         req.FatG,
		CarbsG:       req.CarbsG,
	}
	if err := s.targetsStorage.UpsertTargets(ctx, target); err != nil {
		return TargetsDTO{}, fmt.Errorf("failed to upsert nutrition targets: %w", err)
	}

	return toDTO(target), nil
}
