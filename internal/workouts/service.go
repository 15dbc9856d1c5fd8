package workouts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/userctx"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid request")
)

// Service provides weekly plan management and workout history.
type Service struct {
	plansStorage    storage.WeeklyPlansStorage
	workoutsStorage storage.WorkoutsStorage
}

// NewService creates a new workouts service.
func NewService(plansStorage storage.WeeklyPlansStorage, workoutsStorage storage.WorkoutsStorage) *Service {
	return &Service{
		plansStorage:    plansStorage,
		workoutsStorage: workoutsStorage,
	}
}

// PlanEntries returns the stored template sorted by weekday, or the default
// template when nothing is stored. The bool reports the default.
func (s *Service) PlanEntries(ctx context.Context, userID string) ([]storage.WeeklyPlanEntry, bool, error) {
	plan, err := s.plansStorage.GetWeeklyPlan(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get weekly plan: %w", err)
	}
	if plan == nil || len(plan.Entries) == 0 {
		return DefaultWeeklyPlan(), true, nil
	}

	entries := append([]storage.WeeklyPlanEntry(nil), plan.Entries...)
	sortEntries(entries)
	return entries, false, nil
}

// GetPlan returns the weekly template for the current user.
func (s *Service) GetPlan(ctx context.Context) (*PlanResponse, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	plan, err := s.plansStorage.GetWeeklyPlan(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly plan: %w", err)
	}
	if plan == nil || len(plan.Entries) == 0 {
		entries := DefaultWeeklyPlan()
		return &PlanResponse{
			Entries:      entriesToDTO(entries),
			TotalMinutes: PlanMinutes(entries),
			IsDefault:    true,
		}, nil
	}

	entries := append([]storage.WeeklyPlanEntry(nil), plan.Entries...)
	sortEntries(entries)
	updatedAt := plan.UpdatedAt
	return &PlanResponse{
		Entries:      entriesToDTO(entries),
		TotalMinutes: PlanMinutes(entries),
		UpdatedAt:    &updatedAt,
	}, nil
}

// ReplacePlan validates and stores a full weekly template.
func (s *Service) ReplacePlan(ctx context.Context, req *ReplacePlanRequest) (*PlanResponse, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	if err := ValidateReplacePlanRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	entries := entriesFromDTO(req.Entries)
	sortEntries(entries)

	plan := &storage.WeeklyPlan{UserID: userID, Entries: entries}
	if err := s.plansStorage.UpsertWeeklyPlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to save weekly plan: %w", err)
	}

	updatedAt := plan.UpdatedAt
	return &PlanResponse{
		Entries:      entriesToDTO(entries),
		TotalMinutes: PlanMinutes(entries),
		UpdatedAt:    &updatedAt,
	}, nil
}

// ListWorkouts returns logged workouts in [from, to]. Empty bounds are open.
func (s *Service) ListWorkouts(ctx context.Context, from, to string) (*ListWorkoutsResponse, error) {
	userID := userIDFromContext(ctx)
	if userID == "" {
		return nil, ErrUnauthorized
	}

	if err := ValidateDateRange(from, to); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	logs, err := s.workoutsStorage.ListWorkouts(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}

	out := make([]WorkoutDTO, 0, len(logs))
	for _, w := range logs {
		out = append(out, WorkoutToDTO(w))
	}
	return &ListWorkoutsResponse{Workouts: out}, nil
}

// NewLog turns a parsed workout into a log record for the given day.
func NewLog(userID, date string, p Parsed) storage.WorkoutLog {
	w := storage.WorkoutLog{
		ID:          uuid.New(),
		UserID:      userID,
		DayID:       storage.DayID(userID, date),
		Date:        date,
		Type:        p.Type,
		Minutes:     p.Minutes,
		Intensity:   p.Intensity,
		Description: p.Description,
		Status:      p.Status,
	}
	if p.Distance != nil {
		km := p.Distance.Km()
		w.DistanceKm = &km
	}
	return w
}

func userIDFromContext(ctx context.Context) string {
	userID, _ := userctx.GetUserID(ctx)
	return strings.TrimSpace(userID)
}
