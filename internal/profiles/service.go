package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fdg312/coach-hub/internal/coach"
	"github.com/fdg312/coach-hub/internal/storage"
	"github.com/fdg312/coach-hub/internal/userctx"
)

const maxNameLength = 40

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrEmptyName    = errors.New("name cannot be empty")
	ErrNameTooLong  = errors.New("name too long")
)

type Service struct {
	storage storage.ProfilesStorage
}

func NewService(st storage.ProfilesStorage) *Service {
	return &Service{storage: st}
}

// GetProfile returns the caller's profile, creating an empty one at onboarding
// step 0 on first access.
func (s *Service) GetProfile(ctx context.Context) (*ProfileDTO, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.ensureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	dto := toDTO(*p)
	return &dto, nil
}

// UpdateProfile renames the caller.
func (s *Service) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*ProfileDTO, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if len(name) > maxNameLength {
		return nil, fmt.Errorf("%w: max %d chars", ErrNameTooLong, maxNameLength)
	}

	p, err := s.ensureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.Name = name
	if p.Answers == nil {
		p.Answers = map[string]string{}
	}
	if !p.OnboardingCompleted && p.Answers["name"] != "" {
		p.Answers["name"] = name
	}

	if err := s.storage.UpsertProfile(ctx, p); err != nil {
		return nil, err
	}

	dto := toDTO(*p)
	return &dto, nil
}

// ResetOnboarding puts the caller back at step 0. Insights are kept.
func (s *Service) ResetOnboarding(ctx context.Context) (*ResetResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.ensureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	reset := coach.ResetOnboarding(*p)
	if err := s.storage.UpsertProfile(ctx, &reset); err != nil {
		return nil, err
	}

	return &ResetResponse{
		Profile:  toDTO(reset),
		Question: coach.WelcomeQuestion,
	}, nil
}

func (s *Service) ensureProfile(ctx context.Context, userID string) (*storage.Profile, error) {
	p, err := s.storage.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	p = &storage.Profile{UserID: userID, Answers: map[string]string{}}
	if err := s.storage.UpsertProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func toDTO(p storage.Profile) ProfileDTO {
	answers := p.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	insights := p.Insights
	if insights == nil {
		insights = []string{}
	}
	return ProfileDTO{
		UserID:              p.UserID,
		Name:                p.Name,
		OnboardingStep:      p.OnboardingStep,
		OnboardingCompleted: p.OnboardingCompleted,
		Goal:                p.Goal,
		Summary:             p.Summary,
		Answers:             answers,
		Insights:            insights,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

func userIDFromContext(ctx context.Context) (string, error) {
	userID, ok := userctx.GetUserID(ctx)
	if !ok || strings.TrimSpace(userID) == "" {
		return "", ErrUnauthorized
	}
	return userID, nil
}
