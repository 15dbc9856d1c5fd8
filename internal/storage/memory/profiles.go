package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fdg312/coach-hub/internal/storage"
)

type profilesStorage struct {
	mu       sync.RWMutex
	profiles map[string]storage.Profile
}

func newProfilesStorage() *profilesStorage {
	return &profilesStorage{profiles: make(map[string]storage.Profile)}
}

func (s *profilesStorage) GetProfile(ctx context.Context, userID string) (*storage.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	copied := cloneProfile(p)
	return &copied, nil
}

func (s *profilesStorage) UpsertProfile(ctx context.Context, p *storage.Profile) error {
	if p.UserID == "" {
		return fmt.Errorf("profile requires user_id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := s.profiles[p.UserID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	s.profiles[p.UserID] = cloneProfile(*p)
	return nil
}

func cloneProfile(p storage.Profile) storage.Profile {
	out := p
	out.Answers = make(map[string]string, len(p.Answers))
	for k, v := range p.Answers {
		out.Answers[k] = v
	}
	out.Insights = append([]string{}, p.Insights...)
	return out
}
