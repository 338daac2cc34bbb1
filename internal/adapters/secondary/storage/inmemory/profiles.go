package inmemory

import (
	"context"
	"sync"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	ports "github.com/Aagam-Bothara/astranum-sub001/internal/ports/repository"
	"github.com/google/uuid"
)

type Profiles struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]domain.UserProfile
}

func NewProfiles() *Profiles {
	return &Profiles{profiles: make(map[uuid.UUID]domain.UserProfile)}
}

var _ ports.IProfileRepo = (*Profiles)(nil)

func (p *Profiles) Get(_ context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	profile, ok := p.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &profile, nil
}

func (p *Profiles) Upsert(_ context.Context, profile *domain.UserProfile) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	stored := *profile
	if existing, ok := p.profiles[profile.UserID]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	p.profiles[profile.UserID] = stored
	return nil
}
