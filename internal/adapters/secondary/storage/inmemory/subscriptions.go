package inmemory

import (
	"context"
	"sync"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	ports "github.com/Aagam-Bothara/astranum-sub001/internal/ports/repository"
	"github.com/google/uuid"
)

type Subscriptions struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]domain.Subscription
}

func NewSubscriptions() *Subscriptions {
	return &Subscriptions{subs: make(map[uuid.UUID]domain.Subscription)}
}

var _ ports.ISubscriptionRepo = (*Subscriptions)(nil)

func (s *Subscriptions) Get(_ context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	sub.PriceDisplay = domain.GetTierConfig(sub.Tier).PriceDisplay()
	return &sub, nil
}

// Upsert более старое событие не перезаписывает новое
func (s *Subscriptions) Upsert(_ context.Context, sub *domain.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.subs[sub.UserID]; ok && existing.UpdatedAt.After(sub.UpdatedAt) {
		return nil
	}
	s.subs[sub.UserID] = *sub
	return nil
}
