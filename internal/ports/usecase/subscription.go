package usecase

import (
	"context"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/google/uuid"
)

type ISubscriptionUseCase interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)
	EffectivePlan(ctx context.Context, userID uuid.UUID, now time.Time) (domain.Plan, error)
	ApplyEvent(ctx context.Context, event *domain.SubscriptionEvent) error
}
