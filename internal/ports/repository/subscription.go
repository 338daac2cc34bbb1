package repository

import (
	"context"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/google/uuid"
)

// ISubscriptionRepo локальная копия подписок из биллинга
type ISubscriptionRepo interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)
	// Upsert не перезаписывает запись более старым событием (по UpdatedAt)
	Upsert(ctx context.Context, sub *domain.Subscription) error
}
