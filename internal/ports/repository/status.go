package repository

import (
	"context"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/google/uuid"
)

// IStatusRepo история переходов состояний (event sourcing)
type IStatusRepo interface {
	Create(ctx context.Context, status *domain.Status) error
	GetLatestByObjectID(ctx context.Context, objectType domain.ObjectType, objectID uuid.UUID) (*domain.Status, error)
	GetByObjectID(ctx context.Context, objectType domain.ObjectType, objectID uuid.UUID) ([]*domain.Status, error)
}
