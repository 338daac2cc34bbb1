package repository

import (
	"context"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/google/uuid"
)

// IRequestRepo журнал вопросов
type IRequestRepo interface {
	Create(ctx context.Context, request *domain.Request) error
	UpdateResult(ctx context.Context, request *domain.Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Request, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Request, error)
}
