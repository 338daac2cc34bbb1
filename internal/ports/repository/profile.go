package repository

import (
	"context"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/google/uuid"
)

type IProfileRepo interface {
	// Get domain.ErrNotFound если профиль не заполнен
	Get(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error)
	Upsert(ctx context.Context, profile *domain.UserProfile) error
}
