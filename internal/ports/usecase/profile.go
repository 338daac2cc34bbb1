package usecase

import (
	"context"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/google/uuid"
)

type IProfileUseCase interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error)
	// Update сохраняет профиль; при изменении данных рождения создаётся новая версия карты
	Update(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error)
}
