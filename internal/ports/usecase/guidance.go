package usecase

import (
	"context"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/google/uuid"
)

// IGuidanceUseCase вопрос-ответ и производные от него запросы
type IGuidanceUseCase interface {
	Ask(ctx context.Context, userID uuid.UUID, req domain.GuidanceRequest) (*domain.GuidanceResponse, error)
	UsageStatus(ctx context.Context, userID uuid.UUID) (domain.UsageStatus, error)
	ActiveChart(ctx context.Context, userID uuid.UUID) (*domain.ChartView, error)
	ChartVersion(ctx context.Context, userID uuid.UUID, version int) (*domain.ChartView, error)
	ChartHistory(ctx context.Context, userID uuid.UUID) ([]domain.ChartVersionInfo, error)
}
