package repository

import (
	"context"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/google/uuid"
)

// IChartRepo версии карт пользователя, только добавление
type IChartRepo interface {
	// GetLatest последняя версия, domain.ErrNotFound если карт нет
	GetLatest(ctx context.Context, userID uuid.UUID) (*domain.ChartSnapshot, error)
	GetVersion(ctx context.Context, userID uuid.UUID, version int) (*domain.ChartSnapshot, error)
	ListVersions(ctx context.Context, userID uuid.UUID) ([]*domain.ChartSnapshot, error)

	// AppendVersion назначает версию latest+1 под взаимным исключением по пользователю.
	// Если последняя версия посчитана из того же InputHash, возвращает её без вставки.
	AppendVersion(ctx context.Context, snapshot *domain.ChartSnapshot) (*domain.ChartSnapshot, error)
}
