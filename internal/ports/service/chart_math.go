package service

import (
	"context"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
)

// ChartInput данные профиля, из которых считается карта
type ChartInput struct {
	FullName   string
	BirthDate  time.Time
	BirthTime  *string // HH:MM
	BirthPlace *string
}

// IChartMathService детерминированный расчёт натальной карты и транзитов
type IChartMathService interface {
	// Compute нумерология всегда; астрология если сервис настроен, иначе Astrology=nil
	Compute(ctx context.Context, input ChartInput) (*domain.NumerologyData, *domain.AstrologyData, error)
	Transits(ctx context.Context, date time.Time) (*domain.TransitData, error)
}

// IAstroAPIService внешний API эфемерид
type IAstroAPIService interface {
	NatalPositions(ctx context.Context, input ChartInput) (*domain.AstrologyData, error)
	TransitPositions(ctx context.Context, date time.Time) (map[string]domain.PlanetPosition, error)
}
