package guidance

import (
	"context"
	"fmt"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/Aagam-Bothara/astranum-sub001/internal/usecases/chart"
	"github.com/google/uuid"
)

// UsageStatus остаток квот по действующему тарифу, ничего не резервирует
func (s *Service) UsageStatus(ctx context.Context, userID uuid.UUID) (domain.UsageStatus, error) {
	now := s.now()
	plan, err := s.Plans.EffectivePlan(ctx, userID, now)
	if err != nil {
		return domain.UsageStatus{}, fmt.Errorf("failed to resolve plan: %w", err)
	}
	return s.Quota.Status(ctx, userID, plan, now)
}

// ActiveChart активная карта в объёме, доступном тарифу
func (s *Service) ActiveChart(ctx context.Context, userID uuid.UUID) (*domain.ChartView, error) {
	now := s.now()
	plan, err := s.Plans.EffectivePlan(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plan: %w", err)
	}

	snapshot, err := s.Charts.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	if domain.GetTierConfig(plan.Tier).Features.Transits {
		transit, err := s.Charts.GetTransitForToday(ctx, userID, now)
		if err != nil {
			s.Log.Warn("transits unavailable for chart view",
				"user_id", userID,
				"error", err,
			)
		} else {
			snapshot = snapshot.WithTransit(transit)
		}
	}
	return chart.View(snapshot, plan.Tier), nil
}

// ChartVersion версия карты, по которой отвечали раньше; транзиты не подмешиваются
func (s *Service) ChartVersion(ctx context.Context, userID uuid.UUID, version int) (*domain.ChartView, error) {
	plan, err := s.Plans.EffectivePlan(ctx, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plan: %w", err)
	}

	snapshot, err := s.Charts.GetVersion(ctx, userID, version)
	if err != nil {
		return nil, err
	}
	return chart.View(snapshot, plan.Tier), nil
}

func (s *Service) ChartHistory(ctx context.Context, userID uuid.UUID) ([]domain.ChartVersionInfo, error) {
	return s.Charts.ListVersions(ctx, userID)
}
