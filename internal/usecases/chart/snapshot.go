package chart

import (
	"context"
	"errors"
	"fmt"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/Aagam-Bothara/astranum-sub001/internal/pkg/metrics"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/service"
	"github.com/google/uuid"
)

// GetActive последняя версия карты, посчитанная из текущего профиля.
// Если профиль менялся или карт ещё нет, новая версия считается синхронно.
func (s *Service) GetActive(ctx context.Context, userID uuid.UUID) (*domain.ChartSnapshot, error) {
	profile, err := s.ProfileRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrProfileRequired
		}
		return nil, fmt.Errorf("%w: failed to load profile: %w", domain.ErrChartUnavailable, err)
	}

	latest, err := s.ChartRepo.GetLatest(ctx, userID)
	switch {
	case err == nil && latest.InputHash == profile.ChartInputHash():
		return latest, nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("%w: failed to load latest chart: %w", domain.ErrChartUnavailable, err)
	}

	return s.CreateVersion(ctx, userID, profile)
}

// CreateVersion считает карту по профилю и добавляет её новой версией.
// Одновременные вызовы с одинаковыми данными выполняют один расчёт.
func (s *Service) CreateVersion(ctx context.Context, userID uuid.UUID, profile *domain.UserProfile) (*domain.ChartSnapshot, error) {
	hash := profile.ChartInputHash()
	key := userID.String() + ":" + hash

	ch := s.versions.DoChan(key, func() (interface{}, error) {
		// расчёт не должен падать из-за отмены первого из ожидающих
		return s.createVersion(context.WithoutCancel(ctx), userID, profile, hash)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*domain.ChartSnapshot), nil
	}
}

func (s *Service) createVersion(ctx context.Context, userID uuid.UUID, profile *domain.UserProfile, hash string) (*domain.ChartSnapshot, error) {
	mathCtx, cancel := context.WithTimeout(ctx, s.cfg.ChartMathTimeout)
	defer cancel()

	numerology, astrology, err := s.ChartMath.Compute(mathCtx, service.ChartInput{
		FullName:   profile.FullName,
		BirthDate:  profile.BirthDate,
		BirthTime:  profile.BirthTime,
		BirthPlace: profile.BirthPlace,
	})
	if err != nil {
		s.Log.Error("chart math failed",
			"user_id", userID,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrChartUnavailable, err)
	}

	if astrology != nil {
		astrology.HasBirthTime = profile.HasBirthTime()
		if !astrology.HasBirthTime {
			astrology.StripTimeSensitive()
		}
	}

	snapshot := &domain.ChartSnapshot{
		ID:         uuid.New(),
		UserID:     userID,
		InputHash:  hash,
		Numerology: numerology,
		Astrology:  astrology,
		CreatedAt:  s.now(),
	}

	saved, err := s.ChartRepo.AppendVersion(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to save chart: %w", domain.ErrChartUnavailable, err)
	}

	if saved.ID == snapshot.ID {
		metrics.ObserveChartVersion()
		s.Log.Info("chart version created",
			"user_id", userID,
			"version", saved.Version,
			"has_birth_time", profile.HasBirthTime(),
		)
	}
	return saved, nil
}

// GetVersion конкретная версия для аудита ответов
func (s *Service) GetVersion(ctx context.Context, userID uuid.UUID, version int) (*domain.ChartSnapshot, error) {
	snapshot, err := s.ChartRepo.GetVersion(ctx, userID, version)
	if err != nil {
		return nil, fmt.Errorf("failed to get chart version %d: %w", version, err)
	}
	return snapshot, nil
}

// ListVersions история версий карты, от первой к последней
func (s *Service) ListVersions(ctx context.Context, userID uuid.UUID) ([]domain.ChartVersionInfo, error) {
	snapshots, err := s.ChartRepo.ListVersions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chart versions: %w", err)
	}

	versions := make([]domain.ChartVersionInfo, 0, len(snapshots))
	for _, snapshot := range snapshots {
		versions = append(versions, domain.ChartVersionInfo{
			Version:      snapshot.Version,
			HasBirthTime: snapshot.HasBirthTime(),
			CreatedAt:    snapshot.CreatedAt,
		})
	}
	return versions, nil
}

// View данные версии карты, доступные тарифу
func View(snapshot *domain.ChartSnapshot, tier domain.Tier) *domain.ChartView {
	points := domain.ExtractDataPoints(snapshot).ForTier(domain.GetTierConfig(tier).Features)
	if !snapshot.HasBirthTime() {
		points = points.WithoutTimeSensitive()
	}
	return &domain.ChartView{
		Version:      snapshot.Version,
		Tier:         tier,
		HasBirthTime: snapshot.HasBirthTime(),
		CreatedAt:    snapshot.CreatedAt,
		DataPoints:   points.Points(),
	}
}
