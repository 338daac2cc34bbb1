package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/repository"
	"github.com/google/uuid"
)

// ChartVersioner пересчёт карты после изменения данных рождения
type ChartVersioner interface {
	CreateVersion(ctx context.Context, userID uuid.UUID, profile *domain.UserProfile) (*domain.ChartSnapshot, error)
}

// Service профиль пользователя; изменение данных рождения порождает новую версию карты
type Service struct {
	ProfileRepo repository.IProfileRepo
	Charts      ChartVersioner
	Log         *slog.Logger

	now func() time.Time
}

func New(profileRepo repository.IProfileRepo, charts ChartVersioner, log *slog.Logger) *Service {
	return &Service{
		ProfileRepo: profileRepo,
		Charts:      charts,
		Log:         log,
		now:         time.Now,
	}
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	profile, err := s.ProfileRepo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (s *Service) Update(ctx context.Context, profile *domain.UserProfile) (*domain.UserProfile, error) {
	applyDefaults(profile)
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	previous, err := s.ProfileRepo.Get(ctx, profile.UserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	now := s.now()
	profile.CreatedAt = now
	if previous != nil {
		profile.CreatedAt = previous.CreatedAt
	}
	profile.UpdatedAt = now

	if err := s.ProfileRepo.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	if profile.ChartInputsChanged(previous) {
		// при ошибке карта пересчитается при следующем вопросе
		if _, err := s.Charts.CreateVersion(ctx, profile.UserID, profile); err != nil {
			s.Log.Warn("failed to create chart version after profile update",
				"user_id", profile.UserID,
				"error", err,
			)
		}
	}

	return profile, nil
}

func applyDefaults(p *domain.UserProfile) {
	p.FullName = strings.TrimSpace(p.FullName)
	if p.GuidanceMode == "" {
		p.GuidanceMode = domain.GuidanceModeBoth
	}
	if p.Language == "" {
		p.Language = domain.LanguageEnglish
	}
	if p.ResponseStyle == "" {
		p.ResponseStyle = domain.ResponseStyleBalanced
	}
}
