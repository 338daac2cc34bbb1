package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/repository"
	"github.com/google/uuid"
)

type Config struct {
	// сколько active подписка действует после конца периода, пока биллинг не прислал продление
	Grace time.Duration `envconfig:"GRACE" default:"72h"`
}

// Service локальная копия подписок и расчёт действующего тарифа
type Service struct {
	SubscriptionRepo repository.ISubscriptionRepo
	Log              *slog.Logger

	grace time.Duration
	now   func() time.Time
}

func New(cfg Config, subscriptionRepo repository.ISubscriptionRepo, log *slog.Logger) *Service {
	return &Service{
		SubscriptionRepo: subscriptionRepo,
		Log:              log,
		grace:            cfg.Grace,
		now:              time.Now,
	}
}

// Get подписка пользователя; без записи в биллинге пользователь на бесплатном тарифе
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	sub, err := s.SubscriptionRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.DefaultSubscription(userID, s.now()), nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	sub.PriceDisplay = domain.GetTierConfig(sub.Tier).PriceDisplay()
	return sub, nil
}

func (s *Service) EffectivePlan(ctx context.Context, userID uuid.UUID, now time.Time) (domain.Plan, error) {
	sub, err := s.Get(ctx, userID)
	if err != nil {
		return domain.Plan{}, err
	}
	return sub.EffectivePlan(now, s.grace), nil
}

// ApplyEvent сохраняет состояние подписки из события биллинга.
// Смена тарифа учитывается при следующем допуске, списанные вопросы не пересчитываются.
func (s *Service) ApplyEvent(ctx context.Context, event *domain.SubscriptionEvent) error {
	if err := event.Validate(); err != nil {
		return domain.WrapBusinessError(err)
	}

	if err := s.SubscriptionRepo.Upsert(ctx, event.ToSubscription()); err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	s.Log.Info("subscription updated",
		"user_id", event.UserID,
		"event_id", event.EventID,
		"tier", event.Tier,
		"status", event.Status,
	)
	return nil
}
