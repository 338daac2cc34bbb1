package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/Aagam-Bothara/astranum-sub001/internal/pkg/metrics"
	"github.com/google/uuid"
)

// CheckAndReserve допуск вопроса с резервацией во всех списываемых окнах.
// Отказ возвращается как *domain.DeniedError со статусом использования.
func (s *Service) CheckAndReserve(ctx context.Context, userID uuid.UUID, plan domain.Plan, now time.Time) (domain.UsageStatus, *domain.Reservation, error) {
	res := &domain.Reservation{
		ID:        uuid.New(),
		UserID:    userID,
		Tier:      plan.Tier,
		Windows:   chargedWindows(plan, now, s.loc),
		Status:    domain.ReservationPending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	var denied *domain.DeniedError
	counters, err := s.Ledger.Reserve(ctx, res, func(counters map[domain.Window]domain.WindowCounter) error {
		usage, window := BuildUsage(plan.Tier, counters)
		if window != "" {
			denied = &domain.DeniedError{Usage: usage, Window: window}
			return denied
		}
		return nil
	})
	if err != nil {
		if denied != nil && errors.Is(err, domain.ErrQuotaDenied) {
			metrics.ObserveAdmission(string(plan.Tier), false)
			s.Log.Info("quota denied",
				"user_id", userID,
				"tier", plan.Tier,
				"window", denied.Window,
			)
			return denied.Usage, nil, denied
		}
		return domain.UsageStatus{}, nil, fmt.Errorf("failed to reserve quota: %w", err)
	}

	metrics.ObserveAdmission(string(plan.Tier), true)
	usage, _ := BuildUsage(plan.Tier, counters)
	return usage, res, nil
}

// Commit списывает зарезервированный вопрос
func (s *Service) Commit(ctx context.Context, res *domain.Reservation) error {
	if err := s.Ledger.Commit(ctx, res.ID, s.now()); err != nil {
		metrics.ObserveReservation("commit_failed")
		return fmt.Errorf("failed to commit reservation %s: %w", res.ID, err)
	}
	metrics.ObserveReservation("committed")
	return nil
}

// Release возвращает резервацию. Повторный возврат уже завершённой резервации не ошибка.
func (s *Service) Release(ctx context.Context, res *domain.Reservation) error {
	err := s.Ledger.Release(ctx, res.ID, s.now())
	switch {
	case err == nil:
		metrics.ObserveReservation("released")
		return nil
	case errors.Is(err, domain.ErrReservationResolved):
		s.Log.Debug("reservation already resolved", "reservation_id", res.ID)
		return nil
	}
	return fmt.Errorf("failed to release reservation %s: %w", res.ID, err)
}

// Status текущий статус без резервации
func (s *Service) Status(ctx context.Context, userID uuid.UUID, plan domain.Plan, now time.Time) (domain.UsageStatus, error) {
	counters, err := s.Ledger.Counters(ctx, userID, chargedWindows(plan, now, s.loc))
	if err != nil {
		return domain.UsageStatus{}, fmt.Errorf("failed to read usage counters: %w", err)
	}
	usage, _ := BuildUsage(plan.Tier, counters)
	return usage, nil
}

// ReleaseExpired возвращает просроченные резервации, которые не дошли до commit/release
func (s *Service) ReleaseExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.Ledger.ListExpired(ctx, now, s.sweepBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired reservations: %w", err)
	}

	released := 0
	for _, res := range expired {
		if err := ctx.Err(); err != nil {
			return released, err
		}
		err := s.Ledger.Release(ctx, res.ID, now)
		switch {
		case err == nil:
			released++
			metrics.ObserveReservation("expired")
		case errors.Is(err, domain.ErrReservationResolved):
			// завершилась между выборкой и возвратом
		default:
			return released, fmt.Errorf("failed to release expired reservation %s: %w", res.ID, err)
		}
	}

	if released > 0 {
		s.Log.Warn("released expired reservations", "count", released)
	}
	return released, nil
}

// Prune удаляет завершённые резервации и неактивные дневные строки старше срока хранения
func (s *Service) Prune(ctx context.Context, now time.Time) error {
	before := now.Add(-s.retention)

	reservations, err := s.Ledger.PruneReservations(ctx, before)
	if err != nil {
		return fmt.Errorf("failed to prune reservations: %w", err)
	}
	windows, err := s.Ledger.PruneWindows(ctx, domain.WindowDaily, before)
	if err != nil {
		return fmt.Errorf("failed to prune daily windows: %w", err)
	}

	s.Log.Info("ledger pruned",
		"reservations", reservations,
		"daily_windows", windows,
	)
	return nil
}
