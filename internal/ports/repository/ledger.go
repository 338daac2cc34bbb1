package repository

import (
	"context"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/google/uuid"
)

// AdmissionFunc решение о допуске по счётчикам, прочитанным под блокировкой.
// Ненулевая ошибка отменяет резервацию.
type AdmissionFunc func(counters map[domain.Window]domain.WindowCounter) error

// ILedgerRepo счётчики квот и резервации
type ILedgerRepo interface {
	// Reserve блокирует строки окон res.Windows в порядке domain.WindowOrder, вызывает decide
	// и при допуске сохраняет резервацию с reserved+1 в каждом окне.
	// Возвращает счётчики после решения.
	Reserve(ctx context.Context, res *domain.Reservation, decide AdmissionFunc) (map[domain.Window]domain.WindowCounter, error)

	// Commit переносит reserved в used; domain.ErrReservationResolved если резервация уже не pending
	Commit(ctx context.Context, reservationID uuid.UUID, at time.Time) error
	// Release возвращает reserved; domain.ErrReservationResolved если резервация уже не pending
	Release(ctx context.Context, reservationID uuid.UUID, at time.Time) error

	Counters(ctx context.Context, userID uuid.UUID, keys []domain.WindowKey) (map[domain.Window]domain.WindowCounter, error)
	GetReservation(ctx context.Context, reservationID uuid.UUID) (*domain.Reservation, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error)

	// PruneReservations удаляет завершённые резервации старше before
	PruneReservations(ctx context.Context, before time.Time) (int64, error)
	// PruneWindows удаляет строки окна без активных резерваций, не менявшиеся с before
	PruneWindows(ctx context.Context, window domain.Window, before time.Time) (int64, error)
}
