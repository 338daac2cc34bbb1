package ledgerRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/persistence"
	ports "github.com/Aagam-Bothara/astranum-sub001/internal/ports/repository"
	"github.com/google/uuid"
)

type windowColumns struct {
	TableName string
	UserID    string
	Window    string
	PeriodKey string
	Used      string
	Reserved  string
	UpdatedAt string
}

type reservationColumns struct {
	TableName  string
	ID         string
	UserID     string
	Tier       string
	Windows    string
	Status     string
	CreatedAt  string
	ExpiresAt  string
	ResolvedAt string
}

type Repository struct {
	db           persistence.Transactor
	Log          *slog.Logger
	windows      windowColumns
	reservations reservationColumns
}

// New репозиторий квот: usage_windows + quota_reservations
func New(db persistence.Transactor, log *slog.Logger) ports.ILedgerRepo {
	return &Repository{
		db:  db,
		Log: log,
		windows: windowColumns{
			TableName: "usage_windows",
			UserID:    "user_id",
			Window:    "window_kind",
			PeriodKey: "period_key",
			Used:      "used",
			Reserved:  "reserved",
			UpdatedAt: "updated_at",
		},
		reservations: reservationColumns{
			TableName:  "quota_reservations",
			ID:         "id",
			UserID:     "user_id",
			Tier:       "tier",
			Windows:    "windows",
			Status:     "status",
			CreatedAt:  "created_at",
			ExpiresAt:  "expires_at",
			ResolvedAt: "resolved_at",
		},
	}
}

func (r *Repository) windowColumnsList() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s",
		r.windows.UserID,
		r.windows.Window,
		r.windows.PeriodKey,
		r.windows.Used,
		r.windows.Reserved,
		r.windows.UpdatedAt)
}

func (r *Repository) reservationColumnsList() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s",
		r.reservations.ID,
		r.reservations.UserID,
		r.reservations.Tier,
		r.reservations.Windows,
		r.reservations.Status,
		r.reservations.CreatedAt,
		r.reservations.ExpiresAt,
		r.reservations.ResolvedAt)
}

// orderedKeys окна в порядке domain.WindowOrder, чтобы блокировки брались в одном порядке
func orderedKeys(keys []domain.WindowKey) []domain.WindowKey {
	rank := make(map[domain.Window]int, len(domain.WindowOrder))
	for i, w := range domain.WindowOrder {
		rank[w] = i
	}
	out := make([]domain.WindowKey, len(keys))
	copy(out, keys)
	sort.SliceStable(out, func(i, j int) bool { return rank[out[i].Window] < rank[out[j].Window] })
	return out
}

// lockWindows создаёт недостающие строки окон и берёт на них FOR UPDATE
func (r *Repository) lockWindows(ctx context.Context, tx persistence.Transaction, userID uuid.UUID, keys []domain.WindowKey, now time.Time) (map[domain.Window]domain.WindowCounter, error) {
	insert := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
		r.windows.TableName,
		r.windows.UserID,
		r.windows.Window,
		r.windows.PeriodKey,
		r.windows.UpdatedAt)
	lock := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2 AND %s = $3 FOR UPDATE`,
		r.windowColumnsList(),
		r.windows.TableName,
		r.windows.UserID,
		r.windows.Window,
		r.windows.PeriodKey)

	counters := make(map[domain.Window]domain.WindowCounter, len(keys))
	for _, key := range keys {
		if err := tx.Exec(ctx, insert, userID, key.Window, key.PeriodKey, now); err != nil {
			return nil, fmt.Errorf("failed to ensure usage window %s/%s: %w", key.Window, key.PeriodKey, err)
		}
		var counter domain.WindowCounter
		if err := tx.Get(ctx, &counter, lock, userID, key.Window, key.PeriodKey); err != nil {
			return nil, fmt.Errorf("failed to lock usage window %s/%s: %w", key.Window, key.PeriodKey, err)
		}
		counters[key.Window] = counter
	}
	return counters, nil
}

// Reserve решение о допуске и резервация в одной транзакции
func (r *Repository) Reserve(ctx context.Context, res *domain.Reservation, decide ports.AdmissionFunc) (map[domain.Window]domain.WindowCounter, error) {
	var counters map[domain.Window]domain.WindowCounter
	keys := orderedKeys(res.Windows)

	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx persistence.Transaction) error {
		locked, err := r.lockWindows(ctx, tx, res.UserID, keys, res.CreatedAt)
		if err != nil {
			return err
		}
		counters = locked

		if err := decide(locked); err != nil {
			return err
		}

		insert := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			r.reservations.TableName,
			r.reservationColumnsList())
		err = tx.Exec(ctx, insert,
			res.ID,
			res.UserID,
			res.Tier,
			domain.WindowKeys(keys),
			domain.ReservationPending,
			res.CreatedAt,
			res.ExpiresAt,
			nil)
		if err != nil {
			return fmt.Errorf("failed to insert reservation: %w", err)
		}

		update := fmt.Sprintf(`UPDATE %s SET %s = %s + 1, %s = $4 WHERE %s = $1 AND %s = $2 AND %s = $3 RETURNING %s`,
			r.windows.TableName,
			r.windows.Reserved, r.windows.Reserved,
			r.windows.UpdatedAt,
			r.windows.UserID,
			r.windows.Window,
			r.windows.PeriodKey,
			r.windowColumnsList())
		after := make(map[domain.Window]domain.WindowCounter, len(keys))
		for _, key := range keys {
			var counter domain.WindowCounter
			if err := tx.Get(ctx, &counter, update, res.UserID, key.Window, key.PeriodKey, res.CreatedAt); err != nil {
				return fmt.Errorf("failed to reserve usage window %s/%s: %w", key.Window, key.PeriodKey, err)
			}
			after[key.Window] = counter
		}
		counters = after
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrQuotaDenied) {
			r.Log.Error("failed to reserve quota", "error", err, "user_id", res.UserID, "reservation_id", res.ID)
		}
		return counters, err
	}

	res.Windows = keys
	res.Status = domain.ReservationPending
	r.Log.Debug("quota reserved", "user_id", res.UserID, "reservation_id", res.ID, "windows", len(keys))
	return counters, nil
}

func (r *Repository) Commit(ctx context.Context, reservationID uuid.UUID, at time.Time) error {
	return r.resolve(ctx, reservationID, domain.ReservationCommitted, at)
}

func (r *Repository) Release(ctx context.Context, reservationID uuid.UUID, at time.Time) error {
	return r.resolve(ctx, reservationID, domain.ReservationReleased, at)
}

// resolve единственный переход резервации из pending
func (r *Repository) resolve(ctx context.Context, reservationID uuid.UUID, status domain.ReservationStatus, at time.Time) error {
	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx persistence.Transaction) error {
		var res domain.Reservation
		query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1 AND %s = $4 RETURNING %s`,
			r.reservations.TableName,
			r.reservations.Status,
			r.reservations.ResolvedAt,
			r.reservations.ID,
			r.reservations.Status,
			r.reservationColumnsList())
		err := tx.Get(ctx, &res, query, reservationID, status, at, domain.ReservationPending)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrReservationResolved
			}
			return fmt.Errorf("failed to resolve reservation: %w", err)
		}

		usedDelta := 0
		if status == domain.ReservationCommitted {
			usedDelta = 1
		}
		update := fmt.Sprintf(`UPDATE %s SET %s = GREATEST(%s - 1, 0), %s = %s + $4, %s = $5 WHERE %s = $1 AND %s = $2 AND %s = $3`,
			r.windows.TableName,
			r.windows.Reserved, r.windows.Reserved,
			r.windows.Used, r.windows.Used,
			r.windows.UpdatedAt,
			r.windows.UserID,
			r.windows.Window,
			r.windows.PeriodKey)
		for _, key := range orderedKeys(res.Windows) {
			if err := tx.Exec(ctx, update, res.UserID, key.Window, key.PeriodKey, usedDelta, at); err != nil {
				return fmt.Errorf("failed to update usage window %s/%s: %w", key.Window, key.PeriodKey, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrReservationResolved) {
			r.Log.Warn("reservation already resolved", "reservation_id", reservationID, "target_status", status)
			return err
		}
		r.Log.Error("failed to resolve reservation", "error", err, "reservation_id", reservationID, "target_status", status)
		return err
	}

	r.Log.Debug("reservation resolved", "reservation_id", reservationID, "status", status)
	return nil
}

// Counters текущие счётчики; отсутствующее окно возвращается нулевым
func (r *Repository) Counters(ctx context.Context, userID uuid.UUID, keys []domain.WindowKey) (map[domain.Window]domain.WindowCounter, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2 AND %s = $3`,
		r.windowColumnsList(),
		r.windows.TableName,
		r.windows.UserID,
		r.windows.Window,
		r.windows.PeriodKey)

	counters := make(map[domain.Window]domain.WindowCounter, len(keys))
	for _, key := range keys {
		var counter domain.WindowCounter
		err := r.db.Get(ctx, &counter, query, userID, key.Window, key.PeriodKey)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				r.Log.Error("failed to get usage window", "error", err, "user_id", userID, "window", key.Window)
				return nil, fmt.Errorf("failed to get usage window: %w", err)
			}
			counter = domain.WindowCounter{UserID: userID, Window: key.Window, PeriodKey: key.PeriodKey}
		}
		counters[key.Window] = counter
	}
	return counters, nil
}

func (r *Repository) GetReservation(ctx context.Context, reservationID uuid.UUID) (*domain.Reservation, error) {
	var res domain.Reservation
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.reservationColumnsList(),
		r.reservations.TableName,
		r.reservations.ID)
	if err := r.db.Get(ctx, &res, query, reservationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Log.Warn("reservation not found", "reservation_id", reservationID)
			return nil, fmt.Errorf("reservation not found: %w", domain.ErrNotFound)
		}
		r.Log.Error("failed to get reservation", "error", err, "reservation_id", reservationID)
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return &res, nil
}

// ListExpired pending-резервации с истёкшим сроком, самые старые первыми
func (r *Repository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*domain.Reservation, error) {
	var expired []*domain.Reservation
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s < $2 ORDER BY %s ASC LIMIT $3`,
		r.reservationColumnsList(),
		r.reservations.TableName,
		r.reservations.Status,
		r.reservations.ExpiresAt,
		r.reservations.ExpiresAt)
	if err := r.db.Select(ctx, &expired, query, domain.ReservationPending, now, limit); err != nil {
		r.Log.Error("failed to list expired reservations", "error", err)
		return nil, fmt.Errorf("failed to list expired reservations: %w", err)
	}
	return expired, nil
}

func (r *Repository) PruneReservations(ctx context.Context, before time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s <> $1 AND %s < $2`,
		r.reservations.TableName,
		r.reservations.Status,
		r.reservations.ResolvedAt)
	deleted, err := r.db.ExecWithResult(ctx, query, domain.ReservationPending, before)
	if err != nil {
		r.Log.Error("failed to prune reservations", "error", err)
		return 0, fmt.Errorf("failed to prune reservations: %w", err)
	}
	return deleted, nil
}

func (r *Repository) PruneWindows(ctx context.Context, window domain.Window, before time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = 0 AND %s < $2`,
		r.windows.TableName,
		r.windows.Window,
		r.windows.Reserved,
		r.windows.UpdatedAt)
	deleted, err := r.db.ExecWithResult(ctx, query, window, before)
	if err != nil {
		r.Log.Error("failed to prune usage windows", "error", err, "window", window)
		return 0, fmt.Errorf("failed to prune usage windows: %w", err)
	}
	return deleted, nil
}
