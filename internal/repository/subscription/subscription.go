package subscriptionRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/persistence"
	ports "github.com/Aagam-Bothara/astranum-sub001/internal/ports/repository"
	"github.com/google/uuid"
)

type subscriptionColumns struct {
	TableName          string
	UserID             string
	Tier               string
	Status             string
	CurrentPeriodStart string
	CurrentPeriodEnd   string
	UpdatedAt          string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns subscriptionColumns
}

func New(db persistence.Persistence, log *slog.Logger) ports.ISubscriptionRepo {
	cols := subscriptionColumns{
		TableName:          "subscriptions",
		UserID:             "user_id",
		Tier:               "tier",
		Status:             "status",
		CurrentPeriodStart: "current_period_start",
		CurrentPeriodEnd:   "current_period_end",
		UpdatedAt:          "updated_at",
	}
	return &Repository{
		db:      db,
		Log:     log,
		columns: cols,
	}
}

func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s",
		r.columns.UserID,
		r.columns.Tier,
		r.columns.Status,
		r.columns.CurrentPeriodStart,
		r.columns.CurrentPeriodEnd,
		r.columns.UpdatedAt)
}

func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	var sub domain.Subscription
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.UserID)
	err := r.db.Get(ctx, &sub, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("subscription not found: %w", domain.ErrNotFound)
		}
		r.Log.Error("failed to get subscription", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	sub.PriceDisplay = domain.GetTierConfig(sub.Tier).PriceDisplay()
	return &sub, nil
}

// Upsert применяет запись, только если она не старше сохранённой
func (r *Repository) Upsert(ctx context.Context, sub *domain.Subscription) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (%s) DO UPDATE SET
			%s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s
		WHERE %s.%s <= EXCLUDED.%s`,
		r.columns.TableName,
		r.allColumns(),
		r.columns.UserID,
		r.columns.Tier, r.columns.Tier,
		r.columns.Status, r.columns.Status,
		r.columns.CurrentPeriodStart, r.columns.CurrentPeriodStart,
		r.columns.CurrentPeriodEnd, r.columns.CurrentPeriodEnd,
		r.columns.UpdatedAt, r.columns.UpdatedAt,
		r.columns.TableName, r.columns.UpdatedAt, r.columns.UpdatedAt)
	affected, err := r.db.ExecWithResult(ctx, query,
		sub.UserID,
		sub.Tier,
		sub.Status,
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.UpdatedAt)
	if err != nil {
		r.Log.Error("failed to upsert subscription", "error", err, "user_id", sub.UserID)
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	if affected == 0 {
		r.Log.Warn("stale subscription update skipped", "user_id", sub.UserID, "updated_at", sub.UpdatedAt)
		return nil
	}
	r.Log.Debug("subscription saved", "user_id", sub.UserID, "tier", sub.Tier, "status", sub.Status)
	return nil
}
