package requestRepo

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

type requestColumns struct {
	TableName       string
	ID              string
	UserID          string
	Question        string
	Mode            string
	Language        string
	Tier            string
	SnapshotVersion string
	ResponseText    string
	Passed          string
	WasRegenerated  string
	State           string
	CreatedAt       string
	UpdatedAt       string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns requestColumns
}

// New репозиторий журнала вопросов
func New(db persistence.Persistence, log *slog.Logger) ports.IRequestRepo {
	cols := requestColumns{
		TableName:       "requests",
		ID:              "id",
		UserID:          "user_id",
		Question:        "question",
		Mode:            "mode",
		Language:        "language",
		Tier:            "tier",
		SnapshotVersion: "snapshot_version",
		ResponseText:    "response_text",
		Passed:          "passed",
		WasRegenerated:  "was_regenerated",
		State:           "state",
		CreatedAt:       "created_at",
		UpdatedAt:       "updated_at",
	}
	return &Repository{
		db:      db,
		Log:     log,
		columns: cols,
	}
}

func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.UserID,
		r.columns.Question,
		r.columns.Mode,
		r.columns.Language,
		r.columns.Tier,
		r.columns.SnapshotVersion,
		r.columns.ResponseText,
		r.columns.Passed,
		r.columns.WasRegenerated,
		r.columns.State,
		r.columns.CreatedAt,
		r.columns.UpdatedAt)
}

func (r *Repository) Create(ctx context.Context, request *domain.Request) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		r.columns.TableName,
		r.allColumns())
	err := r.db.Exec(ctx, query,
		request.ID,
		request.UserID,
		request.Question,
		request.Mode,
		request.Language,
		request.Tier,
		request.SnapshotVersion,
		request.ResponseText,
		request.Passed,
		request.WasRegenerated,
		request.State,
		request.CreatedAt,
		request.UpdatedAt)
	if err != nil {
		r.Log.Error("failed to create request",
			"error", err,
			"user_id", request.UserID,
			"request_id", request.ID)
		return fmt.Errorf("failed to create request: %w", err)
	}
	r.Log.Debug("request created successfully",
		"id", request.ID,
		"user_id", request.UserID)
	return nil
}

// UpdateResult фиксирует итог обработки
func (r *Repository) UpdateResult(ctx context.Context, request *domain.Request) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3, %s = $4, %s = $5, %s = $6, %s = $7, %s = $8 WHERE %s = $1`,
		r.columns.TableName,
		r.columns.SnapshotVersion,
		r.columns.ResponseText,
		r.columns.Passed,
		r.columns.WasRegenerated,
		r.columns.State,
		r.columns.Mode,
		r.columns.UpdatedAt,
		r.columns.ID)
	affected, err := r.db.ExecWithResult(ctx, query,
		request.ID,
		request.SnapshotVersion,
		request.ResponseText,
		request.Passed,
		request.WasRegenerated,
		request.State,
		request.Mode,
		request.UpdatedAt)
	if err != nil {
		r.Log.Error("failed to update request result", "error", err, "request_id", request.ID)
		return fmt.Errorf("failed to update request result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("request %s: %w", request.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	var request domain.Request
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ID)
	err := r.db.Get(ctx, &request, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Log.Warn("request not found", "request_id", id)
			return nil, fmt.Errorf("request not found: %w", domain.ErrNotFound)
		}
		r.Log.Error("failed to get request by id",
			"error", err,
			"request_id", id)
		return nil, fmt.Errorf("failed to get request by id: %w", err)
	}
	return &request, nil
}

// ListByUser последние вопросы пользователя
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Request, error) {
	var requests []*domain.Request
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s DESC LIMIT $2`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.UserID,
		r.columns.CreatedAt)
	err := r.db.Select(ctx, &requests, query, userID, limit)
	if err != nil {
		r.Log.Error("failed to get requests by user id",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to get requests by user id: %w", err)
	}
	r.Log.Debug("requests retrieved successfully",
		"user_id", userID,
		"count", len(requests))
	return requests, nil
}
