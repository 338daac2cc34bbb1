package statusRepo

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

type statusColumns struct {
	TableName    string
	ID           string
	ObjectType   string
	ObjectID     string
	Status       string
	ErrorMessage string
	Metadata     string
	CreatedAt    string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns statusColumns
}

// New история переходов состояний пайплайна
func New(db persistence.Persistence, log *slog.Logger) ports.IStatusRepo {
	cols := statusColumns{
		TableName:    "statuses",
		ID:           "id",
		ObjectType:   "object_type",
		ObjectID:     "object_id",
		Status:       "status",
		ErrorMessage: "error_message",
		Metadata:     "metadata",
		CreatedAt:    "created_at",
	}
	return &Repository{
		db:      db,
		Log:     log,
		columns: cols,
	}
}

func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s",
		r.columns.ID,
		r.columns.ObjectType,
		r.columns.ObjectID,
		r.columns.Status,
		r.columns.ErrorMessage,
		r.columns.Metadata,
		r.columns.CreatedAt)
}

func (r *Repository) Create(ctx context.Context, status *domain.Status) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.columns.TableName,
		r.allColumns())
	var metadata interface{}
	if len(status.Metadata) > 0 {
		metadata = []byte(status.Metadata)
	}
	err := r.db.Exec(ctx, query,
		status.ID,
		status.ObjectType,
		status.ObjectID,
		status.Status,
		status.ErrorMessage,
		metadata,
		status.CreatedAt)
	if err != nil {
		r.Log.Error("failed to create status",
			"error", err,
			"object_id", status.ObjectID,
			"state", status.Status.String())
		return fmt.Errorf("failed to create status: %w", err)
	}
	return nil
}

// GetLatestByObjectID текущее состояние объекта
func (r *Repository) GetLatestByObjectID(ctx context.Context, objectType domain.ObjectType, objectID uuid.UUID) (*domain.Status, error) {
	var status domain.Status
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2 ORDER BY %s DESC, %s DESC LIMIT 1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ObjectType,
		r.columns.ObjectID,
		r.columns.CreatedAt,
		r.columns.Status)
	err := r.db.Get(ctx, &status, query, objectType, objectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("status not found: %w", domain.ErrNotFound)
		}
		r.Log.Error("failed to get latest status", "error", err, "object_type", objectType, "object_id", objectID)
		return nil, fmt.Errorf("failed to get latest status: %w", err)
	}
	return &status, nil
}

// GetByObjectID вся история переходов в хронологическом порядке
func (r *Repository) GetByObjectID(ctx context.Context, objectType domain.ObjectType, objectID uuid.UUID) ([]*domain.Status, error) {
	var statuses []*domain.Status
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2 ORDER BY %s ASC`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.ObjectType,
		r.columns.ObjectID,
		r.columns.CreatedAt)
	if err := r.db.Select(ctx, &statuses, query, objectType, objectID); err != nil {
		r.Log.Error("failed to get statuses by object", "error", err, "object_type", objectType, "object_id", objectID)
		return nil, fmt.Errorf("failed to get statuses by object: %w", err)
	}
	return statuses, nil
}
