package chartRepo

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

type chartColumns struct {
	TableName      string
	ID             string
	UserID         string
	Version        string
	InputHash      string
	NumerologyData string
	AstrologyData  string
	CreatedAt      string
}

type Repository struct {
	db      persistence.Transactor
	Log     *slog.Logger
	columns chartColumns
}

// New репозиторий версий карт
func New(db persistence.Transactor, log *slog.Logger) ports.IChartRepo {
	cols := chartColumns{
		TableName:      "chart_snapshots",
		ID:             "id",
		UserID:         "user_id",
		Version:        "version",
		InputHash:      "input_hash",
		NumerologyData: "numerology_data",
		AstrologyData:  "astrology_data",
		CreatedAt:      "created_at",
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
		r.columns.UserID,
		r.columns.Version,
		r.columns.InputHash,
		r.columns.NumerologyData,
		r.columns.AstrologyData,
		r.columns.CreatedAt)
}

// GetLatest последняя версия карты пользователя
func (r *Repository) GetLatest(ctx context.Context, userID uuid.UUID) (*domain.ChartSnapshot, error) {
	return r.getLatest(ctx, r.db, userID)
}

func (r *Repository) getLatest(ctx context.Context, db persistence.Persistence, userID uuid.UUID) (*domain.ChartSnapshot, error) {
	var snapshot domain.ChartSnapshot
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s DESC LIMIT 1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.UserID,
		r.columns.Version)
	err := db.Get(ctx, &snapshot, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Log.Debug("chart not found", "user_id", userID)
			return nil, fmt.Errorf("chart not found: %w", domain.ErrNotFound)
		}
		r.Log.Error("failed to get latest chart", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to get latest chart: %w", err)
	}
	return &snapshot, nil
}

// GetVersion конкретная версия карты для аудита
func (r *Repository) GetVersion(ctx context.Context, userID uuid.UUID, version int) (*domain.ChartSnapshot, error) {
	var snapshot domain.ChartSnapshot
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.UserID,
		r.columns.Version)
	err := r.db.Get(ctx, &snapshot, query, userID, version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Log.Warn("chart version not found", "user_id", userID, "version", version)
			return nil, fmt.Errorf("chart version not found: %w", domain.ErrNotFound)
		}
		r.Log.Error("failed to get chart version", "error", err, "user_id", userID, "version", version)
		return nil, fmt.Errorf("failed to get chart version: %w", err)
	}
	return &snapshot, nil
}

func (r *Repository) ListVersions(ctx context.Context, userID uuid.UUID) ([]*domain.ChartSnapshot, error) {
	var snapshots []*domain.ChartSnapshot
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s ASC`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.UserID,
		r.columns.Version)
	if err := r.db.Select(ctx, &snapshots, query, userID); err != nil {
		r.Log.Error("failed to list chart versions", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to list chart versions: %w", err)
	}
	return snapshots, nil
}

// AppendVersion вставляет latest+1 под pg_advisory_xact_lock по пользователю.
// Повторная отправка с тем же InputHash возвращает существующую последнюю версию.
func (r *Repository) AppendVersion(ctx context.Context, snapshot *domain.ChartSnapshot) (*domain.ChartSnapshot, error) {
	var result *domain.ChartSnapshot

	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx persistence.Transaction) error {
		if err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", snapshot.UserID.String()); err != nil {
			return fmt.Errorf("failed to lock user charts: %w", err)
		}

		latest, err := r.getLatest(ctx, tx, snapshot.UserID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if latest != nil && latest.InputHash == snapshot.InputHash {
			r.Log.Debug("chart inputs unchanged, reusing latest version",
				"user_id", snapshot.UserID,
				"version", latest.Version)
			result = latest
			return nil
		}

		next := *snapshot
		next.Version = 1
		if latest != nil {
			next.Version = latest.Version + 1
		}
		if next.ID == uuid.Nil {
			next.ID = uuid.New()
		}

		query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			r.columns.TableName,
			r.allColumns())
		err = tx.Exec(ctx, query,
			next.ID,
			next.UserID,
			next.Version,
			next.InputHash,
			next.Numerology,
			next.Astrology,
			next.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert chart version: %w", err)
		}

		result = &next
		return nil
	})
	if err != nil {
		r.Log.Error("failed to append chart version", "error", err, "user_id", snapshot.UserID)
		return nil, err
	}

	r.Log.Debug("chart version stored", "user_id", result.UserID, "version", result.Version)
	return result, nil
}
