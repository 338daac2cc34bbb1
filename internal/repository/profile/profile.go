package profileRepo

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

type profileColumns struct {
	TableName     string
	UserID        string
	FullName      string
	BirthDate     string
	BirthTime     string
	BirthPlace    string
	GuidanceMode  string
	Language      string
	ResponseStyle string
	CreatedAt     string
	UpdatedAt     string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	columns profileColumns
}

func New(db persistence.Persistence, log *slog.Logger) ports.IProfileRepo {
	cols := profileColumns{
		TableName:     "user_profiles",
		UserID:        "user_id",
		FullName:      "full_name",
		BirthDate:     "birth_date",
		BirthTime:     "birth_time",
		BirthPlace:    "birth_place",
		GuidanceMode:  "guidance_mode",
		Language:      "language",
		ResponseStyle: "response_style",
		CreatedAt:     "created_at",
		UpdatedAt:     "updated_at",
	}
	return &Repository{
		db:      db,
		Log:     log,
		columns: cols,
	}
}

func (r *Repository) allColumns() string {
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
		r.columns.UserID,
		r.columns.FullName,
		r.columns.BirthDate,
		r.columns.BirthTime,
		r.columns.BirthPlace,
		r.columns.GuidanceMode,
		r.columns.Language,
		r.columns.ResponseStyle,
		r.columns.CreatedAt,
		r.columns.UpdatedAt)
}

// Get профиль пользователя
func (r *Repository) Get(ctx context.Context, userID uuid.UUID) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.allColumns(),
		r.columns.TableName,
		r.columns.UserID)
	err := r.db.Get(ctx, &profile, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.Log.Warn("profile not found", "user_id", userID)
			return nil, fmt.Errorf("profile not found: %w", domain.ErrNotFound)
		}
		r.Log.Error("failed to get profile", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// Upsert создаёт профиль или обновляет все поля, кроме created_at
func (r *Repository) Upsert(ctx context.Context, profile *domain.UserProfile) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (%s) DO UPDATE SET
			%s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s,
			%s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s, %s = EXCLUDED.%s`,
		r.columns.TableName,
		r.allColumns(),
		r.columns.UserID,
		r.columns.FullName, r.columns.FullName,
		r.columns.BirthDate, r.columns.BirthDate,
		r.columns.BirthTime, r.columns.BirthTime,
		r.columns.BirthPlace, r.columns.BirthPlace,
		r.columns.GuidanceMode, r.columns.GuidanceMode,
		r.columns.Language, r.columns.Language,
		r.columns.ResponseStyle, r.columns.ResponseStyle,
		r.columns.UpdatedAt, r.columns.UpdatedAt)
	err := r.db.Exec(ctx, query,
		profile.UserID,
		profile.FullName,
		profile.BirthDate,
		profile.BirthTime,
		profile.BirthPlace,
		profile.GuidanceMode,
		profile.Language,
		profile.ResponseStyle,
		profile.CreatedAt,
		profile.UpdatedAt)
	if err != nil {
		r.Log.Error("failed to upsert profile", "error", err, "user_id", profile.UserID)
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	r.Log.Debug("profile saved", "user_id", profile.UserID)
	return nil
}
