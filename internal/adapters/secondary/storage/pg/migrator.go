package pg

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ключ pg_advisory_lock, чтобы реплики не накатывали миграции одновременно
const migrationLockKey int64 = 0x61737472616e756d

type migration struct {
	Version int64
	Name    string
	SQL     string
}

// Migrate накатывает встроенные миграции, которых ещё нет в schema_migrations.
// Если последняя миграция помечена dirty, запуск прерывается до ручного вмешательства.
func Migrate(ctx context.Context, db *sqlx.DB, log *slog.Logger) error {
	conn, err := db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", migrationLockKey); err != nil {
		return fmt.Errorf("failed to take migration lock: %w", err)
	}
	defer func() {
		if _, err := conn.ExecContext(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", migrationLockKey); err != nil {
			log.Warn("failed to release migration lock", "error", err)
		}
	}()

	if _, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    BIGINT PRIMARY KEY,
			name       TEXT NOT NULL,
			dirty      BOOLEAN NOT NULL DEFAULT FALSE,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var dirty []int64
	if err := conn.SelectContext(ctx, &dirty, "SELECT version FROM schema_migrations WHERE dirty"); err != nil {
		return fmt.Errorf("failed to check dirty migrations: %w", err)
	}
	if len(dirty) > 0 {
		return fmt.Errorf("database has dirty migrations %v, fix them manually", dirty)
	}

	var current int64
	if err := conn.GetContext(ctx, &current, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"); err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	applied := 0
	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		log.Info("applying migration", "version", m.Version, "name", m.Name)
		if err := applyMigration(ctx, conn, m); err != nil {
			markDirty(context.WithoutCancel(ctx), conn, m, log)
			return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
		}
		applied++
	}

	log.Info("database migrations completed", "current_version", current, "applied", applied)
	return nil
}

func applyMigration(ctx context.Context, conn *sqlx.Conn, m migration) error {
	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name, dirty) VALUES ($1, $2, FALSE)",
		m.Version, m.Name,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func markDirty(ctx context.Context, conn *sqlx.Conn, m migration, log *slog.Logger) {
	_, err := conn.ExecContext(ctx, `
		INSERT INTO schema_migrations (version, name, dirty) VALUES ($1, $2, TRUE)
		ON CONFLICT (version) DO UPDATE SET dirty = TRUE`,
		m.Version, m.Name,
	)
	if err != nil {
		log.Error("failed to mark migration dirty", "version", m.Version, "error", err)
	}
}

func loadMigrations() ([]migration, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	migrations := make([]migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, name, err := parseMigrationName(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("invalid migration name %s: %w", entry.Name(), err)
		}

		content, err := migrationsFS.ReadFile(path.Join("migrations", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}

		migrations = append(migrations, migration{Version: version, Name: name, SQL: string(content)})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// parseMigrationName 0001_init.sql -> (1, "init")
func parseMigrationName(filename string) (int64, string, error) {
	version, name, ok := strings.Cut(strings.TrimSuffix(filename, ".sql"), "_")
	if !ok || name == "" {
		return 0, "", fmt.Errorf("expected NNNN_name.sql")
	}

	v, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid version number: %w", err)
	}
	return v, name, nil
}
