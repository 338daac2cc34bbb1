package pg

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

const (
	defaultMaxOpenConnections     = 25
	defaultMaxIdleConnections     = 5
	connMaxLifetime               = 5 * time.Minute
	connMaxIdleTime               = time.Minute
	defaultStatementTimeoutMillis = 30000
)

type Config struct {
	Host                   string `envconfig:"HOST" default:"localhost"`
	Port                   string `envconfig:"PORT" default:"5432"`
	Username               string `envconfig:"USERNAME"`
	Password               string `envconfig:"PASSWORD"`
	Database               string `envconfig:"DATABASE" default:"astranum"`
	SSLMode                string `envconfig:"SSL_MODE" default:"disable"`
	StatementTimeoutMillis int    `envconfig:"STATEMENT_TIMEOUT" default:"30000"`
	MaxOpenConnections     int    `envconfig:"MAX_OPEN_CONNECTIONS" default:"25"`
	MaxIdleConnections     int    `envconfig:"MAX_IDLE_CONNECTIONS" default:"5"`
	RunMigrations          bool   `envconfig:"RUN_MIGRATIONS" default:"true"`
}

func (c *Config) dsn() string {
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s password=%s sslmode=%s",
		c.Host,
		c.Port,
		c.Username,
		c.Database,
		c.Password,
		c.SSLMode,
	)
}

// NewConnection подключение через pgx stdlib с настройками пула.
// statement_timeout передаётся как runtime-параметр, чтобы он действовал на каждом соединении пула.
func (c *Config) NewConnection() (*sqlx.DB, error) {
	connConfig, err := pgx.ParseConfig(c.dsn())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	timeout := c.StatementTimeoutMillis
	if timeout <= 0 {
		timeout = defaultStatementTimeoutMillis
	}
	connConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", timeout)
	connConfig.RuntimeParams["application_name"] = "astranum"

	db, err := sqlx.Connect("pgx", stdlib.RegisterConnConfig(connConfig))
	if err != nil {
		return nil, fmt.Errorf("connect db error: %w", err)
	}

	maxOpen := c.MaxOpenConnections
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConnections
	}
	maxIdle := c.MaxIdleConnections
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdleConnections
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return db, nil
}
