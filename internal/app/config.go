package app

import (
	"fmt"
	"time"

	server "github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http"
	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http/middlewares"
	alerterAdapter "github.com/Aagam-Bothara/astranum-sub001/internal/adapters/secondary/alerter"
	astroApi "github.com/Aagam-Bothara/astranum-sub001/internal/adapters/secondary/astroApi"
	kafkaAdapter "github.com/Aagam-Bothara/astranum-sub001/internal/adapters/secondary/kafka"
	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/secondary/llm"
	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/Aagam-Bothara/astranum-sub001/internal/adapters/secondary/storage/redis"
	s3Adapter "github.com/Aagam-Bothara/astranum-sub001/internal/adapters/secondary/storage/s3"
	"github.com/Aagam-Bothara/astranum-sub001/internal/pkg/logger"
	"github.com/Aagam-Bothara/astranum-sub001/internal/services/chartmath"
	"github.com/Aagam-Bothara/astranum-sub001/internal/usecases/chart"
	"github.com/Aagam-Bothara/astranum-sub001/internal/usecases/generator"
	"github.com/Aagam-Bothara/astranum-sub001/internal/usecases/guidance"
	"github.com/Aagam-Bothara/astranum-sub001/internal/usecases/quota"
	"github.com/Aagam-Bothara/astranum-sub001/internal/usecases/subscription"
	"github.com/Aagam-Bothara/astranum-sub001/internal/usecases/validator"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	Env           string                      `envconfig:"ENV" default:"local"`
	StorageDriver string                      `envconfig:"STORAGE_DRIVER" default:"postgres"` // postgres | memory
	Postgres      *pg.Config                  `envconfig:"POSTGRES"`
	Redis         *redisAdapter.Config        `envconfig:"REDIS"`
	S3            *s3Adapter.Config           `envconfig:"S3"`
	Log           *logger.Config              `envconfig:"LOG"`
	Server        *server.Config              `envconfig:"APISERVER"`
	Auth          middlewares.AuthConfig      `envconfig:"JWT"`
	RateLimit     middlewares.RateLimitConfig `envconfig:"RATE_LIMIT"`
	AdminToken    string                      `envconfig:"ADMIN_TOKEN"`
	AstroAPI      *astroApi.Config            `envconfig:"ASTRO_API"`
	LLM           llm.Config                  `envconfig:"LLM"`
	Kafka         kafkaAdapter.KafkaConfigs   `envconfig:"KAFKA"`
	Alerter       *alerterAdapter.Config      `envconfig:"ALERTER"`
	AlertLimit    AlertLimitConfig            `envconfig:"ALERT_LIMIT"`
	Jobs          JobsConfig                  `envconfig:"JOBS"`

	Quota        quota.Config        `envconfig:"QUOTA"`
	Chart        chart.Config        `envconfig:"CHART"`
	ChartMath    chartmath.Config    `envconfig:"CHARTMATH"`
	Generator    generator.Config    `envconfig:"GENERATOR"`
	Validator    validator.Config    `envconfig:"VALIDATOR"`
	Guidance     guidance.Config     `envconfig:"GUIDANCE"`
	Subscription subscription.Config `envconfig:"SUBSCRIPTION"`
}

// AlertLimitConfig не больше Burst алертов подряд, дальше один в Every
type AlertLimitConfig struct {
	Every time.Duration `envconfig:"EVERY" default:"1m"`
	Burst int           `envconfig:"BURST" default:"5"`
}

type JobsConfig struct {
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	PruneEnabled  bool          `envconfig:"PRUNE_ENABLED" default:"true"`
}

func NewEnvConfig(envPrefix string) (*Config, error) {
	cfg := &Config{}

	_ = godotenv.Load("deployments/local/.env")

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, err
	}

	// Загружаем Kafka конфигурацию вручную (envconfig не умеет определять размер слайса)
	if err := cfg.Kafka.Load(envPrefix); err != nil {
		return nil, fmt.Errorf("failed to load kafka config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.Postgres == nil {
			return fmt.Errorf("postgres config is required for storage driver %q", c.StorageDriver)
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Server == nil {
		c.Server = &server.Config{Port: "8080", Mode: "release", WriteTimeout: time.Minute}
	}
	return nil
}
