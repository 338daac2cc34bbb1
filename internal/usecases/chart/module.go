package chart

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/cache"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/repository"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/service"
	"golang.org/x/sync/singleflight"
)

type Config struct {
	ChartMathTimeout time.Duration `envconfig:"CHART_MATH_TIMEOUT" default:"10s"`
	TransitTTL       time.Duration `envconfig:"TRANSIT_TTL" default:"25h"`
	Timezone         string        `envconfig:"TIMEZONE" default:"Asia/Kolkata"`
}

// Service версии карт пользователя и транзиты на день
type Service struct {
	ChartRepo   repository.IChartRepo
	ProfileRepo repository.IProfileRepo
	ChartMath   service.IChartMathService
	Cache       cache.Cache
	Log         *slog.Logger

	cfg Config
	loc *time.Location
	now func() time.Time

	// один расчёт на пользователя и набор входных данных
	versions singleflight.Group
	transits singleflight.Group
}

func New(
	cfg Config,
	chartRepo repository.IChartRepo,
	profileRepo repository.IProfileRepo,
	chartMath service.IChartMathService,
	transitCache cache.Cache,
	log *slog.Logger,
) (*Service, error) {
	if cfg.ChartMathTimeout <= 0 {
		cfg.ChartMathTimeout = 10 * time.Second
	}
	if cfg.TransitTTL <= 0 {
		cfg.TransitTTL = 25 * time.Hour
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Kolkata"
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Timezone, err)
	}

	return &Service{
		ChartRepo:   chartRepo,
		ProfileRepo: profileRepo,
		ChartMath:   chartMath,
		Cache:       transitCache,
		Log:         log,
		cfg:         cfg,
		loc:         loc,
		now:         time.Now,
	}, nil
}
