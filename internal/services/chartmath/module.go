package chartmath

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/secondary/astroApi"
	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/Aagam-Bothara/astranum-sub001/internal/pkg/numerology"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/service"
)

// ErrAstrologyDisabled астрологический API не настроен
var ErrAstrologyDisabled = errors.New("astrology API is not configured")

type Config struct {
	// паузы между повторами временных ошибок API
	RetryDelays []time.Duration `envconfig:"RETRY_DELAYS" default:"200ms,600ms"`
}

// Service реализует IChartMathService: нумерология считается локально,
// позиции планет запрашиваются у астрологического API
type Service struct {
	Astro service.IAstroAPIService
	Log   *slog.Logger

	retryDelays []time.Duration
	now         func() time.Time
}

var _ service.IChartMathService = (*Service)(nil)

// New astro может быть nil, тогда карта только нумерологическая
func New(cfg Config, astro service.IAstroAPIService, log *slog.Logger) *Service {
	return &Service{
		Astro:       astro,
		Log:         log,
		retryDelays: cfg.RetryDelays,
		now:         time.Now,
	}
}

func (s *Service) Compute(ctx context.Context, input service.ChartInput) (*domain.NumerologyData, *domain.AstrologyData, error) {
	num := Numerology(input.FullName, input.BirthDate, s.now())
	if s.Astro == nil {
		return num, nil, nil
	}

	var astro *domain.AstrologyData
	err := s.withRetry(ctx, "natal", func(ctx context.Context) error {
		var err error
		astro, err = s.Astro.NatalPositions(ctx, input)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compute natal positions: %w", err)
	}
	return num, astro, nil
}

func (s *Service) Transits(ctx context.Context, date time.Time) (*domain.TransitData, error) {
	if s.Astro == nil {
		return nil, ErrAstrologyDisabled
	}

	var positions map[string]domain.PlanetPosition
	err := s.withRetry(ctx, "transit", func(ctx context.Context) error {
		var err error
		positions, err = s.Astro.TransitPositions(ctx, date)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute transits: %w", err)
	}

	return &domain.TransitData{
		Date:       date.Format(time.DateOnly),
		Positions:  positions,
		ComputedAt: s.now().UTC(),
	}, nil
}

// withRetry повторяет только временные ошибки; пауза прерывается отменой контекста
func (s *Service) withRetry(ctx context.Context, op string, call func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = call(ctx); err == nil {
			return nil
		}
		if !astroApi.IsTemporary(err) || attempt >= len(s.retryDelays) {
			return err
		}

		s.Log.Debug("astro API call failed, retrying",
			"op", op,
			"attempt", attempt+1,
			"error", err,
		)
		timer := time.NewTimer(s.retryDelays[attempt])
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}

// Numerology все нумерологические числа профиля
func Numerology(fullName string, birthDate, today time.Time) *domain.NumerologyData {
	r := numerology.Compute(fullName, birthDate, today)
	maturity, personalYear, birthday := r.Maturity, r.PersonalYear, r.BirthdayNumber
	return &domain.NumerologyData{
		LifePath:       r.LifePath,
		Destiny:        r.Destiny,
		SoulUrge:       r.SoulUrge,
		Personality:    r.Personality,
		BirthDay:       r.BirthDay,
		NameUsed:       r.NameUsed,
		Maturity:       &maturity,
		PersonalYear:   &personalYear,
		BirthdayNumber: &birthday,
		KarmicDebt:     r.KarmicDebt,
	}
}
