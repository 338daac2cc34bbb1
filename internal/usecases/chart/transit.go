package chart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/Aagam-Bothara/astranum-sub001/internal/pkg/metrics"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/cache"
	"github.com/google/uuid"
)

func transitKey(userID uuid.UUID, date string) string {
	return fmt.Sprintf("chart:transit:%s:%s", userID, date)
}

// GetTransitForToday транзиты на текущие сутки; считаются при первом обращении за день
func (s *Service) GetTransitForToday(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.TransitData, error) {
	local := now.In(s.loc)
	date := local.Format(time.DateOnly)
	key := transitKey(userID, date)

	if transit, ok := s.cachedTransit(ctx, key); ok {
		metrics.ObserveTransitCache(true)
		return transit, nil
	}
	metrics.ObserveTransitCache(false)

	v, err, _ := s.transits.Do(key, func() (interface{}, error) {
		day := time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, s.loc)

		mathCtx, cancel := context.WithTimeout(ctx, s.cfg.ChartMathTimeout)
		defer cancel()

		transit, err := s.ChartMath.Transits(mathCtx, day)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to compute transits for %s: %w", domain.ErrChartUnavailable, date, err)
		}
		transit.Date = date

		raw, err := json.Marshal(transit)
		if err == nil {
			err = s.Cache.Set(ctx, key, string(raw), s.cfg.TransitTTL)
		}
		if err != nil {
			s.Log.Warn("failed to cache transits",
				"key", key,
				"error", err,
			)
		}
		return transit, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.TransitData), nil
}

func (s *Service) cachedTransit(ctx context.Context, key string) (*domain.TransitData, bool) {
	raw, err := s.Cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.Log.Warn("transit cache unavailable",
				"key", key,
				"error", err,
			)
		}
		return nil, false
	}

	var transit domain.TransitData
	if err := json.Unmarshal([]byte(raw), &transit); err != nil {
		s.Log.Warn("corrupted transit cache entry",
			"key", key,
			"error", err,
		)
		return nil, false
	}
	return &transit, true
}
