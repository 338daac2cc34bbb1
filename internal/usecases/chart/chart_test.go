package chart

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/secondary/storage/inmemory"
	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/Aagam-Bothara/astranum-sub001/internal/pkg/numerology"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChartMath struct {
	mu           sync.Mutex
	computeCalls int
	transitCalls int
	delay        time.Duration
	err          error
}

func (f *fakeChartMath) Compute(ctx context.Context, input service.ChartInput) (*domain.NumerologyData, *domain.AstrologyData, error) {
	f.mu.Lock()
	f.computeCalls++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, nil, f.err
	}

	n := numerology.Compute(input.FullName, input.BirthDate, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC))
	num := &domain.NumerologyData{
		LifePath:    n.LifePath,
		Destiny:     n.Destiny,
		SoulUrge:    n.SoulUrge,
		Personality: n.Personality,
		BirthDay:    n.BirthDay,
		NameUsed:    n.NameUsed,
	}

	asc, ascDegree, house := "Virgo", 12.5, 8
	astro := &domain.AstrologyData{
		SunSign:         "Taurus",
		SunDegree:       12.3,
		MoonSign:        "Cancer",
		MoonDegree:      4.2,
		Ascendant:       &asc,
		AscendantDegree: &ascDegree,
		Planets: map[string]domain.PlanetPosition{
			"mars": {Sign: "Aries", Degree: 3.1, House: &house},
		},
		Houses: map[int]domain.HousePosition{1: {Sign: "Virgo", Degree: 12.5}},
	}
	return num, astro, nil
}

func (f *fakeChartMath) Transits(_ context.Context, date time.Time) (*domain.TransitData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitCalls++
	return &domain.TransitData{
		Date: date.Format(time.DateOnly),
		Positions: map[string]domain.PlanetPosition{
			"saturn": {Sign: "Pisces", Degree: 27.4},
		},
		ComputedAt: date,
	}, nil
}

type fixture struct {
	svc      *Service
	math     *fakeChartMath
	charts   *inmemory.Charts
	profiles *inmemory.Profiles
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		math:     &fakeChartMath{},
		charts:   inmemory.NewCharts(),
		profiles: inmemory.NewProfiles(),
	}
	svc, err := New(Config{Timezone: "UTC"}, f.charts, f.profiles, f.math, inmemory.NewCache(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	f.svc = svc
	return f
}

func testProfile(userID uuid.UUID) *domain.UserProfile {
	return &domain.UserProfile{
		UserID:        userID,
		FullName:      "Asha Verma",
		BirthDate:     time.Date(1990, 5, 3, 0, 0, 0, 0, time.UTC),
		GuidanceMode:  domain.GuidanceModeBoth,
		Language:      domain.LanguageEnglish,
		ResponseStyle: domain.ResponseStyleBalanced,
	}
}

func TestGetActive_ProfileRequired(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetActive(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrProfileRequired)
}

func TestGetActive_NoBirthTimeStripsAscendant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	require.NoError(t, f.profiles.Upsert(ctx, testProfile(userID)))

	snapshot, err := f.svc.GetActive(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.Version)
	assert.False(t, snapshot.HasBirthTime())
	assert.Nil(t, snapshot.Astrology.Ascendant)
	assert.Empty(t, snapshot.Astrology.Houses)
	assert.Nil(t, snapshot.Astrology.Planets["mars"].House)
	assert.False(t, domain.ExtractDataPoints(snapshot).Has(domain.DPAscendant))
}

// Изменение времени рождения даёт версию 2, версия 1 остаётся доступной без изменений
func TestGetActive_ProfileEditCreatesVersion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	profile := testProfile(userID)
	require.NoError(t, f.profiles.Upsert(ctx, profile))

	first, err := f.svc.GetActive(ctx, userID)
	require.NoError(t, err)
	again, err := f.svc.GetActive(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first.Version, again.Version)
	assert.Equal(t, 1, f.math.computeCalls, "unchanged profile reuses the snapshot")

	birthTime := "06:45"
	edited := *profile
	edited.BirthTime = &birthTime
	require.NoError(t, f.profiles.Upsert(ctx, &edited))

	second, err := f.svc.GetActive(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
	assert.True(t, second.HasBirthTime())
	require.NotNil(t, second.Astrology.Ascendant)
	assert.Equal(t, "Virgo", *second.Astrology.Ascendant)

	old, err := f.svc.GetVersion(ctx, userID, 1)
	require.NoError(t, err)
	assert.Equal(t, first.InputHash, old.InputHash)
	assert.Nil(t, old.Astrology.Ascendant)
}

func TestCreateVersion_DoubleSubmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.math.delay = 50 * time.Millisecond
	userID := uuid.New()
	profile := testProfile(userID)

	var wg sync.WaitGroup
	versions := make([]int, 8)
	for i := range versions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snapshot, err := f.svc.CreateVersion(ctx, userID, profile)
			if assert.NoError(t, err) {
				versions[i] = snapshot.Version
			}
		}(i)
	}
	wg.Wait()

	for _, v := range versions {
		assert.Equal(t, 1, v)
	}
	assert.Equal(t, 1, f.charts.Inserts())
}

func TestCreateVersion_ChartMathFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.math.err = errors.New("ephemeris offline")
	userID := uuid.New()
	require.NoError(t, f.profiles.Upsert(ctx, testProfile(userID)))

	_, err := f.svc.GetActive(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrChartUnavailable)
	assert.Zero(t, f.charts.Inserts())
}

func TestGetTransitForToday_CachedPerDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	morning := time.Date(2026, 10, 16, 6, 0, 0, 0, time.UTC)

	first, err := f.svc.GetTransitForToday(ctx, userID, morning)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-16", first.Date)

	second, err := f.svc.GetTransitForToday(ctx, userID, morning.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "Pisces", second.Positions["saturn"].Sign)
	assert.Equal(t, 1, f.math.transitCalls)

	next, err := f.svc.GetTransitForToday(ctx, userID, morning.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "2026-10-17", next.Date)
	assert.Equal(t, 2, f.math.transitCalls)
}

func TestView_FiltersByTier(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	birthTime := "06:45"
	profile := testProfile(userID)
	profile.BirthTime = &birthTime
	require.NoError(t, f.profiles.Upsert(ctx, profile))

	snapshot, err := f.svc.GetActive(ctx, userID)
	require.NoError(t, err)

	names := func(view *domain.ChartView) []string {
		out := make([]string, 0, len(view.DataPoints))
		for _, p := range view.DataPoints {
			out = append(out, p.Name)
		}
		return out
	}

	free := View(snapshot, domain.TierFree)
	assert.Contains(t, names(free), domain.DPLifePath)
	assert.Contains(t, names(free), "moon_sign")
	assert.NotContains(t, names(free), "mars_sign")
	assert.NotContains(t, names(free), domain.DPAscendant)
	assert.NotContains(t, names(free), domain.DPDestiny)

	pro := View(snapshot, domain.TierPro)
	assert.Contains(t, names(pro), "mars_sign")
	assert.Contains(t, names(pro), domain.DPAscendant)
	assert.Contains(t, names(pro), "house_1_sign")
	assert.True(t, pro.HasBirthTime)
}
