package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/secondary/storage/inmemory"
	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCharts struct {
	calls int
	err   error
}

func (c *countingCharts) CreateVersion(_ context.Context, _ uuid.UUID, _ *domain.UserProfile) (*domain.ChartSnapshot, error) {
	c.calls++
	return &domain.ChartSnapshot{Version: c.calls}, c.err
}

func TestUpdate_ChartVersionOnlyWhenBirthDataChanges(t *testing.T) {
	ctx := context.Background()
	charts := &countingCharts{}
	svc := New(inmemory.NewProfiles(), charts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	userID := uuid.New()

	saved, err := svc.Update(ctx, &domain.UserProfile{
		UserID:    userID,
		FullName:  "  Asha Verma ",
		BirthDate: time.Date(1990, 5, 3, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha Verma", saved.FullName)
	assert.Equal(t, domain.GuidanceModeBoth, saved.GuidanceMode)
	assert.Equal(t, domain.LanguageEnglish, saved.Language)
	assert.Equal(t, 1, charts.calls)

	styled := *saved
	styled.ResponseStyle = domain.ResponseStyleDirect
	_, err = svc.Update(ctx, &styled)
	require.NoError(t, err)
	assert.Equal(t, 1, charts.calls, "style change keeps the chart")

	birthTime := "06:45"
	timed := styled
	timed.BirthTime = &birthTime
	_, err = svc.Update(ctx, &timed)
	require.NoError(t, err)
	assert.Equal(t, 2, charts.calls)

	got, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, saved.CreatedAt, got.CreatedAt)
}

func TestUpdate_ChartFailureDoesNotFailUpdate(t *testing.T) {
	charts := &countingCharts{err: errors.New("ephemeris offline")}
	svc := New(inmemory.NewProfiles(), charts, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.Update(context.Background(), &domain.UserProfile{
		UserID:    uuid.New(),
		FullName:  "Asha Verma",
		BirthDate: time.Date(1990, 5, 3, 0, 0, 0, 0, time.UTC),
	})
	assert.NoError(t, err)
}

func TestUpdate_Invalid(t *testing.T) {
	svc := New(inmemory.NewProfiles(), &countingCharts{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.Update(context.Background(), &domain.UserProfile{UserID: uuid.New(), FullName: "Asha"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
