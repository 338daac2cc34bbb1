package quota

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/secondary/storage/inmemory"
	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *inmemory.Ledger) {
	t.Helper()
	ledger := inmemory.NewLedger()
	svc, err := New(Config{Timezone: "UTC"}, ledger, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return svc, ledger
}

func TestPeriodKey(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 20:00 UTC это уже следующий день в Индии
	now := time.Date(2026, 3, 31, 20, 0, 0, 0, time.UTC)
	calendar := domain.Plan{Tier: domain.TierStarter}

	assert.Equal(t, "2026-04-01", PeriodKey(domain.WindowDaily, calendar, now, loc))
	assert.Equal(t, "2026-04", PeriodKey(domain.WindowMonthly, calendar, now, loc))
	assert.Equal(t, domain.LifetimePeriodKey, PeriodKey(domain.WindowLifetime, calendar, now, loc))
}

func TestPeriodKey_BillingCycle(t *testing.T) {
	anchor := time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)
	plan := domain.Plan{Tier: domain.TierPro, CycleAnchor: &anchor}

	cases := []struct {
		name string
		now  time.Time
		want string
	}{
		{"february clamps to last day", time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC), "cycle:2026-02-28"},
		{"before clamped start", time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC), "cycle:2026-01-31"},
		{"regular month", time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), "cycle:2026-03-31"},
		{"early in month belongs to previous cycle", time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), "cycle:2026-02-28"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PeriodKey(domain.WindowMonthly, plan, tc.now, time.UTC))
		})
	}
}

func TestChargedWindows(t *testing.T) {
	now := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

	free := chargedWindows(domain.Plan{Tier: domain.TierFree}, now, time.UTC)
	require.Len(t, free, 3)
	assert.Equal(t, domain.WindowLifetime, free[2].Window)

	starter := chargedWindows(domain.Plan{Tier: domain.TierStarter}, now, time.UTC)
	require.Len(t, starter, 2)
	assert.Equal(t, domain.WindowDaily, starter[0].Window)
	assert.Equal(t, domain.WindowMonthly, starter[1].Window)
}

// Starter: 3 в день, 15 в месяц. 14 использовано в месяце, 1 сегодня.
// Следующий вопрос проходит, а после него отказ по месячному окну при свободном дневном.
func TestCheckAndReserve_MonthlyDeniesBeforeDaily(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	userID := uuid.New()
	plan := domain.Plan{Tier: domain.TierStarter}

	day := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 13; i++ {
		at := day.AddDate(0, 0, i/3)
		_, res, err := svc.CheckAndReserve(ctx, userID, plan, at)
		require.NoError(t, err)
		require.NoError(t, svc.Commit(ctx, res))
	}

	today := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	_, res, err := svc.CheckAndReserve(ctx, userID, plan, today)
	require.NoError(t, err)
	require.NoError(t, svc.Commit(ctx, res))

	usage, err := svc.Status(ctx, userID, plan, today)
	require.NoError(t, err)
	assert.Equal(t, 14, usage.MonthlyUsed)
	assert.Equal(t, 1, usage.DailyUsed)
	assert.True(t, usage.CanAskQuestion)

	usage, res, err = svc.CheckAndReserve(ctx, userID, plan, today.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, usage.MonthlyRemaining)
	require.NoError(t, svc.Commit(ctx, res))

	usage, res, err = svc.CheckAndReserve(ctx, userID, plan, today.Add(2*time.Hour))
	require.ErrorIs(t, err, domain.ErrQuotaDenied)
	assert.Nil(t, res)

	denied, ok := domain.AsDenied(err)
	require.True(t, ok)
	assert.Equal(t, domain.WindowMonthly, denied.Window)
	assert.False(t, usage.CanAskQuestion)
	assert.Equal(t, 1, usage.DailyRemaining)
	require.NotNil(t, usage.LimitMessage)
	assert.Equal(t, "Monthly limit reached (15 questions). Upgrade for more.", *usage.LimitMessage)
}

func TestCheckAndReserve_DailyExhaustedWithMonthlyLeft(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	userID := uuid.New()
	plan := domain.Plan{Tier: domain.TierStarter}

	earlier := []time.Time{
		time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 1, 11, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 2, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 2, 11, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 3, 9, 0, 0, 0, time.UTC),
	}
	today := time.Date(2026, 10, 16, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		earlier = append(earlier, today.Add(time.Duration(i)*time.Hour))
	}
	for _, at := range earlier {
		_, res, err := svc.CheckAndReserve(ctx, userID, plan, at)
		require.NoError(t, err)
		require.NoError(t, svc.Commit(ctx, res))
	}

	usage, res, err := svc.CheckAndReserve(ctx, userID, plan, today.Add(4*time.Hour))
	require.ErrorIs(t, err, domain.ErrQuotaDenied)
	assert.Nil(t, res)

	denied, ok := domain.AsDenied(err)
	require.True(t, ok)
	assert.Equal(t, domain.WindowDaily, denied.Window)
	assert.Equal(t, 0, usage.DailyRemaining)
	assert.Equal(t, 5, usage.MonthlyRemaining)
	require.NotNil(t, usage.LimitMessage)
	assert.Equal(t, "Daily limit reached (3 questions). Try again tomorrow.", *usage.LimitMessage)
}

func TestCheckAndReserve_FreeLifetime(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	userID := uuid.New()
	plan := domain.Plan{Tier: domain.TierFree}
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		_, res, err := svc.CheckAndReserve(ctx, userID, plan, now.AddDate(0, i, 0))
		require.NoError(t, err)
		require.NoError(t, svc.Commit(ctx, res))
	}

	usage, _, err := svc.CheckAndReserve(ctx, userID, plan, now.AddDate(0, 3, 0))
	require.ErrorIs(t, err, domain.ErrQuotaDenied)
	require.NotNil(t, usage.LifetimeRemaining)
	assert.Equal(t, 0, *usage.LifetimeRemaining)
	assert.Equal(t, "You've used your 2 free questions. Upgrade to continue.", *usage.LimitMessage)
}

func TestRelease_RestoresQuota(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	userID := uuid.New()
	plan := domain.Plan{Tier: domain.TierFree}
	now := time.Now()

	before, err := svc.Status(ctx, userID, plan, now)
	require.NoError(t, err)

	_, res, err := svc.CheckAndReserve(ctx, userID, plan, now)
	require.NoError(t, err)
	require.NoError(t, svc.Release(ctx, res))
	require.NoError(t, svc.Release(ctx, res), "second release is a no-op")
	assert.Error(t, svc.Commit(ctx, res), "released reservation cannot be committed")

	after, err := svc.Status(ctx, userID, plan, now)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

// Параллельные запросы одного пользователя не превышают лимит
func TestCheckAndReserve_Linearizable(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	userID := uuid.New()
	plan := domain.Plan{Tier: domain.TierMax}
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	var admitted, denied atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, res, err := svc.CheckAndReserve(ctx, userID, plan, now)
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrQuotaDenied)
				denied.Add(1)
				return
			}
			admitted.Add(1)
			assert.NoError(t, svc.Commit(ctx, res))
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 10, admitted.Load())
	assert.EqualValues(t, 40, denied.Load())

	usage, err := svc.Status(ctx, userID, plan, now)
	require.NoError(t, err)
	assert.Equal(t, 10, usage.DailyUsed)
	assert.Equal(t, 0, usage.DailyRemaining)
}

func TestReleaseExpired(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	userID := uuid.New()
	plan := domain.Plan{Tier: domain.TierPro}
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	_, stale, err := svc.CheckAndReserve(ctx, userID, plan, now)
	require.NoError(t, err)
	_, fresh, err := svc.CheckAndReserve(ctx, userID, plan, now.Add(2*time.Minute))
	require.NoError(t, err)

	released, err := svc.ReleaseExpired(ctx, now.Add(4*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	assert.Error(t, svc.Commit(ctx, stale))
	assert.NoError(t, svc.Commit(ctx, fresh))

	usage, err := svc.Status(ctx, userID, plan, now)
	require.NoError(t, err)
	assert.Equal(t, 1, usage.DailyUsed)
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	svc, ledger := newService(t)
	userID := uuid.New()
	plan := domain.Plan{Tier: domain.TierStarter}
	old := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	_, res, err := svc.CheckAndReserve(ctx, userID, plan, old)
	require.NoError(t, err)
	svc.now = func() time.Time { return old }
	require.NoError(t, svc.Commit(ctx, res))

	require.NoError(t, svc.Prune(ctx, old.AddDate(0, 1, 0)))

	_, err = ledger.GetReservation(ctx, res.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	usage, err := svc.Status(ctx, userID, plan, old)
	require.NoError(t, err)
	assert.Equal(t, 0, usage.DailyUsed, "old daily row is pruned")
	assert.Equal(t, 1, usage.MonthlyUsed, "monthly rows are kept")
}
