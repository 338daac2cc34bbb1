package guidance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/secondary/storage/inmemory"
	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/repository"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/service"
	"github.com/Aagam-Bothara/astranum-sub001/internal/usecases/generator"
	"github.com/Aagam-Bothara/astranum-sub001/internal/usecases/quota"
	"github.com/Aagam-Bothara/astranum-sub001/internal/usecases/validator"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	groundedReply = `{"empathy_line":"I hear you.","reasons":["Your Life Path number is 7."],"direction":"Take one step at a time.","data_points_used":["life_path"],"full_response":"I hear you. Your Life Path number is 7, which favours quiet reflection. Take one step at a time."}`
	wrongReply    = `{"empathy_line":"I hear you.","reasons":["With life path 3 you love the stage."],"direction":"Go for it.","data_points_used":["life_path"],"full_response":"With life path 3 you are drawn to creative work. Go for it."}`
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedLLM отдаёт ответы по очереди; после конца сценария повторяет последний
type scriptedLLM struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   int
	onCall  func(call int)
}

func (s *scriptedLLM) Complete(_ context.Context, _ service.CompletionRequest) (string, error) {
	s.mu.Lock()
	call := s.calls
	s.calls++
	s.mu.Unlock()

	if s.onCall != nil {
		s.onCall(call)
	}
	var err error
	if call < len(s.errs) {
		err = s.errs[call]
	}
	if err != nil {
		return "", err
	}
	if call < len(s.replies) {
		return s.replies[call], nil
	}
	return s.replies[len(s.replies)-1], nil
}

func (s *scriptedLLM) Provider() string { return "scripted" }

func (s *scriptedLLM) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeCharts struct {
	snapshot   *domain.ChartSnapshot
	err        error
	transitErr error
}

func (f *fakeCharts) GetActive(context.Context, uuid.UUID) (*domain.ChartSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}

func (f *fakeCharts) GetTransitForToday(_ context.Context, _ uuid.UUID, now time.Time) (*domain.TransitData, error) {
	if f.transitErr != nil {
		return nil, f.transitErr
	}
	return &domain.TransitData{
		Date:       now.Format(time.DateOnly),
		Positions:  map[string]domain.PlanetPosition{"saturn": {Sign: "Pisces", Degree: 27.4}},
		ComputedAt: now,
	}, nil
}

func (f *fakeCharts) GetVersion(_ context.Context, _ uuid.UUID, version int) (*domain.ChartSnapshot, error) {
	if f.snapshot.Version != version {
		return nil, domain.ErrNotFound
	}
	return f.snapshot, nil
}

func (f *fakeCharts) ListVersions(context.Context, uuid.UUID) ([]domain.ChartVersionInfo, error) {
	return []domain.ChartVersionInfo{{Version: f.snapshot.Version, CreatedAt: f.snapshot.CreatedAt}}, nil
}

type fixedPlan domain.Tier

func (p fixedPlan) EffectivePlan(context.Context, uuid.UUID, time.Time) (domain.Plan, error) {
	return domain.Plan{Tier: domain.Tier(p)}, nil
}

type commitFailingLedger struct {
	*inmemory.Ledger
}

func (l commitFailingLedger) Commit(context.Context, uuid.UUID, time.Time) error {
	return errors.New("connection reset")
}

type recordingAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (a *recordingAlerter) SendAlert(_ context.Context, message string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
	return nil
}

type harness struct {
	svc      *Service
	quota    *quota.Service
	llm      *scriptedLLM
	charts   *fakeCharts
	requests *inmemory.Requests
	objects  *inmemory.Objects
	alerter  *recordingAlerter
	userID   uuid.UUID
	tier     domain.Tier
}

func testSnapshot() *domain.ChartSnapshot {
	return &domain.ChartSnapshot{
		Version: 1,
		Numerology: &domain.NumerologyData{
			LifePath:    7,
			Destiny:     5,
			SoulUrge:    3,
			Personality: 2,
			BirthDay:    3,
			NameUsed:    "Asha Verma",
		},
		Astrology: &domain.AstrologyData{
			SunSign:    "Taurus",
			SunDegree:  12.3,
			MoonSign:   "Cancer",
			MoonDegree: 4.2,
		},
	}
}

func newHarness(t *testing.T, tier domain.Tier, ledger repository.ILedgerRepo, llm *scriptedLLM) *harness {
	t.Helper()
	log := testLogger()

	q, err := quota.New(quota.Config{}, ledger, log)
	require.NoError(t, err)

	profiles := inmemory.NewProfiles()
	userID := uuid.New()
	require.NoError(t, profiles.Upsert(context.Background(), &domain.UserProfile{
		UserID:        userID,
		FullName:      "Asha Verma",
		BirthDate:     time.Date(1994, 4, 3, 0, 0, 0, 0, time.UTC),
		GuidanceMode:  domain.GuidanceModeNumerology,
		Language:      domain.LanguageEnglish,
		ResponseStyle: domain.ResponseStyleBalanced,
	}))

	h := &harness{
		quota:    q,
		llm:      llm,
		charts:   &fakeCharts{snapshot: testSnapshot()},
		requests: inmemory.NewRequests(),
		objects:  inmemory.NewObjects(),
		alerter:  &recordingAlerter{},
		userID:   userID,
		tier:     tier,
	}
	h.svc = New(Config{ArchiveDegraded: true}, Deps{
		Quota:     q,
		Charts:    h.charts,
		Generator: generator.New(generator.Config{Timeout: time.Second}, llm, log),
		Validator: validator.New(validator.Config{}, log),
		Plans:     fixedPlan(tier),
		Profiles:  profiles,
		Requests:  h.requests,
		Statuses:  h.requests.Statuses(),
		Archive:   h.objects,
		Alerter:   h.alerter,
	}, log)
	return h
}

func (h *harness) usage(t *testing.T) domain.UsageStatus {
	t.Helper()
	usage, err := h.svc.UsageStatus(context.Background(), h.userID)
	require.NoError(t, err)
	return usage
}

func (h *harness) states(t *testing.T, requestID uuid.UUID) []domain.PipelineState {
	t.Helper()
	history, err := h.requests.Statuses().GetByObjectID(context.Background(), domain.ObjectTypeGuidanceRequest, requestID)
	require.NoError(t, err)
	states := make([]domain.PipelineState, len(history))
	for i, st := range history {
		states[i] = st.Status
	}
	return states
}

func (h *harness) lastRequest(t *testing.T) *domain.Request {
	t.Helper()
	list, err := h.requests.ListByUser(context.Background(), h.userID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, list)
	return list[0]
}

func ask(question string) domain.GuidanceRequest {
	return domain.GuidanceRequest{Question: question}
}

func TestAsk_GroundedAnswerCommits(t *testing.T) {
	llm := &scriptedLLM{replies: []string{groundedReply}}
	h := newHarness(t, domain.TierMax, inmemory.NewLedger(), llm)

	resp, err := h.svc.Ask(context.Background(), h.userID, ask("Should I change careers this year?"))
	require.NoError(t, err)
	h.svc.Wait()

	assert.True(t, resp.Validation.Passed)
	assert.False(t, resp.Validation.WasRegenerated)
	assert.Empty(t, resp.Validation.Issues)
	assert.Equal(t, []string{domain.DPLifePath}, resp.DataPointsUsed)
	assert.Equal(t, 1, resp.SnapshotVersion)
	assert.Equal(t, domain.GuidanceModeNumerology, resp.Mode)
	assert.Equal(t, 1, llm.Calls())

	usage := h.usage(t)
	assert.Equal(t, 1, usage.DailyUsed)
	assert.Equal(t, 1, usage.MonthlyUsed)

	assert.Equal(t, []domain.PipelineState{
		domain.StateAdmitting, domain.StateFetching, domain.StateGenerating,
		domain.StateValidating, domain.StateCommitting, domain.StateDone,
	}, h.states(t, resp.RequestID))

	record := h.lastRequest(t)
	assert.Equal(t, domain.StateDone, record.State)
	require.NotNil(t, record.Passed)
	assert.True(t, *record.Passed)
	assert.Equal(t, "Should I change careers this year?", record.Question)
	assert.False(t, record.CreatedAt.IsZero())
	assert.Empty(t, h.objects.Keys())
}

func TestAsk_StrictRetryPasses(t *testing.T) {
	llm := &scriptedLLM{replies: []string{wrongReply, groundedReply}}
	h := newHarness(t, domain.TierMax, inmemory.NewLedger(), llm)

	resp, err := h.svc.Ask(context.Background(), h.userID, ask("What is my life path?"))
	require.NoError(t, err)

	assert.True(t, resp.Validation.Passed)
	assert.True(t, resp.Validation.WasRegenerated)
	assert.Equal(t, 2, llm.Calls())
	assert.Equal(t, 1, h.usage(t).DailyUsed)

	assert.Equal(t, []domain.PipelineState{
		domain.StateAdmitting, domain.StateFetching, domain.StateGenerating,
		domain.StateValidating, domain.StateRetrying, domain.StateValidating,
		domain.StateCommitting, domain.StateDone,
	}, h.states(t, resp.RequestID))
}

func TestAsk_SecondRejectionUsesFallback(t *testing.T) {
	llm := &scriptedLLM{replies: []string{wrongReply, wrongReply, groundedReply}}
	h := newHarness(t, domain.TierMax, inmemory.NewLedger(), llm)

	resp, err := h.svc.Ask(context.Background(), h.userID, ask("What is my life path?"))
	require.NoError(t, err)
	h.svc.Wait()

	// не больше одной повторной генерации
	assert.Equal(t, 2, llm.Calls())
	assert.False(t, resp.Validation.Passed)
	assert.True(t, resp.Validation.WasRegenerated)
	assert.True(t, resp.Degraded())
	assert.NotEmpty(t, resp.Validation.Issues)
	assert.Contains(t, resp.FullResponse, "Life Path number is 7")
	assert.NotContains(t, resp.FullResponse, "life path 3")
	assert.Contains(t, resp.DataPointsUsed, domain.DPLifePath)

	// ответ из шаблона всё равно отдан и списан
	assert.Equal(t, 1, h.usage(t).DailyUsed)

	keys := h.objects.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, ArchivePath(time.Now(), resp.RequestID), keys[0])
}

func TestAsk_RetryGenerationFailureUsesFallback(t *testing.T) {
	llm := &scriptedLLM{
		replies: []string{wrongReply},
		errs:    []error{nil, errors.New("upstream 502")},
	}
	h := newHarness(t, domain.TierMax, inmemory.NewLedger(), llm)

	resp, err := h.svc.Ask(context.Background(), h.userID, ask("What is my life path?"))
	require.NoError(t, err)
	h.svc.Wait()

	assert.True(t, resp.Degraded())
	assert.Contains(t, resp.FullResponse, "Life Path number is 7")
	assert.Equal(t, []domain.PipelineState{
		domain.StateAdmitting, domain.StateFetching, domain.StateGenerating,
		domain.StateValidating, domain.StateRetrying,
		domain.StateCommitting, domain.StateDone,
	}, h.states(t, resp.RequestID))
}

func TestAsk_GenerationUnavailableReleases(t *testing.T) {
	llm := &scriptedLLM{replies: []string{""}, errs: []error{errors.New("timeout")}}
	h := newHarness(t, domain.TierMax, inmemory.NewLedger(), llm)

	_, err := h.svc.Ask(context.Background(), h.userID, ask("Will I travel soon?"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)

	usage := h.usage(t)
	assert.Equal(t, 0, usage.DailyUsed)
	assert.Equal(t, 0, usage.MonthlyUsed)
	assert.Equal(t, domain.StateFailed, h.lastRequest(t).State)
}

func TestAsk_ChartFailureReleases(t *testing.T) {
	llm := &scriptedLLM{replies: []string{groundedReply}}
	h := newHarness(t, domain.TierMax, inmemory.NewLedger(), llm)
	h.charts.err = errors.New("chart math timeout")

	_, err := h.svc.Ask(context.Background(), h.userID, ask("Will I travel soon?"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrChartUnavailable)
	assert.Equal(t, 0, llm.Calls())
	assert.Equal(t, 0, h.usage(t).DailyUsed)
}

func TestAsk_TransitFailureDegradesToNatal(t *testing.T) {
	llm := &scriptedLLM{replies: []string{groundedReply}}
	h := newHarness(t, domain.TierMax, inmemory.NewLedger(), llm)
	h.charts.transitErr = errors.New("ephemeris down")

	resp, err := h.svc.Ask(context.Background(), h.userID, domain.GuidanceRequest{
		Question: "How is my week looking?",
		Mode:     func() *domain.GuidanceMode { m := domain.GuidanceModeBoth; return &m }(),
	})
	require.NoError(t, err)
	assert.True(t, resp.Validation.Passed)
	assert.Equal(t, domain.GuidanceModeBoth, resp.Mode)
}

func TestAsk_CancelledAfterGenerationReleases(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	llm := &scriptedLLM{replies: []string{groundedReply}, onCall: func(int) { cancel() }}
	h := newHarness(t, domain.TierMax, inmemory.NewLedger(), llm)

	_, err := h.svc.Ask(ctx, h.userID, ask("Should I move cities?"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, h.usage(t).DailyUsed)
}

func TestAsk_CommitFailureIsInternalInconsistency(t *testing.T) {
	llm := &scriptedLLM{replies: []string{groundedReply}}
	h := newHarness(t, domain.TierMax, commitFailingLedger{inmemory.NewLedger()}, llm)

	_, err := h.svc.Ask(context.Background(), h.userID, ask("Should I change careers?"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInternalInconsistency)

	// резервация возвращена, алерт отправлен
	assert.Equal(t, 0, h.usage(t).DailyUsed)
	h.alerter.mu.Lock()
	defer h.alerter.mu.Unlock()
	require.Len(t, h.alerter.messages, 1)
	assert.Contains(t, h.alerter.messages[0], "quota commit failed")
}

func TestAsk_FreeTierLifetimeDenial(t *testing.T) {
	llm := &scriptedLLM{replies: []string{groundedReply}}
	h := newHarness(t, domain.TierFree, inmemory.NewLedger(), llm)

	for i := 0; i < 2; i++ {
		_, err := h.svc.Ask(context.Background(), h.userID, ask("What is my life path?"))
		require.NoError(t, err)
	}

	_, err := h.svc.Ask(context.Background(), h.userID, ask("And my career?"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQuotaDenied)

	denied, ok := domain.AsDenied(err)
	require.True(t, ok)
	assert.Equal(t, domain.WindowLifetime, denied.Window)
	assert.False(t, denied.Usage.CanAskQuestion)
	assert.Equal(t, 2, llm.Calls())
	assert.Equal(t, domain.StateDenied, h.lastRequest(t).State)

	usage := h.usage(t)
	require.NotNil(t, usage.LifetimeUsed)
	assert.Equal(t, 2, *usage.LifetimeUsed)
}

func TestAsk_GreetingConsumesNoQuota(t *testing.T) {
	llm := &scriptedLLM{replies: []string{groundedReply}}
	h := newHarness(t, domain.TierFree, inmemory.NewLedger(), llm)

	resp, err := h.svc.Ask(context.Background(), h.userID, ask("Hello!!"))
	require.NoError(t, err)

	assert.True(t, resp.IsGreeting)
	assert.True(t, resp.Validation.Passed)
	assert.True(t, strings.HasPrefix(resp.EmpathyLine, "Namaste, Asha"))
	assert.Equal(t, 0, llm.Calls())

	usage := h.usage(t)
	require.NotNil(t, usage.LifetimeUsed)
	assert.Equal(t, 0, *usage.LifetimeUsed)
}

func TestAsk_ProfileRequired(t *testing.T) {
	llm := &scriptedLLM{replies: []string{groundedReply}}
	h := newHarness(t, domain.TierMax, inmemory.NewLedger(), llm)

	_, err := h.svc.Ask(context.Background(), uuid.New(), ask("Hi there, what about love?"))
	assert.ErrorIs(t, err, domain.ErrProfileRequired)
}

func TestAsk_InvalidRequest(t *testing.T) {
	llm := &scriptedLLM{replies: []string{groundedReply}}
	h := newHarness(t, domain.TierMax, inmemory.NewLedger(), llm)

	_, err := h.svc.Ask(context.Background(), h.userID, ask("   "))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestActiveChart_FiltersByTier(t *testing.T) {
	llm := &scriptedLLM{replies: []string{groundedReply}}
	h := newHarness(t, domain.TierFree, inmemory.NewLedger(), llm)

	view, err := h.svc.ActiveChart(context.Background(), h.userID)
	require.NoError(t, err)

	names := make([]string, 0, len(view.DataPoints))
	for _, p := range view.DataPoints {
		names = append(names, p.Name)
	}
	assert.Contains(t, names, domain.DPLifePath)
	assert.NotContains(t, names, domain.DPDestiny)
	assert.NotContains(t, names, domain.DPTransitDate)
}
