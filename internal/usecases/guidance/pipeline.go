package guidance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/Aagam-Bothara/astranum-sub001/internal/pkg/metrics"
	"github.com/Aagam-Bothara/astranum-sub001/internal/usecases/validator"
	"github.com/google/uuid"
)

// Ask отвечает на вопрос пользователя.
// Квота списывается только за отданный ответ; при любой ошибке резервация возвращается.
func (s *Service) Ask(ctx context.Context, userID uuid.UUID, req domain.GuidanceRequest) (*domain.GuidanceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.Question = strings.TrimSpace(req.Question)

	profile, err := s.Profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrProfileRequired
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	language := req.ResolveLanguage(profile)
	if IsGreeting(req.Question) {
		metrics.ObservePipeline("greeting", "")
		return greetingResponse(profile, language), nil
	}

	now := s.now()
	plan, err := s.Plans.EffectivePlan(ctx, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plan: %w", err)
	}

	r := &run{
		id:       uuid.New(),
		userID:   userID,
		request:  req,
		profile:  profile,
		plan:     plan,
		mode:     req.ResolveMode(profile, domain.GetTierConfig(plan.Tier).Features),
		language: language,
		state:    domain.StateAdmitting,
	}
	s.createRequest(ctx, r)
	s.recordStatus(ctx, r, nil)

	_, res, err := s.Quota.CheckAndReserve(ctx, userID, plan, now)
	if err != nil {
		if _, ok := domain.AsDenied(err); ok {
			s.finish(ctx, r, domain.StateDenied, err)
			return nil, err
		}
		s.finish(ctx, r, domain.StateFailed, err)
		return nil, err
	}
	r.reservation = res

	if err := s.answer(ctx, r); err != nil {
		s.release(ctx, r)
		s.finish(ctx, r, domain.StateFailed, err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		s.release(ctx, r)
		s.finish(ctx, r, domain.StateFailed, err)
		return nil, err
	}

	if err := s.commit(ctx, r); err != nil {
		s.finish(ctx, r, domain.StateFailed, err)
		return nil, err
	}

	resp := s.response(r)
	s.finish(ctx, r, domain.StateDone, nil)
	s.publish(ctx, r)
	if r.degraded {
		s.archive(ctx, r, resp)
	}
	return resp, nil
}

// answer Fetching -> Generating -> Validating (-> Retrying -> Validating)
func (s *Service) answer(ctx context.Context, r *run) error {
	if err := s.step(ctx, r, domain.StateFetching); err != nil {
		return err
	}

	snapshot, err := s.Charts.GetActive(ctx, r.userID)
	if err != nil {
		if errors.Is(err, domain.ErrChartUnavailable) || errors.Is(err, domain.ErrProfileRequired) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrChartUnavailable, err)
	}

	features := domain.GetTierConfig(r.plan.Tier).Features
	if r.mode.UsesAstrology() && features.Transits {
		transit, err := s.Charts.GetTransitForToday(ctx, r.userID, s.now())
		if err != nil {
			s.Log.Warn("transits unavailable, answering without them",
				"request_id", r.id,
				"error", err,
			)
		} else {
			snapshot = snapshot.WithTransit(transit)
		}
	}
	r.snapshot = snapshot

	vocabulary := s.vocabulary(r, features)
	constraints := domain.GenerationConstraints{
		MaxChars:     domain.GetTierConfig(r.plan.Tier).MaxResponseChars,
		Vocabulary:   vocabulary,
		HasBirthTime: snapshot.HasBirthTime(),
		Mode:         r.mode,
		Language:     r.language,
		Style:        r.profile.ResponseStyle,
	}
	ground := validator.Ground{
		Snapshot:         snapshot,
		Vocabulary:       vocabulary,
		MaxResponseChars: constraints.MaxChars,
	}

	if err := s.step(ctx, r, domain.StateGenerating); err != nil {
		return err
	}
	candidate, err := s.Generator.Generate(ctx, r.request, snapshot, constraints)
	if err != nil {
		return err
	}

	if err := s.step(ctx, r, domain.StateValidating); err != nil {
		return err
	}
	result := s.Validator.Validate(candidate, ground)
	metrics.ObserveValidation(1, result.Passed)
	if result.Passed {
		r.candidate, r.result = candidate, result
		return nil
	}

	s.Log.Info("candidate rejected, regenerating in strict mode",
		"request_id", r.id,
		"issues", result.Issues,
	)
	if err := s.step(ctx, r, domain.StateRetrying); err != nil {
		return err
	}

	strict := constraints
	strict.Strict = true
	strict.PreviousIssues = result.Issues

	retry, err := s.Generator.Generate(ctx, r.request, snapshot, strict)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.Log.Warn("strict regeneration failed, using fallback",
			"request_id", r.id,
			"error", err,
		)
		s.useFallback(r, vocabulary, constraints.MaxChars, result.Issues)
		return nil
	}

	if err := s.step(ctx, r, domain.StateValidating); err != nil {
		return err
	}
	second := s.Validator.Validate(retry, ground)
	metrics.ObserveValidation(2, second.Passed)
	if second.Passed {
		second.WasRegenerated = true
		r.candidate, r.result = retry, second
		return nil
	}

	s.Log.Warn("regenerated candidate rejected, using fallback",
		"request_id", r.id,
		"issues", second.Issues,
	)
	s.useFallback(r, vocabulary, constraints.MaxChars, second.Issues)
	return nil
}

// vocabulary словарь для генерации и проверки: тариф, режим, время рождения.
// Если в астрологическом режиме астрологических данных нет, ответ строится по нумерологии.
func (s *Service) vocabulary(r *run, features domain.TierFeatures) domain.DataPointSet {
	points := domain.ExtractDataPoints(r.snapshot).ForTier(features)
	if !r.snapshot.HasBirthTime() {
		points = points.WithoutTimeSensitive()
	}

	vocabulary := points.ForMode(r.mode)
	if r.mode == domain.GuidanceModeAstrology && !vocabulary.HasCategory(domain.CategoryAstrology) {
		r.mode = domain.GuidanceModeNumerology
		vocabulary = points.ForMode(r.mode)
	}
	return vocabulary
}

func (s *Service) useFallback(r *run, vocabulary domain.DataPointSet, maxChars int, issues []string) {
	r.candidate = Fallback(vocabulary, r.language, maxChars)
	r.result = domain.ValidationResult{
		Passed:         false,
		Issues:         issues,
		WasRegenerated: true,
	}
	r.degraded = true
}

// step переход с проверкой отмены запроса
func (s *Service) step(ctx context.Context, r *run, next domain.PipelineState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.advance(next); err != nil {
		return err
	}
	s.recordStatus(ctx, r, nil)
	return nil
}

func (s *Service) commit(ctx context.Context, r *run) error {
	if err := s.step(ctx, r, domain.StateCommitting); err != nil {
		s.release(ctx, r)
		return err
	}

	// после начала списания отмена клиента уже ничего не меняет
	commitCtx, cancel := s.detached(ctx)
	defer cancel()

	err := s.Quota.Commit(commitCtx, r.reservation)
	if err == nil {
		return nil
	}

	s.Log.Error("failed to commit reservation after answer was produced",
		"request_id", r.id,
		"reservation_id", r.reservation.ID,
		"error", err,
	)
	if s.Alerter != nil {
		msg := fmt.Sprintf("quota commit failed: request %s, reservation %s: %v", r.id, r.reservation.ID, err)
		if alertErr := s.Alerter.SendAlert(commitCtx, msg); alertErr != nil {
			s.Log.Error("failed to send alert", "error", alertErr)
		}
	}
	s.release(ctx, r)
	return fmt.Errorf("%w: %w", domain.ErrInternalInconsistency, err)
}

// release возвращает резервацию даже если запрос уже отменён
func (s *Service) release(ctx context.Context, r *run) {
	if r.reservation == nil {
		return
	}
	releaseCtx, cancel := s.detached(ctx)
	defer cancel()

	if err := s.Quota.Release(releaseCtx, r.reservation); err != nil {
		// резервацию заберёт reservation-sweeper после истечения TTL
		s.Log.Error("failed to release reservation",
			"request_id", r.id,
			"reservation_id", r.reservation.ID,
			"error", err,
		)
	}
}

func (s *Service) response(r *run) *domain.GuidanceResponse {
	c := r.candidate

	used := make([]string, 0, len(c.DataPointsUsed))
	seen := make(map[string]bool, len(c.DataPointsUsed))
	for _, raw := range c.DataPointsUsed {
		name := domain.NormalizeDataPointName(raw)
		if name != "" && !seen[name] {
			seen[name] = true
			used = append(used, name)
		}
	}

	reasons := c.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	issues := r.result.Issues
	if issues == nil {
		issues = []string{}
	}

	return &domain.GuidanceResponse{
		RequestID:      r.id,
		EmpathyLine:    c.EmpathyLine,
		Reasons:        reasons,
		Direction:      c.Direction,
		Caution:        c.Caution,
		DataPointsUsed: used,
		Validation: domain.ValidationResult{
			Passed:         r.result.Passed,
			Issues:         issues,
			WasRegenerated: r.result.WasRegenerated,
		},
		FullResponse:    c.FullResponse,
		SnapshotVersion: r.snapshot.Version,
		Mode:            r.mode,
		Language:        r.language,
	}
}
