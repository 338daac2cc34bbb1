package guidance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/Aagam-Bothara/astranum-sub001/internal/pkg/metrics"
	"github.com/google/uuid"
)

// Журнал запросов и статусов ведётся по возможности: ошибка записи не ломает ответ.

func (s *Service) createRequest(ctx context.Context, r *run) {
	now := s.now()
	err := s.Requests.Create(ctx, &domain.Request{
		ID:        r.id,
		UserID:    r.userID,
		Question:  r.request.Question,
		Mode:      r.mode,
		Language:  r.language,
		Tier:      r.plan.Tier,
		State:     r.state,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		s.Log.Warn("failed to create request record",
			"request_id", r.id,
			"error", err,
		)
	}
}

func (s *Service) recordStatus(ctx context.Context, r *run, cause error) {
	writeCtx, cancel := s.detached(ctx)
	defer cancel()

	status := &domain.Status{
		ID:         uuid.New(),
		ObjectType: domain.ObjectTypeGuidanceRequest,
		ObjectID:   r.id,
		Status:     r.state,
		CreatedAt:  s.now(),
	}
	if cause != nil {
		msg := cause.Error()
		status.ErrorMessage = &msg
	}
	if r.state == domain.StateRetrying || r.state == domain.StateDone {
		if meta, err := json.Marshal(map[string]interface{}{
			"issues":          r.result.Issues,
			"was_regenerated": r.result.WasRegenerated,
		}); err == nil {
			status.Metadata = meta
		}
	}

	if err := s.Statuses.Create(writeCtx, status); err != nil {
		s.Log.Warn("failed to record status",
			"request_id", r.id,
			"status", r.state.String(),
			"error", err,
		)
	}
}

// finish переводит запрос в терминальное состояние и сохраняет результат
func (s *Service) finish(ctx context.Context, r *run, state domain.PipelineState, cause error) {
	if err := r.advance(state); err != nil {
		s.Log.Error("invalid pipeline transition",
			"request_id", r.id,
			"error", err,
		)
		r.state = domain.StateFailed
	}
	s.recordStatus(ctx, r, cause)

	reason := ""
	if cause != nil {
		reason = failureReason(cause)
	}
	metrics.ObservePipeline(r.state.String(), reason)

	writeCtx, cancel := s.detached(ctx)
	defer cancel()

	record := &domain.Request{
		ID:             r.id,
		UserID:         r.userID,
		Question:       r.request.Question,
		Mode:           r.mode,
		Language:       r.language,
		Tier:           r.plan.Tier,
		WasRegenerated: r.result.WasRegenerated,
		State:          r.state,
		UpdatedAt:      s.now(),
	}
	if r.snapshot != nil {
		version := r.snapshot.Version
		record.SnapshotVersion = &version
	}
	if r.state == domain.StateDone && r.candidate != nil {
		text, passed := r.candidate.FullResponse, r.result.Passed
		record.ResponseText = &text
		record.Passed = &passed
	}
	if err := s.Requests.UpdateResult(writeCtx, record); err != nil {
		s.Log.Warn("failed to update request record",
			"request_id", r.id,
			"error", err,
		)
	}

	if cause != nil && r.state == domain.StateFailed {
		s.Log.Error("guidance request failed",
			"request_id", r.id,
			"user_id", r.userID,
			"error", cause,
		)
	}
}

func failureReason(err error) string {
	for _, sentinel := range []error{
		domain.ErrQuotaDenied,
		domain.ErrChartUnavailable,
		domain.ErrGenerationUnavailable,
		domain.ErrInternalInconsistency,
		domain.ErrProfileRequired,
		context.Canceled,
		context.DeadlineExceeded,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal"
}

// publish событие для аналитики, не задерживает ответ
func (s *Service) publish(ctx context.Context, r *run) {
	if s.Events == nil {
		return
	}
	event := &domain.GuidanceEvent{
		RequestID:       r.id,
		UserID:          r.userID,
		Tier:            r.plan.Tier,
		Mode:            r.mode,
		Language:        r.language,
		SnapshotVersion: r.snapshot.Version,
		Passed:          r.result.Passed,
		WasRegenerated:  r.result.WasRegenerated,
		IssuesCount:     len(r.result.Issues),
		CompletedAt:     s.now().UTC().Format(time.RFC3339),
	}

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		pubCtx, cancel := s.detached(ctx)
		defer cancel()

		if err := s.Events.PublishGuidanceEvent(pubCtx, event); err != nil {
			s.Log.Warn("failed to publish guidance event",
				"request_id", event.RequestID,
				"error", err,
			)
		}
	}()
}

// archive сохраняет ответ из шаблона вместе с причинами отказа для разбора
func (s *Service) archive(ctx context.Context, r *run, resp *domain.GuidanceResponse) {
	if s.Archive == nil || !s.cfg.ArchiveDegraded {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{
		"request_id":       r.id,
		"user_id":          r.userID,
		"question":         r.request.Question,
		"tier":             r.plan.Tier,
		"snapshot_version": r.snapshot.Version,
		"issues":           r.result.Issues,
		"response":         resp,
	})
	if err != nil {
		s.Log.Warn("failed to marshal degraded answer", "error", err)
		return
	}
	path := ArchivePath(s.now(), r.id)

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		putCtx, cancel := s.detached(ctx)
		defer cancel()

		if err := s.Archive.PutObject(putCtx, path, payload, "application/json"); err != nil {
			s.Log.Warn("failed to archive degraded answer",
				"path", path,
				"error", err,
			)
		}
	}()
}

// ArchivePath ключ объекта для ответа из шаблона
func ArchivePath(at time.Time, requestID uuid.UUID) string {
	return fmt.Sprintf("degraded/%s/%s.json", at.UTC().Format(time.DateOnly), requestID)
}
