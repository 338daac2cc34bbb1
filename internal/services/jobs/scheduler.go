package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/pkg/metrics"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/jobs"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/service"
)

// паузы между повторами упавшей джобы | now + 1m + 10m + 30m
var defaultRetries = []time.Duration{
	1 * time.Minute,
	10 * time.Minute,
	30 * time.Minute,
}

// Scheduler управляет запуском периодических джоб
type Scheduler struct {
	jobs           []jobs.Job
	alerterService service.IAlerterService
	log            *slog.Logger
	retries        []time.Duration
	wg             sync.WaitGroup
}

// NewScheduler создаёт новый планировщик джоб
func NewScheduler(log *slog.Logger, alerterService service.IAlerterService) *Scheduler {
	return &Scheduler{
		jobs:           make([]jobs.Job, 0),
		alerterService: alerterService,
		log:            log,
		retries:        defaultRetries,
	}
}

// WithRetries задаёт паузы между повторами
func (s *Scheduler) WithRetries(retries ...time.Duration) *Scheduler {
	s.retries = retries
	return s
}

// Register регистрирует джобу в планировщике
func (s *Scheduler) Register(job jobs.Job) {
	s.jobs = append(s.jobs, job)
	s.log.Debug("job registered", "job_name", job.Name(), "total_jobs", len(s.jobs))
}

// Start запускает все зарегистрированные джобы и не блокирует
func (s *Scheduler) Start(ctx context.Context) {
	if len(s.jobs) == 0 {
		s.log.Warn("no jobs registered, scheduler not started")
		return
	}

	s.log.Info("starting job scheduler", "jobs_count", len(s.jobs))
	for _, job := range s.jobs {
		job := job
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runJob(ctx, job)
		}()
	}
}

// Wait дожидается остановки джоб после отмены контекста
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// runJob запускает отдельную джобу в цикле
func (s *Scheduler) runJob(ctx context.Context, job jobs.Job) {
	jobName := job.Name()
	for {
		now := time.Now()
		timer := time.NewTimer(job.NextRun(now).Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("job stopped by context", "job_name", jobName)
			return
		case <-timer.C:
			attemptErrors, err := s.executeJobWithRetry(ctx, job)
			metrics.ObserveJob(jobName, err)
			if err == nil {
				s.log.Info("job executed successfully", "job_name", jobName)
				continue
			}
			if ctx.Err() != nil {
				return
			}
			s.log.Error("job failed after all retries",
				"job_name", jobName,
				"error", err,
				"attempts", attemptErrors,
			)
			s.sendAlert(ctx, jobName, attemptErrors)
		}
	}
}

// jobAttemptError ошибка конкретной попытки выполнения джобы
type jobAttemptError struct {
	Attempt int
	Err     error
}

func (e jobAttemptError) String() string {
	return fmt.Sprintf("attempt %d: %v", e.Attempt, e.Err)
}

// executeJobWithRetry выполняет джобу с повторами.
// Возвращает ошибки всех попыток и финальную ошибку.
func (s *Scheduler) executeJobWithRetry(ctx context.Context, job jobs.Job) ([]jobAttemptError, error) {
	jobName := job.Name()

	var attemptErrors []jobAttemptError
	for attempt := 1; attempt <= len(s.retries)+1; attempt++ {
		if attempt > 1 {
			delay := s.retries[attempt-2]
			select {
			case <-ctx.Done():
				return attemptErrors, ctx.Err()
			case <-time.After(delay):
			}
		}

		err := job.Run(ctx)
		if err == nil {
			return nil, nil
		}
		attemptErrors = append(attemptErrors, jobAttemptError{Attempt: attempt, Err: err})
		s.log.Warn("job execution failed",
			"job_name", jobName,
			"attempt", attempt,
			"retries_remaining", len(s.retries)+1-attempt,
			"error", err,
		)
	}

	return attemptErrors, fmt.Errorf("all retry attempts failed (total attempts: %d)", len(attemptErrors))
}

// sendAlert алертит на финальную ошибку после ретраев
func (s *Scheduler) sendAlert(ctx context.Context, jobName string, attemptErrors []jobAttemptError) {
	if s.alerterService == nil {
		return
	}

	lines := make([]string, 0, len(attemptErrors))
	for _, attemptErr := range attemptErrors {
		lines = append(lines, attemptErr.String())
	}

	var message strings.Builder
	message.WriteString("Job failed, retries exhausted\n\n")
	fmt.Fprintf(&message, "Job: %s\n\n", jobName)
	message.WriteString(strings.Join(lines, "\n"))

	if alertErr := s.alerterService.SendAlert(ctx, message.String()); alertErr != nil {
		s.log.Warn("failed to send job failure alert",
			"job_name", jobName,
			"error", alertErr,
		)
	}
}

// everyInterval следующий запуск, выровненный по интервалу
func everyInterval(now time.Time, interval time.Duration) time.Time {
	return now.Truncate(interval).Add(interval)
}

// dailyAt следующий запуск в hour:00 по loc
func dailyAt(now time.Time, hour int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
