package jobs

import (
	"context"
	"log/slog"
	"time"
)

const reservationSweeperName = "reservation-sweeper"

// ExpiredReleaser возврат зависших резерваций
type ExpiredReleaser interface {
	ReleaseExpired(ctx context.Context, now time.Time) (int, error)
}

// ReservationSweeper возвращает квоту по резервациям, которые не были
// ни списаны, ни возвращены до истечения TTL (например, после падения процесса)
type ReservationSweeper struct {
	quota    ExpiredReleaser
	interval time.Duration
	log      *slog.Logger
}

func NewReservationSweeper(quota ExpiredReleaser, interval time.Duration, log *slog.Logger) *ReservationSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &ReservationSweeper{
		quota:    quota,
		interval: interval,
		log:      log,
	}
}

func (j *ReservationSweeper) Name() string {
	return reservationSweeperName
}

func (j *ReservationSweeper) NextRun(now time.Time) time.Time {
	return everyInterval(now, j.interval)
}

func (j *ReservationSweeper) Run(ctx context.Context) error {
	released, err := j.quota.ReleaseExpired(ctx, time.Now())
	if err != nil {
		return err
	}
	if released > 0 {
		j.log.Info("expired reservations released", "count", released)
	}
	return nil
}
