package jobs

import (
	"context"
	"log/slog"
	"time"
)

const usagePrunerName = "usage-pruner"

type Pruner interface {
	Prune(ctx context.Context, now time.Time) error
}

// UsagePruner чистит старые дневные счётчики и завершённые резервации, каждый день в 04:00
type UsagePruner struct {
	quota    Pruner
	location *time.Location
	log      *slog.Logger
}

func NewUsagePruner(quota Pruner, location *time.Location, log *slog.Logger) *UsagePruner {
	if location == nil {
		location = time.UTC
	}
	return &UsagePruner{
		quota:    quota,
		location: location,
		log:      log,
	}
}

func (j *UsagePruner) Name() string {
	return usagePrunerName
}

func (j *UsagePruner) NextRun(now time.Time) time.Time {
	return dailyAt(now, 4, j.location)
}

func (j *UsagePruner) Run(ctx context.Context) error {
	return j.quota.Prune(ctx, time.Now())
}
