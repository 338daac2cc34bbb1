package quota

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/repository"
)

const (
	defaultReservationTTL = 3 * time.Minute
	defaultTimezone       = "Asia/Kolkata"
)

type Config struct {
	Timezone       string        `envconfig:"TIMEZONE" default:"Asia/Kolkata"`
	ReservationTTL time.Duration `envconfig:"RESERVATION_TTL" default:"3m"`

	// сколько хранить завершённые резервации и дневные строки
	Retention  time.Duration `envconfig:"RETENTION" default:"168h"`
	SweepBatch int           `envconfig:"SWEEP_BATCH" default:"500"`
}

// Service учёт квот: резервация до ответа, списание или возврат после
type Service struct {
	Ledger repository.ILedgerRepo
	Log    *slog.Logger

	loc        *time.Location
	ttl        time.Duration
	retention  time.Duration
	sweepBatch int
	now        func() time.Time
}

func New(cfg Config, ledger repository.ILedgerRepo, log *slog.Logger) (*Service, error) {
	tz := cfg.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", tz, err)
	}

	ttl := cfg.ReservationTTL
	if ttl <= 0 {
		ttl = defaultReservationTTL
	}
	retention := cfg.Retention
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}
	batch := cfg.SweepBatch
	if batch <= 0 {
		batch = 500
	}

	return &Service{
		Ledger:     ledger,
		Log:        log,
		loc:        loc,
		ttl:        ttl,
		retention:  retention,
		sweepBatch: batch,
		now:        time.Now,
	}, nil
}

// Location часовой пояс, по которому режутся сутки
func (s *Service) Location() *time.Location {
	return s.loc
}
