package guidance

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/kafka"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/repository"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/service"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/storage"
	"github.com/Aagam-Bothara/astranum-sub001/internal/usecases/validator"
	"github.com/google/uuid"
)

type Config struct {
	// таймаут на возврат резервации и служебные записи после отмены запроса
	DetachedTimeout time.Duration `envconfig:"DETACHED_TIMEOUT" default:"5s"`
	ArchiveDegraded bool          `envconfig:"ARCHIVE_DEGRADED" default:"true"`
}

type QuotaLedger interface {
	CheckAndReserve(ctx context.Context, userID uuid.UUID, plan domain.Plan, now time.Time) (domain.UsageStatus, *domain.Reservation, error)
	Commit(ctx context.Context, res *domain.Reservation) error
	Release(ctx context.Context, res *domain.Reservation) error
	Status(ctx context.Context, userID uuid.UUID, plan domain.Plan, now time.Time) (domain.UsageStatus, error)
}

type ChartStore interface {
	GetActive(ctx context.Context, userID uuid.UUID) (*domain.ChartSnapshot, error)
	GetTransitForToday(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.TransitData, error)
	GetVersion(ctx context.Context, userID uuid.UUID, version int) (*domain.ChartSnapshot, error)
	ListVersions(ctx context.Context, userID uuid.UUID) ([]domain.ChartVersionInfo, error)
}

type Generator interface {
	Generate(ctx context.Context, request domain.GuidanceRequest, snapshot *domain.ChartSnapshot, c domain.GenerationConstraints) (*domain.CandidateAnswer, error)
}

type Validator interface {
	Validate(candidate *domain.CandidateAnswer, ground validator.Ground) domain.ValidationResult
}

type PlanResolver interface {
	EffectivePlan(ctx context.Context, userID uuid.UUID, now time.Time) (domain.Plan, error)
}

// Deps зависимости конвейера; Events, Archive и Alerter необязательны
type Deps struct {
	Quota     QuotaLedger
	Charts    ChartStore
	Generator Generator
	Validator Validator
	Plans     PlanResolver
	Profiles  repository.IProfileRepo
	Requests  repository.IRequestRepo
	Statuses  repository.IStatusRepo
	Events    kafka.IKafkaProducer
	Archive   storage.IObjectStorage
	Alerter   service.IAlerterService
}

// Service конвейер вопрос-ответ: допуск, карта, генерация, проверка, списание
type Service struct {
	Deps
	Log *slog.Logger

	cfg Config
	now func() time.Time
	// фоновые публикации и архивирование
	background sync.WaitGroup
}

func New(cfg Config, deps Deps, log *slog.Logger) *Service {
	if cfg.DetachedTimeout <= 0 {
		cfg.DetachedTimeout = 5 * time.Second
	}
	return &Service{
		Deps: deps,
		Log:  log,
		cfg:  cfg,
		now:  time.Now,
	}
}

// Wait дожидается фоновых задач; вызывается при остановке
func (s *Service) Wait() {
	s.background.Wait()
}

func (s *Service) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.cfg.DetachedTimeout)
}
