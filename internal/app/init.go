package app

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/jmoiron/sqlx"

	server "github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http"
	adminController "github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http/controllers/admin"
	alerterController "github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http/controllers/alerter"
	guidanceController "github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http/controllers/guidance"
	healthcheckController "github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http/controllers/healthcheck"
	profileController "github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http/controllers/profile"
	subscriptionController "github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http/controllers/subscription"
	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http/middlewares"
	kafkaConsumerAdapter "github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/kafka"
	kafkaHandlers "github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/kafka/handlers"
	alerterAdapter "github.com/Aagam-Bothara/astranum-sub001/internal/adapters/secondary/alerter"
	astroApiAdapter "github.com/Aagam-Bothara/astranum-sub001/internal/adapters/secondary/astroApi"
	kafkaAdapter "github.com/Aagam-Bothara/astranum-sub001/internal/adapters/secondary/kafka"
	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/secondary/llm"
	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/secondary/storage/inmemory"
	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/Aagam-Bothara/astranum-sub001/internal/adapters/secondary/storage/redis"
	s3Adapter "github.com/Aagam-Bothara/astranum-sub001/internal/adapters/secondary/storage/s3"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/cache"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/kafka"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/repository"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/service"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/storage"
	chartRepo "github.com/Aagam-Bothara/astranum-sub001/internal/repository/chart"
	ledgerRepo "github.com/Aagam-Bothara/astranum-sub001/internal/repository/ledger"
	profileRepo "github.com/Aagam-Bothara/astranum-sub001/internal/repository/profile"
	requestRepo "github.com/Aagam-Bothara/astranum-sub001/internal/repository/request"
	statusRepo "github.com/Aagam-Bothara/astranum-sub001/internal/repository/status"
	subscriptionRepo "github.com/Aagam-Bothara/astranum-sub001/internal/repository/subscription"
	alerterService "github.com/Aagam-Bothara/astranum-sub001/internal/services/alerter"
	"github.com/Aagam-Bothara/astranum-sub001/internal/services/chartmath"
	jobScheduler "github.com/Aagam-Bothara/astranum-sub001/internal/services/jobs"
	"github.com/Aagam-Bothara/astranum-sub001/internal/usecases/chart"
	"github.com/Aagam-Bothara/astranum-sub001/internal/usecases/generator"
	"github.com/Aagam-Bothara/astranum-sub001/internal/usecases/guidance"
	"github.com/Aagam-Bothara/astranum-sub001/internal/usecases/profile"
	"github.com/Aagam-Bothara/astranum-sub001/internal/usecases/quota"
	"github.com/Aagam-Bothara/astranum-sub001/internal/usecases/subscription"
	"github.com/Aagam-Bothara/astranum-sub001/internal/usecases/validator"
)

type Dependencies struct {
	DB             *sqlx.DB // nil при хранилище в памяти
	HTTPServer     *http.Server
	KafkaProducers map[string]*kafkaAdapter.Producer
	KafkaConsumers map[string]*kafkaConsumerAdapter.Consumer
	Cache          cache.Cache
	JobScheduler   *jobScheduler.Scheduler
	Guidance       *guidance.Service
	// клиенты внешних сервисов, которые надо закрыть при остановке
	Closers []io.Closer
}

// initDependencies инициализирует все зависимости приложения
func (a *App) initDependencies(ctx context.Context) (*Dependencies, error) {
	deps := &Dependencies{}

	repos, err := a.initRepositories(ctx, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	external, err := a.initExternalServices(ctx, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to init external services: %w", err)
	}

	uc, err := a.initUseCases(repos, external, deps.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to init use cases: %w", err)
	}
	deps.Guidance = uc.Guidance

	if err := a.initKafka(deps, uc); err != nil {
		return nil, fmt.Errorf("failed to init kafka: %w", err)
	}
	if producer, ok := deps.KafkaProducers[kafkaAdapter.TopicGuidanceEvents]; ok {
		uc.Guidance.Events = producer
	}

	deps.HTTPServer = a.initHTTP(deps, uc, external)
	deps.JobScheduler = a.initJobScheduler(external.Alerter, uc.Quota)

	return deps, nil
}

// repositories содержит инициализированные репозитории
type repositories struct {
	Chart        repository.IChartRepo
	Ledger       repository.ILedgerRepo
	Profile      repository.IProfileRepo
	Request      repository.IRequestRepo
	Status       repository.IStatusRepo
	Subscription repository.ISubscriptionRepo
}

// initRepositories Postgres или хранилище в памяти для локального запуска
func (a *App) initRepositories(ctx context.Context, deps *Dependencies) (*repositories, error) {
	if a.Cfg.StorageDriver == StorageDriverMemory {
		a.Log.Warn("using in-memory storage, data is lost on restart")
		requests := inmemory.NewRequests()
		return &repositories{
			Chart:        inmemory.NewCharts(),
			Ledger:       inmemory.NewLedger(),
			Profile:      inmemory.NewProfiles(),
			Request:      requests,
			Status:       requests.Statuses(),
			Subscription: inmemory.NewSubscriptions(),
		}, nil
	}

	db, err := a.initPostgres(ctx)
	if err != nil {
		return nil, err
	}
	deps.DB = db

	persistenceLayer := pg.NewDB(db)
	return &repositories{
		Chart:        chartRepo.New(persistenceLayer, a.Log),
		Ledger:       ledgerRepo.New(persistenceLayer, a.Log),
		Profile:      profileRepo.New(persistenceLayer, a.Log),
		Request:      requestRepo.New(persistenceLayer, a.Log),
		Status:       statusRepo.New(persistenceLayer, a.Log),
		Subscription: subscriptionRepo.New(persistenceLayer, a.Log),
	}, nil
}

// externalServices содержит внешние сервисы
type externalServices struct {
	LLM       service.ILLMService
	ChartMath service.IChartMathService
	Alerter   service.IAlerterService // nil, если алерты не настроены
	Archive   storage.IObjectStorage  // nil без S3
	Checks    map[string]healthcheckController.Check
}

// initExternalServices инициализирует LLM, астрологический API, алерты, кэш и архив
func (a *App) initExternalServices(ctx context.Context, deps *Dependencies) (*externalServices, error) {
	services := &externalServices{Checks: make(map[string]healthcheckController.Check)}

	if deps.DB != nil {
		db := deps.DB
		services.Checks["postgres"] = db.PingContext
	}

	llmClient, err := llm.New(ctx, a.Cfg.LLM, a.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to init llm client: %w", err)
	}
	if closer, ok := llmClient.(io.Closer); ok {
		deps.Closers = append(deps.Closers, closer)
	}
	services.LLM = llmClient

	// без астрологического API карта считается только по нумерологии
	var astro service.IAstroAPIService
	if a.Cfg.AstroAPI.Enabled() {
		astro = astroApiAdapter.NewClient(a.Cfg.AstroAPI, a.Log)
	} else {
		a.Log.Warn("astro API configuration is missing, charts will contain numerology only")
	}
	services.ChartMath = chartmath.New(a.Cfg.ChartMath, astro, a.Log)

	// Alerter - опциональный
	if client := alerterAdapter.NewClient(a.Cfg.Alerter, a.Log); client != nil {
		services.Alerter = alerterService.New(client, a.Cfg.Env, a.Cfg.AlertLimit.Every, a.Cfg.AlertLimit.Burst, a.Log)
	}

	// Redis - опциональный, без него транзиты кэшируются в памяти процесса
	deps.Cache = inmemory.NewCache()
	if a.Cfg.Redis != nil && a.Cfg.Redis.Enabled {
		redisClient, err := a.Cfg.Redis.NewConnection(ctx)
		if err != nil {
			a.Log.Warn("failed to init redis cache, continuing with in-process cache", "error", err)
		} else {
			client := redisAdapter.NewClient(redisClient, a.Cfg.Redis.KeyPrefix)
			deps.Cache = client
			services.Checks["redis"] = client.Ping
			a.Log.Info("redis cache connected successfully")
		}
	}

	// S3 - опциональный, архив деградированных ответов
	if a.Cfg.S3 != nil && a.Cfg.S3.Enabled {
		minioClient, err := a.Cfg.S3.NewClient(ctx)
		if err != nil {
			a.Log.Warn("failed to init object storage, degraded answers will not be archived", "error", err)
		} else {
			services.Archive = s3Adapter.NewClient(minioClient, a.Cfg.S3.Bucket, a.Log)
		}
	}

	return services, nil
}

type useCases struct {
	Quota        *quota.Service
	Subscription *subscription.Service
	Charts       *chart.Service
	Profile      *profile.Service
	Guidance     *guidance.Service
}

// initUseCases инициализирует UseCases приложения
func (a *App) initUseCases(repos *repositories, external *externalServices, transitCache cache.Cache) (*useCases, error) {
	quotaSvc, err := quota.New(a.Cfg.Quota, repos.Ledger, a.Log)
	if err != nil {
		return nil, err
	}

	charts, err := chart.New(a.Cfg.Chart, repos.Chart, repos.Profile, external.ChartMath, transitCache, a.Log)
	if err != nil {
		return nil, err
	}

	subscriptions := subscription.New(a.Cfg.Subscription, repos.Subscription, a.Log)

	guidanceSvc := guidance.New(a.Cfg.Guidance, guidance.Deps{
		Quota:     quotaSvc,
		Charts:    charts,
		Generator: generator.New(a.Cfg.Generator, external.LLM, a.Log),
		Validator: validator.New(a.Cfg.Validator, a.Log),
		Plans:     subscriptions,
		Profiles:  repos.Profile,
		Requests:  repos.Request,
		Statuses:  repos.Status,
		Archive:   external.Archive,
		Alerter:   external.Alerter,
	}, a.Log)

	return &useCases{
		Quota:        quotaSvc,
		Subscription: subscriptions,
		Charts:       charts,
		Profile:      profile.New(repos.Profile, charts, a.Log),
		Guidance:     guidanceSvc,
	}, nil
}

// initKafka producer событий о запросах и consumer событий биллинга
func (a *App) initKafka(deps *Dependencies, uc *useCases) error {
	deps.KafkaProducers = make(map[string]*kafkaAdapter.Producer)
	deps.KafkaConsumers = make(map[string]*kafkaConsumerAdapter.Consumer)

	for _, kafkaCfg := range a.Cfg.Kafka.List {
		if kafkaCfg.Config == nil || kafkaCfg.Config.Topic == "" {
			a.Log.Warn("kafka config without topic, skipping", "name", kafkaCfg.Name)
			continue
		}

		// Producer: есть topic, но нет consumer group
		if kafkaCfg.Config.ConsumerGroup == "" {
			prod, err := kafkaAdapter.NewProducer(kafkaCfg.Config, a.Log)
			if err != nil {
				a.Log.Warn("failed to create kafka producer", "error", err, "name", kafkaCfg.Name)
				continue
			}
			deps.KafkaProducers[kafkaCfg.Name] = prod
			continue
		}

		// Consumer: есть consumer group
		handler := a.createHandlerForTopic(kafkaCfg.Name, uc)
		if handler == nil {
			a.Log.Warn("no handler for kafka topic, skipping consumer", "name", kafkaCfg.Name)
			continue
		}

		consumer, err := kafkaConsumerAdapter.NewConsumer(kafkaCfg.Config, handler, a.Log)
		if err != nil {
			return fmt.Errorf("failed to create kafka consumer %s: %w", kafkaCfg.Name, err)
		}
		deps.KafkaConsumers[kafkaCfg.Name] = consumer
	}

	return nil
}

// createHandlerForTopic создаёт handler для указанного топика Kafka
func (a *App) createHandlerForTopic(name string, uc *useCases) kafka.MessageHandler {
	switch name {
	case kafkaAdapter.TopicSubscriptionEvents:
		return kafkaHandlers.NewSubscriptionEventHandler(uc.Subscription, a.Log)
	default:
		a.Log.Warn("unknown kafka topic", "name", name)
		return nil
	}
}

// initHTTP инициализирует HTTP сервер и контроллеры
func (a *App) initHTTP(deps *Dependencies, uc *useCases, external *externalServices) *http.Server {
	auth := middlewares.Auth(a.Cfg.Auth, a.Log)
	admin := middlewares.AdminToken(a.Cfg.AdminToken)

	controllers := []server.Controller{
		healthcheckController.New(external.Checks, a.Log),
		guidanceController.New(uc.Guidance, auth, middlewares.RateLimit(a.Cfg.RateLimit), a.Log),
		profileController.New(uc.Profile, auth, a.Log),
		subscriptionController.New(uc.Subscription, auth, a.Log),
	}

	if a.Cfg.AdminToken != "" {
		controllers = append(controllers,
			adminController.New(uc.Subscription, uc.Quota, admin, a.Log),
			alerterController.New(external.Alerter, admin, a.Log),
		)
	} else {
		a.Log.Info("admin token is not set, admin routes disabled")
	}

	return server.NewHTTPServer(a.Cfg.Server, a.Log, controllers...)
}

// initJobScheduler возврат зависших резерваций и чистка старых строк учёта
func (a *App) initJobScheduler(alerter service.IAlerterService, quotaSvc *quota.Service) *jobScheduler.Scheduler {
	scheduler := jobScheduler.NewScheduler(a.Log, alerter)
	scheduler.Register(jobScheduler.NewReservationSweeper(quotaSvc, a.Cfg.Jobs.SweepInterval, a.Log))
	if a.Cfg.Jobs.PruneEnabled {
		scheduler.Register(jobScheduler.NewUsagePruner(quotaSvc, quotaSvc.Location(), a.Log))
	}
	return scheduler
}

// initPostgres подключение к PostgreSQL и миграции
func (a *App) initPostgres(ctx context.Context) (*sqlx.DB, error) {
	db, err := a.Cfg.Postgres.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	a.Log.Info("postgres connected successfully")

	if a.Cfg.Postgres.RunMigrations {
		if err := pg.Migrate(ctx, db, a.Log); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return db, nil
}
