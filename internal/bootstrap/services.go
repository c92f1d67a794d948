package bootstrap

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/draftforge/pipeline-api/config"
	"github.com/draftforge/pipeline-api/internal/adapters/stages"
	"github.com/draftforge/pipeline-api/internal/core"
	"github.com/draftforge/pipeline-api/internal/data"
	domainjob "github.com/draftforge/pipeline-api/internal/domain/job"
	"github.com/draftforge/pipeline-api/internal/domain/model"
	"github.com/draftforge/pipeline-api/internal/observability/statsd"
	"github.com/draftforge/pipeline-api/internal/service"
)

// ServiceContainer bundles the constructed services handed to the HTTP
// router and the worker adapters.
type ServiceContainer struct {
	Jobs      *service.JobService
	Dispatch  *service.DispatchService
	Executor  *service.Executor
	Schedules core.ScheduleRepository
	Metrics   *statsd.Client
}

// ServiceDeps carries the external resources services are built from.
type ServiceDeps struct {
	Config *config.AppConfig
	DB     *sql.DB
	Redis  redis.UniversalClient // Optional: profile cache; nil disables caching
	Logger *slog.Logger
}

// NewServices wires the full service graph: repositories, observability,
// pipeline handlers, executor, and dispatch.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metricsSink, err := buildMetrics(logger, cfg.Observability.Metrics)
	if err != nil {
		return ServiceContainer{}, err
	}

	tp := &data.RealTimeProvider{}
	jobRepo := data.NewJobRepo(deps.DB, data.JobRepoConfig{
		RetryDelaySeconds:  int(cfg.Jobs.RetryDelay / time.Second),
		DefaultMaxAttempts: cfg.Jobs.DefaultMaxAttempts,
		Logger:             logger,
		TimeProvider:       tp,
	})
	runRepo := data.NewRunRepo(deps.DB, tp)
	orderRepo := data.NewOrderRepo(deps.DB, tp)
	draftRepo := data.NewDraftRepo(deps.DB)
	scheduleRepo := data.NewScheduleRepo(deps.DB, logger)

	profiles := buildProfileRepo(deps, logger)

	jobs, err := service.NewJobService(service.JobServiceOptions{
		Repo:   jobRepo,
		Runs:   runRepo,
		Logger: logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create job service: %w", err)
	}

	stageClients, err := stages.NewClient(stages.Config{
		BriefBuilderURL: cfg.Stages.BriefBuilderURL,
		RetrieverURL:    cfg.Stages.RetrieverURL,
		DrafterURL:      cfg.Stages.DrafterURL,
		EditorURL:       cfg.Stages.EditorURL,
		Timeout:         cfg.Stages.Timeout,
		Logger:          logger,
		Metrics:         metricsSink,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create stage clients: %w", err)
	}

	notifier, err := buildNotifier(logger, cfg.Observability.Notifications)
	if err != nil {
		return ServiceContainer{}, err
	}

	executor, err := buildExecutor(executorDeps{
		cfg:      cfg,
		logger:   logger,
		metrics:  metricsSink,
		jobs:     jobRepo,
		runs:     runRepo,
		orders:   orderRepo,
		drafts:   draftRepo,
		profiles: profiles,
		stages:   stageClients,
		notifier: notifier,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	leasePolicy, err := domainjob.NewLeasePolicy(cfg.Jobs.DefaultLease)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create lease policy: %w", err)
	}

	dispatch, err := service.NewDispatchService(service.DispatchServiceOptions{
		Jobs:        jobRepo,
		Executor:    executor,
		LeasePolicy: leasePolicy,
		MaxParallel: cfg.Dispatcher.MaxParallel,
		BatchSize:   cfg.Dispatcher.BatchSize,
		Logger:      logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create dispatch service: %w", err)
	}

	return ServiceContainer{
		Jobs:      jobs,
		Dispatch:  dispatch,
		Executor:  executor,
		Schedules: scheduleRepo,
		Metrics:   metricsSink,
	}, nil
}

func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) (*statsd.Client, error) {
	client, err := statsd.NewClient(statsd.Config{
		Enabled: cfg.IsEnabled(),
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create statsd client: %w", err)
	}
	if client.Enabled() {
		logger.Info("metrics enabled", "statsd_address", cfg.StatsdAddress)
	}
	return client, nil
}

// buildProfileRepo returns the profile reader, wrapped in the Redis
// read-through cache when one is configured.
func buildProfileRepo(deps *ServiceDeps, logger *slog.Logger) core.ProfileRepository {
	base := data.NewProfileRepo(deps.DB)
	if deps.Redis == nil || !deps.Config.Cache.Enabled {
		return base
	}
	logger.Info("profile cache enabled", "ttl", deps.Config.Cache.ProfileTTL)
	return data.NewCachedProfileRepo(base, deps.Redis, deps.Config.Cache.ProfileTTL, logger)
}

func buildNotifier(logger *slog.Logger, cfg config.NotificationsConfig) (core.DraftNotifier, error) {
	if !cfg.Enabled {
		return service.NopNotifier{}, nil
	}

	var template map[string]string
	if cfg.TemplateJSON != "" {
		if err := json.Unmarshal([]byte(cfg.TemplateJSON), &template); err != nil {
			return nil, fmt.Errorf("parse notification template: %w", err)
		}
	}

	notifier, err := service.NewNotificationService(service.NotificationServiceOptions{
		WebhookURL: cfg.WebhookURL,
		Template:   template,
		Timeout:    cfg.Timeout,
		Logger:     logger,
	})
	if errors.Is(err, service.ErrNotifierDisabled) {
		logger.Warn("notifications enabled without a webhook URL, draft notifications are off")
		return service.NopNotifier{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create notification service: %w", err)
	}
	return notifier, nil
}

type executorDeps struct {
	cfg      *config.AppConfig
	logger   *slog.Logger
	metrics  *statsd.Client
	jobs     core.JobRepository
	runs     core.RunRepository
	orders   core.OrderRepository
	drafts   core.DraftRepository
	profiles core.ProfileRepository
	stages   core.StageClients
	notifier core.DraftNotifier
}

func buildExecutor(deps executorDeps) (*service.Executor, error) {
	executor, err := service.NewExecutor(service.ExecutorOptions{
		Jobs:    deps.jobs,
		Runs:    deps.runs,
		Logger:  deps.logger,
		Metrics: deps.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create executor: %w", err)
	}

	orderPipeline, err := service.NewOrderPipeline(service.OrderPipelineOptions{
		Orders:   deps.orders,
		Drafts:   deps.drafts,
		Stages:   deps.stages,
		Notifier: deps.notifier,
		Logger:   deps.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create order pipeline: %w", err)
	}

	personalizer := service.NewPersonalizer(service.PersonalizerOptions{
		Profiles: deps.profiles,
		Logger:   deps.logger,
	})

	pacingPipeline, err := service.NewPacingPipeline(service.PacingPipelineOptions{
		Orders:       deps.orders,
		Drafts:       deps.drafts,
		Stages:       deps.stages,
		Personalizer: personalizer,
		Notifier:     deps.notifier,
		Logger:       deps.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create pacing pipeline: %w", err)
	}

	registrations := map[model.JobType]service.Handler{
		model.JobTypeProcessOrder:  orderPipeline,
		model.JobTypePacingContent: pacingPipeline,
		model.JobTypePacingCheck:   service.NewNoopPipeline("pacing_check", deps.logger),
		model.JobTypeDraftReview:   service.NewNoopPipeline("draft_review", deps.logger),
	}
	for jobType, handler := range registrations {
		if err := executor.Register(jobType, handler); err != nil {
			return nil, fmt.Errorf("register %s handler: %w", jobType, err)
		}
	}
	return executor, nil
}
