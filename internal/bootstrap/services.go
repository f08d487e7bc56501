package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/briefq/briefq/config"
	"github.com/briefq/briefq/internal/adapters/mailer"
	"github.com/briefq/briefq/internal/adapters/providers"
	"github.com/briefq/briefq/internal/core"
	"github.com/briefq/briefq/internal/data"
	"github.com/briefq/briefq/internal/domain/model"
	"github.com/briefq/briefq/internal/observability/metrics"
	"github.com/briefq/briefq/internal/observability/notify/slack"
	"github.com/briefq/briefq/internal/service"
	"github.com/briefq/briefq/internal/service/failurenotifier"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Queue     *service.QueueService
	Producer  *service.ProducerService
	History   *service.HistoryService
	Pipeline  *service.Pipeline
	Records   *data.JobRecordRepo
	Analyses  *data.NewsAnalysisRepo
	QueueRepo *data.QueueRepo
	NewsCache *core.NewsCache

	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	Metrics         *metrics.Metrics
	FailureNotifier *failurenotifier.Service
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
	// HTTPClient is shared by the provider, mail and alert clients. Optional.
	HTTPClient *http.Client
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	Queue    *data.QueueRepo
	Records  *data.JobRecordRepo
	History  *data.HistoryRepo
	Analyses *data.NewsAnalysisRepo
	Cache    *data.RedisCacheRepo
}

func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig, baseURL string, hc *http.Client) ObservabilityContainer {
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
	}
	return ObservabilityContainer{
		Metrics:         m,
		FailureNotifier: buildFailureNotifier(logger, cfg.Alerts, baseURL, hc),
	}
}

func buildFailureNotifier(
	logger *slog.Logger,
	cfg config.ObservabilityAlertsConfig,
	baseURL string,
	hc *http.Client,
) *failurenotifier.Service {
	sinks := make([]failurenotifier.SinkRegistration, 0, 1)

	if cfg.Slack.Enabled() {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
			Client:     hc,
			AdminURL:   strings.TrimRight(baseURL, "/") + "/admin/queues",
		})
		if err != nil {
			logger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{Logger: logger, Sinks: sinks})
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, rdb redis.UniversalClient, cfg *config.AppConfig, logger *slog.Logger) *serviceRepositories {
	repos := &serviceRepositories{
		Queue:    data.NewQueueRepo(db, data.QueueRepoConfig{Logger: logger}),
		Records:  data.NewJobRecordRepo(db, data.JobRecordRepoConfig{Logger: logger}),
		History:  data.NewHistoryRepo(db, nil),
		Analyses: data.NewNewsAnalysisRepo(db, nil),
	}
	if rdb != nil {
		repos.Cache = data.NewRedisCacheRepo(rdb, cfg.Redis.KeyPrefix)
	}
	return repos
}

type providerSet struct {
	perplexity *providers.PerplexityClient
	google     *providers.GoogleClient
	newsAPI    *providers.NewsAPIClient
}

func buildProviders(cfg config.ProvidersConfig, hc *http.Client, logger *slog.Logger) (providerSet, error) {
	perplexity, err := providers.NewPerplexityClient(providers.PerplexityOptions{Config: cfg.Perplexity, HTTPClient: hc, Logger: logger})
	if err != nil {
		return providerSet{}, fmt.Errorf("perplexity client: %w", err)
	}
	google, err := providers.NewGoogleClient(providers.GoogleOptions{Config: cfg.Google, HTTPClient: hc, Logger: logger})
	if err != nil {
		return providerSet{}, fmt.Errorf("google client: %w", err)
	}
	newsAPI, err := providers.NewNewsAPIClient(providers.NewsAPIOptions{Config: cfg.NewsAPI, HTTPClient: hc, Logger: logger})
	if err != nil {
		return providerSet{}, fmt.Errorf("newsapi client: %w", err)
	}
	return providerSet{perplexity: perplexity, google: google, newsAPI: newsAPI}, nil
}

// buildEmailSender returns nil when email is disabled; the notifier then reports every send as not delivered.
//
//nolint:ireturn // nil interface signals "email disabled" to the notifier.
func buildEmailSender(cfg config.EmailConfig, hc *http.Client, logger *slog.Logger) (core.EmailSender, error) {
	if !cfg.Enabled {
		logger.Info("email delivery disabled", "reason", "EMAIL_ENABLED=false")
		return nil, nil
	}
	sender, err := mailer.NewMailgunSender(mailer.MailgunOptions{Config: cfg, HTTPClient: hc, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("mailgun sender: %w", err)
	}
	return sender, nil
}

func queueConfigs(cfg config.QueuesConfig) map[model.QueueName]service.QueueConfig {
	out := make(map[model.QueueName]service.QueueConfig, len(model.AllQueues()))
	for _, q := range model.AllQueues() {
		rc := cfg.For(q)
		out[q] = service.QueueConfig{
			Lease:       rc.Lease,
			MaxAttempts: rc.MaxAttempts,
			MaxStalled:  rc.MaxStalled,
			Retry:       rc.RetryPolicy(),
		}
	}
	return out
}

// NewServices wires repositories, adapters and services. Nothing is started here.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps with config are required")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("database is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	obs := buildObservability(logger, cfg.Observability, cfg.HTTP.BaseURL, deps.HTTPClient)
	repos := buildRepositories(deps.DB, deps.RedisClient, cfg, logger)

	var cacheRepo core.CacheRepository
	if repos.Cache != nil {
		cacheRepo = repos.Cache
	}
	newsCache := core.NewNewsCache(cacheRepo, core.NewsCacheConfig{
		SeenTTL:     cfg.News.SeenCacheTTL,
		FireLockTTL: cfg.News.FireLockTTL,
	})

	provs, err := buildProviders(cfg.Providers, deps.HTTPClient, logger)
	if err != nil {
		return ServiceContainer{}, err
	}
	sender, err := buildEmailSender(cfg.Email, deps.HTTPClient, logger)
	if err != nil {
		return ServiceContainer{}, err
	}
	summary, err := service.NewSummaryExtractor(cfg.Email.SummaryExpressions)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("summary extractor: %w", err)
	}

	news, err := service.NewNewsProcessor(service.NewsProcessorOptions{
		Headlines: provs.newsAPI,
		Analyzer:  provs.perplexity,
		Analyses:  repos.Analyses,
		Cache:     newsCache,
		Logger:    logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("news processor: %w", err)
	}

	pipeline, err := service.NewPipeline(service.PipelineOptions{
		Records: repos.Records,
		History: repos.History,
		Providers: map[model.JobType]core.SearchProvider{
			model.JobTypeSearch:       provs.perplexity,
			model.JobTypeGoogleSearch: provs.google,
		},
		News:     news,
		Analyses: repos.Analyses,
		Cache:    newsCache,
		Notifier: service.NewEmailNotifier(service.EmailNotifierOptions{
			Sender:  sender,
			Timeout: cfg.Email.SendTimeout,
			Logger:  logger,
			Metrics: obs.Metrics,
		}),
		Summary:       summary,
		NewsRecipient: cfg.Email.NewsDigestRecipient,
		Alerts:        obs.FailureNotifier,
		Logger:        logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("pipeline: %w", err)
	}

	queue, err := service.NewQueueService(service.QueueServiceOptions{
		Repo:       repos.Queue,
		Queues:     queueConfigs(cfg.Queues),
		Logger:     logger,
		Metrics:    obs.Metrics,
		DeadLetter: pipeline,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("queue service: %w", err)
	}

	producer, err := service.NewProducerService(service.ProducerServiceOptions{
		Records: repos.Records,
		Queue:   queue,
		Logger:  logger,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("producer service: %w", err)
	}

	history, err := service.NewHistoryService(service.HistoryServiceOptions{Repo: repos.History, Logger: logger})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("history service: %w", err)
	}

	return ServiceContainer{
		Queue:         queue,
		Producer:      producer,
		History:       history,
		Pipeline:      pipeline,
		Records:       repos.Records,
		Analyses:      repos.Analyses,
		QueueRepo:     repos.Queue,
		NewsCache:     newsCache,
		Observability: obs,
	}, nil
}
