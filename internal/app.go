// Package internal contains core application functionality
package internal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"velura/internal/alerting"
	"velura/internal/config"
	"velura/internal/health"
	vhttp "velura/internal/http"
	"velura/internal/jobs"
	"velura/internal/logging"
	"velura/internal/metrics"
	"velura/internal/tracking"
)

// Application wires the stores, evaluator, background jobs, and HTTP server
// together.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	Fiber     *fiber.App
	Metrics   *metrics.Store
	Events    *tracking.EventStore
	Clicks    *tracking.ClickStore
	Evaluator *alerting.Evaluator
	Health    *health.Aggregator
	Checks    *health.CheckService
	Scheduler *jobs.Scheduler
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	cfg := config.GetConfig()
	return NewAppWithConfig(cfg)
}

// NewAppWithConfig creates a new application with the provided config
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger := logging.NewLogger(cfg)

	metricStore := metrics.NewStore(metrics.WithCapacity(cfg.MetricSeriesCapacity))
	eventStore := tracking.NewEventStore(tracking.WithCapacity(cfg.EventStoreCapacity))
	clickStore := tracking.NewClickStore(tracking.WithCapacity(cfg.ClickStoreCapacity))

	notifier := buildNotifier(cfg, logger)
	evaluator := alerting.NewEvaluator(
		metricStore,
		alerting.DefaultRules(),
		notifier,
		logger,
		alerting.WithRetention(cfg.AlertRetention()),
	)
	aggregator := health.NewAggregator(metricStore, evaluator)

	scheduler, err := jobs.NewScheduler(metricStore, evaluator, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jobs: %w", err)
	}

	checks := buildComponentChecks(cfg, metricStore, scheduler)

	app := &Application{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metricStore,
		Events:    eventStore,
		Clicks:    clickStore,
		Evaluator: evaluator,
		Health:    aggregator,
		Checks:    checks,
		Scheduler: scheduler,
	}

	handler := vhttp.NewHandler(cfg, logger, metricStore, eventStore, clickStore, evaluator, aggregator, checks)
	app.Fiber = fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		DisableStartupMessage: !cfg.IsDevelopment(),
	})
	MountAppRoutes(app.Fiber, handler)

	return app, nil
}

// buildComponentChecks registers the default component checks: the metric
// store must stay fresh while the scheduler claims to be running, and any
// configured webhook gets an optional reachability probe.
func buildComponentChecks(cfg *config.Config, metricStore *metrics.Store, scheduler *jobs.Scheduler) *health.CheckService {
	checks := health.NewCheckService()

	// Two monitor intervals of silence means collection has stalled.
	checks.RegisterCheck(health.Check{
		Name:     "metric-store",
		Required: true,
		Run:      health.StoreFreshness(metricStore.LastTimestamp, 2*cfg.MonitorInterval()),
	})
	checks.RegisterCheck(health.Check{
		Name:     "scheduler",
		Required: true,
		Run: func(ctx context.Context) error {
			if !scheduler.IsRunning() {
				return fmt.Errorf("background jobs are not running")
			}
			return nil
		},
	})
	if cfg.AlertWebhookURL != "" {
		checks.RegisterCheck(health.Check{
			Name:     "alert-webhook",
			Required: false,
			Run:      health.HTTPReachable(cfg.AlertWebhookURL),
		})
	}
	if cfg.ChatWebhookURL != "" {
		checks.RegisterCheck(health.Check{
			Name:     "chat-webhook",
			Required: false,
			Run:      health.HTTPReachable(cfg.ChatWebhookURL),
		})
	}
	return checks
}

// buildNotifier assembles the alert sinks from the configured webhook URLs.
// With no URLs configured the notifier has no sinks and dispatch is a no-op.
func buildNotifier(cfg *config.Config, logger *slog.Logger) *alerting.Notifier {
	var sinks []alerting.Sink
	if cfg.AlertWebhookURL != "" {
		sinks = append(sinks, alerting.NewWebhookSink(cfg.AlertWebhookURL, cfg.ServiceTag, cfg.Environment))
	}
	if cfg.ChatWebhookURL != "" {
		sinks = append(sinks, alerting.NewChatSink(cfg.ChatWebhookURL, cfg.ServiceTag))
	}
	return alerting.NewNotifier(sinks, logger, cfg.DispatchTimeout())
}

// Start launches background jobs and blocks serving HTTP.
func (a *Application) Start() error {
	if err := a.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start background jobs: %w", err)
	}
	addr := ":" + a.Config.AppPort
	a.Logger.Info("Starting HTTP server", slog.String("addr", addr))
	return a.Fiber.Listen(addr)
}

// StartAsync launches background jobs and serves HTTP in a goroutine.
func (a *Application) StartAsync() error {
	if err := a.Scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start background jobs: %w", err)
	}
	addr := ":" + a.Config.AppPort
	a.Logger.Info("Starting HTTP server", slog.String("addr", addr))
	go func() {
		if err := a.Fiber.Listen(addr); err != nil {
			a.Logger.Error("HTTP server stopped", slog.Any("error", err))
		}
	}()
	return nil
}

// Shutdown stops background jobs and drains the HTTP server.
func (a *Application) Shutdown(ctx context.Context) error {
	a.Scheduler.Stop()
	return a.Fiber.ShutdownWithContext(ctx)
}
