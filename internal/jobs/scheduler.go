package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"velura/internal/alerting"
	"velura/internal/config"
	"velura/internal/metrics"
)

// Scheduler is responsible for running background jobs
type Scheduler struct {
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	enabled   bool
	isRunning bool
	cfg       *config.Config

	// Mutex to prevent concurrent job executions
	processingMutex sync.Mutex
	isProcessing    bool

	// Job instances
	collector  *RuntimeCollectorJob
	evaluator  *alerting.Evaluator
	cleanupJob *CleanupJob

	// Tickers for each job type
	monitorTicker *time.Ticker
	cleanupTicker *time.Ticker
}

func NewScheduler(store *metrics.Store, evaluator *alerting.Evaluator, logger *slog.Logger) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := config.GetConfig()

	s := &Scheduler{
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		enabled:   true,
		isRunning: false,
		cfg:       cfg,
		evaluator: evaluator,
	}

	// Initialize job instances
	s.collector = NewRuntimeCollectorJob(store, logger)
	s.cleanupJob = NewCleanupJob(store, evaluator, logger, cfg)

	return s, nil
}

// executeJobSafely runs a job only if no other job is currently executing
func (s *Scheduler) executeJobSafely(jobName string, jobFunc func() error) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", jobName))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := jobFunc(); err != nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
}

// runMonitorCycle samples runtime metrics, then evaluates every alert rule
// against the freshly updated store.
func (s *Scheduler) runMonitorCycle() error {
	if err := s.collector.Run(); err != nil {
		return err
	}
	s.evaluator.Evaluate(s.ctx)
	return nil
}

// Start begins all background jobs
func (s *Scheduler) Start() error {
	if !s.enabled {
		s.logger.Info("Background jobs are disabled.")
		return nil
	}

	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.logger.Info("Starting background jobs...")

	s.isRunning = true

	// Start monitor job
	s.startMonitorJob()

	// Start cleanup job
	s.startCleanupJob()

	s.logger.Info("Background jobs started",
		slog.Bool("enabled", s.enabled),
		slog.Bool("isRunning", s.isRunning))

	return nil
}

func (s *Scheduler) startMonitorJob() {
	interval := s.cfg.MonitorInterval()
	s.logger.Info("Starting monitor job", slog.Duration("interval", interval))
	s.monitorTicker = time.NewTicker(interval)

	go func() {
		// Run initial execution
		s.logger.Info("Running initial monitor cycle...")
		s.executeJobSafely("monitor", s.runMonitorCycle)

		for {
			select {
			case <-s.monitorTicker.C:
				s.executeJobSafely("monitor", s.runMonitorCycle)
			case <-s.ctx.Done():
				s.logger.Info("Monitor job stopped")
				return
			}
		}
	}()
}

func (s *Scheduler) startCleanupJob() {
	interval := time.Hour
	s.logger.Info("Starting cleanup job", slog.Duration("interval", interval))
	s.cleanupTicker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-s.cleanupTicker.C:
				s.executeJobSafely("cleanup", s.cleanupJob.Run)
			case <-s.ctx.Done():
				s.logger.Info("Cleanup job stopped")
				return
			}
		}
	}()
}

// Stop halts all background jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background jobs...")
	s.enabled = false

	if s.monitorTicker != nil {
		s.monitorTicker.Stop()
	}
	if s.cleanupTicker != nil {
		s.cleanupTicker.Stop()
	}

	s.cancel()
	s.isRunning = false
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	return s.isRunning
}
