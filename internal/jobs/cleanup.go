package jobs

import (
	"log/slog"

	"velura/internal/alerting"
	"velura/internal/config"
	"velura/internal/metrics"
)

// CleanupJob drops metric points and resolved alerts that have aged past
// their retention windows. This keeps the in-memory stores bounded over
// long uptimes.
type CleanupJob struct {
	store     *metrics.Store
	evaluator *alerting.Evaluator
	logger    *slog.Logger
	cfg       *config.Config
}

func NewCleanupJob(store *metrics.Store, evaluator *alerting.Evaluator, logger *slog.Logger, cfg *config.Config) *CleanupJob {
	return &CleanupJob{
		store:     store,
		evaluator: evaluator,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run removes metric points older than the metric retention window and
// alerts past the alert retention window.
func (j *CleanupJob) Run() error {
	retention := j.cfg.MetricRetention()
	droppedPoints := j.store.Cleanup(retention)
	droppedAlerts := j.evaluator.CleanupExpired()

	j.logger.Info("Cleaned up expired monitoring data",
		slog.Duration("metric_retention", retention),
		slog.Int("dropped_points", droppedPoints),
		slog.Int("dropped_alerts", droppedAlerts))

	return nil
}
