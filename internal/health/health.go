// Package health derives a process health snapshot from current alert and
// metric state.
package health

import (
	"time"

	"velura/internal/alerting"
	"velura/internal/metrics"
)

// Status is the overall process health classification.
type Status string

// Health states, best to worst.
const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Snapshot is a point-in-time composite of alert and metric state.
// LastMetricTime is nil when no metric has ever been recorded; callers must
// treat that as "no data yet", not as an error.
type Snapshot struct {
	Status         Status     `json:"status"`
	ActiveAlerts   int        `json:"activeAlerts"`
	CriticalAlerts int        `json:"criticalAlerts"`
	LastMetricTime *time.Time `json:"lastMetricTime,omitempty"`
}

// Aggregator composes the metric store and alert evaluator into health
// snapshots. It holds no state of its own; Take is a pure read.
type Aggregator struct {
	store     *metrics.Store
	evaluator *alerting.Evaluator
}

// NewAggregator creates a health aggregator.
func NewAggregator(store *metrics.Store, evaluator *alerting.Evaluator) *Aggregator {
	return &Aggregator{store: store, evaluator: evaluator}
}

// Take returns the current health snapshot. Status is unhealthy iff any
// critical alert is active, degraded iff any alert is active, else healthy.
func (a *Aggregator) Take() Snapshot {
	active := a.evaluator.Active()
	critical := 0
	for _, alert := range active {
		if alert.Severity == alerting.SeverityCritical {
			critical++
		}
	}

	status := StatusHealthy
	switch {
	case critical > 0:
		status = StatusUnhealthy
	case len(active) > 0:
		status = StatusDegraded
	}

	snapshot := Snapshot{
		Status:         status,
		ActiveAlerts:   len(active),
		CriticalAlerts: critical,
	}
	if last, ok := a.store.LastTimestamp(); ok {
		snapshot.LastMetricTime = &last
	}
	return snapshot
}
