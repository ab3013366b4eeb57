package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"velura/internal/metrics"
)

// DefaultAlertRetention is how long alerts are kept before eviction.
const DefaultAlertRetention = 7 * 24 * time.Hour

// Evaluator scans alert rules against the metric store's trailing windows
// and maintains the in-memory alert log. It is safe for concurrent use.
type Evaluator struct {
	store     *metrics.Store
	notifier  *Notifier
	logger    *slog.Logger
	rules     []Rule
	retention time.Duration
	now       func() time.Time

	mu     sync.RWMutex
	alerts []Alert
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithRetention overrides the alert retention window.
func WithRetention(d time.Duration) EvaluatorOption {
	return func(e *Evaluator) {
		if d > 0 {
			e.retention = d
		}
	}
}

// WithEvaluatorNow overrides the clock; intended for tests.
func WithEvaluatorNow(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		e.now = now
	}
}

// NewEvaluator creates an evaluator over the given store and rule set. The
// notifier may be nil, in which case alerts are recorded but not dispatched.
func NewEvaluator(store *metrics.Store, rules []Rule, notifier *Notifier, logger *slog.Logger, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		store:     store,
		notifier:  notifier,
		logger:    logger,
		rules:     rules,
		retention: DefaultAlertRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the configured rule set.
func (e *Evaluator) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Evaluate runs one evaluation pass over all enabled rules. For each rule
// the latest metric value inside the rule's trailing window is compared
// against the threshold; a rule with no points in its window is skipped
// (insufficient data, not "no alert"). A new alert is raised only when no
// unresolved alert for the same rule name exists.
func (e *Evaluator) Evaluate(ctx context.Context) {
	for _, rule := range e.rules {
		if !rule.Enabled {
			continue
		}

		points := e.store.Window(rule.Metric, rule.Duration)
		if len(points) == 0 {
			continue
		}

		value := points[len(points)-1].Value
		if !rule.holds(value) {
			continue
		}

		if alert, created := e.trigger(rule, value); created {
			e.dispatch(ctx, alert)
		}
	}
}

// trigger records a new alert for the rule unless one is already unresolved
// (deduplication). Severity is fixed at creation time and never recomputed.
func (e *Evaluator) trigger(rule Rule, value float64) (Alert, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, a := range e.alerts {
		if a.Rule == rule.Name && !a.Resolved {
			return Alert{}, false
		}
	}

	alert := Alert{
		ID:        uuid.NewString(),
		Rule:      rule.Name,
		Message:   fmt.Sprintf("%s: %s is %g (threshold: %g)", rule.Name, rule.Metric, value, rule.Threshold),
		Severity:  classifySeverity(value, rule.Threshold),
		Timestamp: e.now(),
	}
	e.alerts = append(e.alerts, alert)

	e.logger.Error("Alert raised",
		slog.String("rule", alert.Rule),
		slog.String("severity", string(alert.Severity)),
		slog.String("message", alert.Message))

	return alert, true
}

// dispatch hands the alert to the notifier without blocking the evaluation
// loop. Dispatch outcomes are logged by the notifier; they never affect the
// in-memory alert record.
func (e *Evaluator) dispatch(ctx context.Context, alert Alert) {
	if e.notifier == nil {
		return
	}
	go e.notifier.Dispatch(ctx, alert)
}

// Resolve marks the alert with the given id as resolved. It reports whether
// the alert was found. Alerts are never auto-resolved when the underlying
// condition clears; this explicit call is the only resolution path.
func (e *Evaluator) Resolve(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.alerts {
		if e.alerts[i].ID == id {
			e.alerts[i].Resolved = true
			e.logger.Info("Alert resolved", slog.String("rule", e.alerts[i].Rule), slog.String("id", id))
			return true
		}
	}
	return false
}

// Active returns all unresolved alerts in creation order.
func (e *Evaluator) Active() []Alert {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Alert, 0, len(e.alerts))
	for _, a := range e.alerts {
		if !a.Resolved {
			out = append(out, a)
		}
	}
	return out
}

// All returns up to limit alerts, newest first. A non-positive limit
// defaults to 100.
func (e *Evaluator) All(limit int) []Alert {
	if limit <= 0 {
		limit = 100
	}

	e.mu.RLock()
	out := make([]Alert, len(e.alerts))
	copy(out, e.alerts)
	e.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CleanupExpired drops alerts older than the retention window, resolved or
// not. It returns the number of alerts removed.
func (e *Evaluator) CleanupExpired() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-e.retention)
	kept := e.alerts[:0]
	for _, a := range e.alerts {
		if !a.Timestamp.Before(cutoff) {
			kept = append(kept, a)
		}
	}
	dropped := len(e.alerts) - len(kept)
	e.alerts = kept
	return dropped
}
