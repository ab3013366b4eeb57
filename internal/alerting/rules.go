// Package alerting evaluates static threshold rules against the metric
// store and dispatches raised alerts to external notification sinks.
package alerting

import (
	"math"
	"time"
)

// Operator compares a metric value against a rule threshold.
type Operator string

// Supported comparison operators.
const (
	OperatorGreaterThan Operator = "gt"
	OperatorLessThan    Operator = "lt"
	OperatorEqual       Operator = "eq"
)

// Severity classifies how far a value deviated from its threshold.
type Severity string

// Severity levels, lowest to highest.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rule is a static threshold condition on a named metric. Rules are
// configured at process start and not mutated afterwards.
type Rule struct {
	Name      string        `json:"name"`
	Metric    string        `json:"metric"`
	Threshold float64       `json:"threshold"`
	Operator  Operator      `json:"operator"`
	Duration  time.Duration `json:"duration"`
	Enabled   bool          `json:"enabled"`
}

// Alert is a raised instance of a rule crossing its threshold. Only the
// Resolved flag is ever mutated after creation.
type Alert struct {
	ID        string    `json:"id"`
	Rule      string    `json:"rule"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
	Resolved  bool      `json:"resolved"`
}

// holds reports whether value satisfies the rule's comparison.
func (r Rule) holds(value float64) bool {
	switch r.Operator {
	case OperatorGreaterThan:
		return value > r.Threshold
	case OperatorLessThan:
		return value < r.Threshold
	case OperatorEqual:
		return value == r.Threshold
	}
	return false
}

// classifySeverity maps the relative deviation |value-threshold|/threshold
// to a severity. The 0.5 boundary is inclusive into medium; the higher
// boundaries are exclusive.
func classifySeverity(value, threshold float64) Severity {
	deviation := math.Abs(value-threshold) / threshold
	switch {
	case deviation > 2:
		return SeverityCritical
	case deviation > 1:
		return SeverityHigh
	case deviation >= 0.5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// DefaultRules returns the storefront's built-in alert rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:      "High API Error Rate",
			Metric:    "product_api_error_rate",
			Threshold: 0.1,
			Operator:  OperatorGreaterThan,
			Duration:  5 * time.Minute,
			Enabled:   true,
		},
		{
			Name:      "Slow API Response Time",
			Metric:    "product_api_response_time",
			Threshold: 5000,
			Operator:  OperatorGreaterThan,
			Duration:  time.Minute,
			Enabled:   true,
		},
		{
			Name:      "Job Queue Backlog",
			Metric:    "job_queue_pending",
			Threshold: 100,
			Operator:  OperatorGreaterThan,
			Duration:  10 * time.Minute,
			Enabled:   true,
		},
		{
			Name:      "High Link Validation Failure Rate",
			Metric:    "link_validation_failure_rate",
			Threshold: 0.2,
			Operator:  OperatorGreaterThan,
			Duration:  5 * time.Minute,
			Enabled:   true,
		},
		{
			Name:      "Cache Hit Rate Too Low",
			Metric:    "cache_hit_rate",
			Threshold: 0.8,
			Operator:  OperatorLessThan,
			Duration:  5 * time.Minute,
			Enabled:   true,
		},
	}
}
