package alerting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleHolds(t *testing.T) {
	tests := []struct {
		name     string
		operator Operator
		value    float64
		want     bool
	}{
		{"gt above", OperatorGreaterThan, 11, true},
		{"gt equal", OperatorGreaterThan, 10, false},
		{"gt below", OperatorGreaterThan, 9, false},
		{"lt below", OperatorLessThan, 9, true},
		{"lt equal", OperatorLessThan, 10, false},
		{"eq match", OperatorEqual, 10, true},
		{"eq mismatch", OperatorEqual, 10.1, false},
		{"unknown operator", Operator("ge"), 11, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := Rule{Threshold: 10, Operator: tt.operator}
			assert.Equal(t, tt.want, rule.holds(tt.value))
		})
	}
}

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  Severity
	}{
		{"just above threshold", 11, SeverityLow},
		{"below half deviation", 14.9, SeverityLow},
		{"exactly half deviation", 15, SeverityMedium}, // inclusive boundary
		{"medium", 16, SeverityMedium},
		{"exactly double", 20, SeverityMedium},
		{"high", 21, SeverityHigh},
		{"exactly triple", 30, SeverityHigh},
		{"critical", 31, SeverityCritical},
		{"low from below", 9, SeverityLow},
		{"medium from below", 4, SeverityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifySeverity(tt.value, 10))
		})
	}
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	require.Len(t, rules, 5)

	byMetric := make(map[string]Rule, len(rules))
	for _, r := range rules {
		assert.True(t, r.Enabled, r.Name)
		assert.NotEmpty(t, r.Name)
		assert.Greater(t, r.Duration, time.Duration(0), r.Name)
		byMetric[r.Metric] = r
	}

	backlog, ok := byMetric["job_queue_pending"]
	require.True(t, ok)
	assert.Equal(t, OperatorGreaterThan, backlog.Operator)
	assert.Equal(t, 100.0, backlog.Threshold)

	cache, ok := byMetric["cache_hit_rate"]
	require.True(t, ok)
	assert.Equal(t, OperatorLessThan, cache.Operator)
}
