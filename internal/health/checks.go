package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// checkTimeout bounds one full check run.
const checkTimeout = 5 * time.Second

// CheckStatus is the up/down state of one component.
type CheckStatus string

// Component states.
const (
	CheckUp   CheckStatus = "up"
	CheckDown CheckStatus = "down"
)

// Check probes one component. A required check failing makes the whole
// report unhealthy; an optional one only degrades it.
type Check struct {
	Name     string
	Required bool
	Run      func(ctx context.Context) error
}

// CheckResult is the outcome of one component probe.
type CheckResult struct {
	Name           string      `json:"name"`
	Status         CheckStatus `json:"status"`
	Required       bool        `json:"required"`
	ResponseTimeMs float64     `json:"responseTimeMs"`
	Error          string      `json:"error,omitempty"`
}

// CheckReport is a full component-check run. Its Status is derived from the
// component probes only; it is a separate dimension from the alert-driven
// Snapshot status.
type CheckReport struct {
	Status        Status        `json:"status"`
	Timestamp     time.Time     `json:"timestamp"`
	Checks        []CheckResult `json:"checks"`
	TotalChecks   int           `json:"totalChecks"`
	PassingChecks int           `json:"passingChecks"`
	FailingChecks int           `json:"failingChecks"`
}

// CheckService holds the registered component checks.
type CheckService struct {
	mu     sync.RWMutex
	checks []Check
	now    func() time.Time
}

// NewCheckService creates an empty check registry.
func NewCheckService() *CheckService {
	return &CheckService{now: time.Now}
}

// RegisterCheck adds a component check.
func (s *CheckService) RegisterCheck(check Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks = append(s.checks, check)
}

// UnregisterCheck removes the named check.
func (s *CheckService) UnregisterCheck(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.checks[:0]
	for _, c := range s.checks {
		if c.Name != name {
			kept = append(kept, c)
		}
	}
	s.checks = kept
}

// RunChecks probes every registered component in parallel and aggregates
// the results: any required component down makes the report unhealthy, any
// other down component degrades it.
func (s *CheckService) RunChecks(ctx context.Context) CheckReport {
	s.mu.RLock()
	checks := make([]Check, len(s.checks))
	copy(checks, s.checks)
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	results := make([]CheckResult, len(checks))
	g, ctx := errgroup.WithContext(ctx)
	for i, check := range checks {
		i, check := i, check
		g.Go(func() error {
			start := time.Now()
			err := check.Run(ctx)
			result := CheckResult{
				Name:           check.Name,
				Status:         CheckUp,
				Required:       check.Required,
				ResponseTimeMs: float64(time.Since(start)) / float64(time.Millisecond),
			}
			if err != nil {
				result.Status = CheckDown
				result.Error = err.Error()
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	report := CheckReport{
		Status:      StatusHealthy,
		Timestamp:   s.now(),
		Checks:      results,
		TotalChecks: len(results),
	}
	requiredDown := 0
	for _, r := range results {
		if r.Status == CheckUp {
			report.PassingChecks++
			continue
		}
		report.FailingChecks++
		if r.Required {
			requiredDown++
		}
	}
	switch {
	case requiredDown > 0:
		report.Status = StatusUnhealthy
	case report.FailingChecks > 0:
		report.Status = StatusDegraded
	}
	return report
}

// HTTPReachable builds a check function that probes a URL with a HEAD
// request. Responses below 500 count as reachable; webhook endpoints
// routinely reject HEAD with 4xx while being perfectly alive.
func HTTPReachable(url string) func(ctx context.Context) error {
	client := &http.Client{}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("probe %s: %w", url, err)
		}
		resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
		}
		return nil
	}
}

// StoreFreshness builds a required-store check: the metric store must have
// recorded a point within the staleness window. An empty store passes; it
// only means the process just started.
func StoreFreshness(lastTimestamp func() (time.Time, bool), staleness time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		last, ok := lastTimestamp()
		if !ok {
			return nil
		}
		if time.Since(last) > staleness {
			return fmt.Errorf("no metrics recorded since %s", last.UTC().Format(time.RFC3339))
		}
		return nil
	}
}
