package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upCheck(name string, required bool) Check {
	return Check{Name: name, Required: required, Run: func(ctx context.Context) error { return nil }}
}

func downCheck(name string, required bool) Check {
	return Check{Name: name, Required: required, Run: func(ctx context.Context) error {
		return errors.New(name + " is unreachable")
	}}
}

func TestRunChecksAllPassing(t *testing.T) {
	svc := NewCheckService()
	svc.RegisterCheck(upCheck("metric-store", true))
	svc.RegisterCheck(upCheck("scheduler", true))

	report := svc.RunChecks(context.Background())

	assert.Equal(t, StatusHealthy, report.Status)
	assert.Equal(t, 2, report.TotalChecks)
	assert.Equal(t, 2, report.PassingChecks)
	assert.Equal(t, 0, report.FailingChecks)
	require.Len(t, report.Checks, 2)
	assert.Equal(t, "metric-store", report.Checks[0].Name)
	assert.Equal(t, CheckUp, report.Checks[0].Status)
}

func TestRunChecksOptionalFailureDegrades(t *testing.T) {
	svc := NewCheckService()
	svc.RegisterCheck(upCheck("scheduler", true))
	svc.RegisterCheck(downCheck("alert-webhook", false))

	report := svc.RunChecks(context.Background())

	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, 1, report.PassingChecks)
	assert.Equal(t, 1, report.FailingChecks)
	assert.Equal(t, CheckDown, report.Checks[1].Status)
	assert.Equal(t, "alert-webhook is unreachable", report.Checks[1].Error)
}

func TestRunChecksRequiredFailureIsUnhealthy(t *testing.T) {
	svc := NewCheckService()
	svc.RegisterCheck(downCheck("metric-store", true))
	svc.RegisterCheck(upCheck("alert-webhook", false))

	report := svc.RunChecks(context.Background())

	assert.Equal(t, StatusUnhealthy, report.Status)
	assert.True(t, report.Checks[0].Required)
}

func TestRunChecksEmptyRegistryIsHealthy(t *testing.T) {
	report := NewCheckService().RunChecks(context.Background())

	assert.Equal(t, StatusHealthy, report.Status)
	assert.Equal(t, 0, report.TotalChecks)
	assert.Empty(t, report.Checks)
}

func TestRunChecksExecutesInParallel(t *testing.T) {
	svc := NewCheckService()
	var ready sync.WaitGroup
	ready.Add(3)
	released := make(chan struct{})
	go func() {
		ready.Wait()
		close(released)
	}()
	for i := 0; i < 3; i++ {
		// Each check waits for every sibling to start; a sequential
		// runner would sit here until the run context times out.
		svc.RegisterCheck(Check{Name: "gate", Required: true, Run: func(ctx context.Context) error {
			ready.Done()
			select {
			case <-released:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}})
	}

	report := svc.RunChecks(context.Background())

	assert.Equal(t, StatusHealthy, report.Status)
	assert.Equal(t, 3, report.PassingChecks)
}

func TestUnregisterCheck(t *testing.T) {
	svc := NewCheckService()
	svc.RegisterCheck(downCheck("flaky", true))
	svc.RegisterCheck(upCheck("scheduler", true))

	svc.UnregisterCheck("flaky")
	report := svc.RunChecks(context.Background())

	assert.Equal(t, StatusHealthy, report.Status)
	require.Len(t, report.Checks, 1)
	assert.Equal(t, "scheduler", report.Checks[0].Name)
}

func TestHTTPReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer srv.Close()

	assert.NoError(t, HTTPReachable(srv.URL)(context.Background()))
}

func TestHTTPReachableServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := HTTPReachable(srv.URL)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestStoreFreshness(t *testing.T) {
	empty := StoreFreshness(func() (time.Time, bool) { return time.Time{}, false }, time.Minute)
	assert.NoError(t, empty(context.Background()))

	fresh := StoreFreshness(func() (time.Time, bool) { return time.Now(), true }, time.Minute)
	assert.NoError(t, fresh(context.Background()))

	stale := StoreFreshness(func() (time.Time, bool) { return time.Now().Add(-2 * time.Minute), true }, time.Minute)
	err := stale(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no metrics recorded since")
}
