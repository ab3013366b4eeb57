package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock returns a controllable now func starting at a fixed instant.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRecordAndLatest(t *testing.T) {
	store := NewStore()

	_, ok := store.Latest("api_response_time")
	assert.False(t, ok)

	store.Record("api_response_time", 120, nil)
	store.Record("api_response_time", 250, map[string]string{"endpoint": "/products"})

	latest, ok := store.Latest("api_response_time")
	require.True(t, ok)
	assert.Equal(t, 250.0, latest)
	assert.Equal(t, 2, store.Len("api_response_time"))
}

func TestCapacityEvictsOldest(t *testing.T) {
	store := NewStore(WithCapacity(3))

	for i := 0; i < 5; i++ {
		store.Record("counter", float64(i), nil)
	}

	require.Equal(t, 3, store.Len("counter"))
	points := store.Window("counter", 0)
	require.Len(t, points, 3)
	assert.Equal(t, 2.0, points[0].Value)
	assert.Equal(t, 4.0, points[2].Value)
}

func TestWindowFiltersByTimestamp(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(WithNow(clock.Now))

	store.Record("latency", 10, nil)
	clock.Advance(10 * time.Minute)
	store.Record("latency", 20, nil)
	clock.Advance(time.Minute)
	store.Record("latency", 30, nil)

	recent := store.Window("latency", 5*time.Minute)
	require.Len(t, recent, 2)
	assert.Equal(t, 20.0, recent[0].Value)
	assert.Equal(t, 30.0, recent[1].Value)

	all := store.Window("latency", 0)
	assert.Len(t, all, 3)

	assert.Empty(t, store.Window("unknown", time.Minute))
}

func TestIncrementTreatsMissingAsZero(t *testing.T) {
	store := NewStore()

	store.Increment("cart_adds", 1, nil)
	store.Increment("cart_adds", 1, nil)
	store.Increment("cart_adds", 3, nil)

	latest, ok := store.Latest("cart_adds")
	require.True(t, ok)
	assert.Equal(t, 5.0, latest)
	// Each increment is stored as its own point.
	assert.Equal(t, 3, store.Len("cart_adds"))
}

func TestIncrementConcurrent(t *testing.T) {
	store := NewStore(WithCapacity(5000))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				store.Increment("hits", 1, nil)
			}
		}()
	}
	wg.Wait()

	latest, ok := store.Latest("hits")
	require.True(t, ok)
	assert.Equal(t, 1000.0, latest)
}

func TestHistogramDerivesAggregates(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(WithNow(clock.Now))

	store.Histogram("checkout_ms", 100, nil)
	clock.Advance(time.Minute)
	store.Histogram("checkout_ms", 300, nil)
	clock.Advance(time.Minute)
	store.Histogram("checkout_ms", 200, nil)

	avg, ok := store.Latest("checkout_ms_avg")
	require.True(t, ok)
	assert.InDelta(t, 200.0, avg, 1e-9)

	maxVal, ok := store.Latest("checkout_ms_max")
	require.True(t, ok)
	assert.Equal(t, 300.0, maxVal)

	minVal, ok := store.Latest("checkout_ms_min")
	require.True(t, ok)
	assert.Equal(t, 100.0, minVal)
}

func TestHistogramAggregatesRollOutOfWindow(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(WithNow(clock.Now))

	store.Histogram("load_ms", 1000, nil)
	// First sample falls out of the 5 minute window.
	clock.Advance(10 * time.Minute)
	store.Histogram("load_ms", 50, nil)

	avg, ok := store.Latest("load_ms_avg")
	require.True(t, ok)
	assert.Equal(t, 50.0, avg)
}

func TestTimerRecordsDurationSeries(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(WithNow(clock.Now))

	stop := store.Timer("image_fetch")
	clock.Advance(150 * time.Millisecond)
	stop()

	elapsed, ok := store.Latest("image_fetch_duration")
	require.True(t, ok)
	assert.InDelta(t, 150.0, elapsed, 1e-9)
}

func TestLastTimestampAcrossSeries(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(WithNow(clock.Now))

	_, ok := store.LastTimestamp()
	assert.False(t, ok)

	store.Record("a", 1, nil)
	clock.Advance(time.Minute)
	store.Record("b", 2, nil)

	last, ok := store.LastTimestamp()
	require.True(t, ok)
	assert.Equal(t, clock.Now(), last)
}

func TestCleanupDropsExpiredPoints(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(WithNow(clock.Now))

	store.Record("sales", 1, nil)
	clock.Advance(25 * time.Hour)
	store.Record("sales", 2, nil)

	dropped := store.Cleanup(24 * time.Hour)
	assert.Equal(t, 1, dropped)
	require.Equal(t, 1, store.Len("sales"))

	latest, ok := store.Latest("sales")
	require.True(t, ok)
	assert.Equal(t, 2.0, latest)
}

func TestNames(t *testing.T) {
	store := NewStore()
	store.Record("a", 1, nil)
	store.Record("b", 1, nil)

	assert.ElementsMatch(t, []string{"a", "b"}, store.Names())
}
