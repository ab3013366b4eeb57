// Package metrics implements an in-memory, capacity-bounded metric store.
//
// Each named series keeps its most recent points in insertion order; the
// oldest points are evicted once the per-series capacity is reached. All
// reads are window-filtered copies, so callers can never mutate store state.
package metrics

import (
	"sync"
	"time"
)

// DefaultCapacity is the per-series point limit used when none is configured.
const DefaultCapacity = 1000

// histogramWindow is the trailing window used for the derived avg/max/min
// series recorded by Histogram.
const histogramWindow = 5 * time.Minute

// Point is a single timestamped measurement.
type Point struct {
	Name      string            `json:"name"`
	Value     float64           `json:"value"`
	Timestamp time.Time         `json:"timestamp"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// Store holds bounded time series keyed by metric name. It is safe for
// concurrent use.
type Store struct {
	mu       sync.RWMutex
	series   map[string][]Point
	capacity int
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithCapacity overrides the per-series point limit.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithNow overrides the clock; intended for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty metric store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		series:   make(map[string][]Point),
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record appends a point with the current timestamp to the named series,
// creating the series if needed. It always succeeds; once the series is at
// capacity the oldest point is dropped.
func (s *Store) Record(name string, value float64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(name, value, tags)
}

// record appends under an already-held write lock.
func (s *Store) record(name string, value float64, tags map[string]string) {
	points := append(s.series[name], Point{
		Name:      name,
		Value:     value,
		Timestamp: s.now(),
		Tags:      tags,
	})
	if len(points) > s.capacity {
		points = points[len(points)-s.capacity:]
	}
	s.series[name] = points
}

// Window returns the points for name whose timestamp falls within the
// trailing window, preserving insertion order. A non-positive window returns
// the whole series. Unknown names yield an empty slice.
func (s *Store) Window(name string, window time.Duration) []Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window(name, window)
}

func (s *Store) window(name string, window time.Duration) []Point {
	points := s.series[name]
	if window <= 0 {
		out := make([]Point, len(points))
		copy(out, points)
		return out
	}

	cutoff := s.now().Add(-window)
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if !p.Timestamp.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out
}

// Latest returns the most recent value for name. The second return is false
// when the series is empty or unknown.
func (s *Store) Latest(name string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.series[name]
	if len(points) == 0 {
		return 0, false
	}
	return points[len(points)-1].Value, true
}

// Increment records latest+delta as a new point, treating a missing series
// as zero. The read-modify-write runs under the store lock, so concurrent
// increments are not lost.
func (s *Store) Increment(name string, delta float64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := 0.0
	if points := s.series[name]; len(points) > 0 {
		current = points[len(points)-1].Value
	}
	s.record(name, current+delta, tags)
}

// Histogram records the raw value and additionally records derived
// {name}_avg, {name}_max and {name}_min points computed over the trailing
// five minutes as of this call. It is a convenience aggregation, not a
// bucketed histogram.
func (s *Store) Histogram(name string, value float64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record(name, value, tags)

	points := s.window(name, histogramWindow)
	if len(points) == 0 {
		return
	}

	sum := 0.0
	minVal := points[0].Value
	maxVal := points[0].Value
	for _, p := range points {
		sum += p.Value
		if p.Value < minVal {
			minVal = p.Value
		}
		if p.Value > maxVal {
			maxVal = p.Value
		}
	}

	s.record(name+"_avg", sum/float64(len(points)), tags)
	s.record(name+"_max", maxVal, tags)
	s.record(name+"_min", minVal, tags)
}

// Timer starts a timer and returns a stop function. Invoking the stop
// function records {name}_duration as the elapsed time in fractional
// milliseconds.
func (s *Store) Timer(name string) func() {
	start := s.now()
	return func() {
		elapsed := s.now().Sub(start)
		s.Record(name+"_duration", float64(elapsed)/float64(time.Millisecond), nil)
	}
}

// LastTimestamp returns the newest timestamp across all series. The second
// return is false when no metric has ever been recorded.
func (s *Store) LastTimestamp() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last time.Time
	found := false
	for _, points := range s.series {
		if len(points) == 0 {
			continue
		}
		if ts := points[len(points)-1].Timestamp; ts.After(last) {
			last = ts
			found = true
		}
	}
	return last, found
}

// Len reports the number of stored points for name.
func (s *Store) Len(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series[name])
}

// Names returns the known series names in no particular order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.series))
	for name := range s.series {
		names = append(names, name)
	}
	return names
}

// Cleanup drops points older than the retention window across all series.
// It returns the number of points removed.
func (s *Store) Cleanup(retention time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	cutoff := s.now().Add(-retention)
	for name, points := range s.series {
		kept := points[:0]
		for _, p := range points {
			if !p.Timestamp.Before(cutoff) {
				kept = append(kept, p)
			}
		}
		dropped += len(points) - len(kept)
		s.series[name] = kept
	}
	return dropped
}
