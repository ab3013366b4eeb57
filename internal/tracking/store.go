// Package tracking implements append-only, capacity-bounded in-memory stores
// for funnel events and click events. There is no update or delete: once
// recorded an event stays unchanged until FIFO eviction (audit-log
// semantics).
package tracking

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity bounds each store's total event count.
const DefaultCapacity = 10000

// EventStore holds tracked funnel events in insertion order.
type EventStore struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
	now      func() time.Time
}

// StoreOption configures an EventStore or ClickStore.
type StoreOption func(*storeConfig)

type storeConfig struct {
	capacity int
	now      func() time.Time
}

// WithCapacity overrides the store's event limit.
func WithCapacity(n int) StoreOption {
	return func(c *storeConfig) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithNow overrides the clock; intended for tests.
func WithNow(now func() time.Time) StoreOption {
	return func(c *storeConfig) {
		c.now = now
	}
}

func applyOptions(opts []StoreOption) storeConfig {
	c := storeConfig{capacity: DefaultCapacity, now: time.Now}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// NewEventStore creates an empty event store.
func NewEventStore(opts ...StoreOption) *EventStore {
	c := applyOptions(opts)
	return &EventStore{capacity: c.capacity, now: c.now}
}

// Add records the event, assigning a unique id and the current timestamp.
// The oldest event is evicted when the store is at capacity. The assigned id
// is returned.
func (s *EventStore) Add(event Event) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.ID = uuid.NewString()
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}

	s.events = append(s.events, event)
	if len(s.events) > s.capacity {
		s.events = s.events[len(s.events)-s.capacity:]
	}
	return event.ID
}

// Events returns the stored events matching the filter, preserving original
// insertion order.
func (s *EventStore) Events(f Filter) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Event, 0, len(s.events))
	for _, e := range s.events {
		if matchEvent(e, f) {
			out = append(out, e)
		}
	}
	return out
}

// Recent returns up to limit of the most recently added events, oldest
// first.
func (s *EventStore) Recent(limit int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if limit > 0 && len(s.events) > limit {
		start = len(s.events) - limit
	}
	out := make([]Event, len(s.events)-start)
	copy(out, s.events[start:])
	return out
}

// Len reports the number of stored events.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func matchEvent(e Event, f Filter) bool {
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.EventType != "" && e.EventType != f.EventType {
		return false
	}
	if f.ProductID != "" && e.ProductID != f.ProductID {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	return true
}

// ClickStore holds tracked clicks in insertion order.
type ClickStore struct {
	mu       sync.RWMutex
	clicks   []Click
	capacity int
	now      func() time.Time
}

// NewClickStore creates an empty click store.
func NewClickStore(opts ...StoreOption) *ClickStore {
	c := applyOptions(opts)
	return &ClickStore{capacity: c.capacity, now: c.now}
}

// Add records the click, assigning a unique id and the current timestamp,
// evicting the oldest click at capacity. The assigned id is returned.
func (s *ClickStore) Add(click Click) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	click.ID = uuid.NewString()
	if click.Timestamp.IsZero() {
		click.Timestamp = s.now()
	}

	s.clicks = append(s.clicks, click)
	if len(s.clicks) > s.capacity {
		s.clicks = s.clicks[len(s.clicks)-s.capacity:]
	}
	return click.ID
}

// Clicks returns the stored clicks matching the filter in insertion order.
func (s *ClickStore) Clicks(f ClickFilter) []Click {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Click, 0, len(s.clicks))
	for _, c := range s.clicks {
		if matchClick(c, f) {
			out = append(out, c)
		}
	}
	return out
}

// Recent returns up to limit of the most recently added clicks, oldest
// first.
func (s *ClickStore) Recent(limit int) []Click {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if limit > 0 && len(s.clicks) > limit {
		start = len(s.clicks) - limit
	}
	out := make([]Click, len(s.clicks)-start)
	copy(out, s.clicks[start:])
	return out
}

// Len reports the number of stored clicks.
func (s *ClickStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clicks)
}

// UniqueUsers counts distinct non-empty user ids across all stored clicks.
func (s *ClickStore) UniqueUsers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make(map[string]struct{})
	for _, c := range s.clicks {
		if c.UserID != "" {
			users[c.UserID] = struct{}{}
		}
	}
	return len(users)
}

func matchClick(c Click, f ClickFilter) bool {
	if f.SessionID != "" && c.SessionID != f.SessionID {
		return false
	}
	if f.UserID != "" && c.UserID != f.UserID {
		return false
	}
	if f.ElementID != "" && c.ElementID != f.ElementID {
		return false
	}
	if f.ElementType != "" && c.ElementType != f.ElementType {
		return false
	}
	if f.URL != "" && c.URL != f.URL {
		return false
	}
	if !f.From.IsZero() && c.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && c.Timestamp.After(f.To) {
		return false
	}
	return true
}
