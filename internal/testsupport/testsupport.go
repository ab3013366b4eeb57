// Package testsupport holds shared helpers for package tests.
package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"velura/internal/tracking"
)

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// FunnelSession builds the events of one session walking the funnel up to
// depth steps, one minute apart starting at base. Depth 1 is a bare page
// view, depth 5 reaches purchase.
func FunnelSession(sessionID string, base time.Time, depth int) []tracking.Event {
	ordered := []string{
		tracking.EventPageView,
		tracking.EventProductView,
		tracking.EventAddToCart,
		tracking.EventCheckoutStart,
		tracking.EventPurchaseCompleted,
	}
	if depth > len(ordered) {
		depth = len(ordered)
	}

	events := make([]tracking.Event, 0, depth)
	for i := 0; i < depth; i++ {
		events = append(events, tracking.Event{
			SessionID: sessionID,
			UserID:    "user-" + sessionID,
			EventType: ordered[i],
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return events
}

// SeedFunnelSessions adds count sessions of the given depth to the store,
// spacing sessions one second apart.
func SeedFunnelSessions(store *tracking.EventStore, base time.Time, count, depth int) {
	for i := 0; i < count; i++ {
		sessionID := fmt.Sprintf("s-%d-%d", depth, i)
		for _, e := range FunnelSession(sessionID, base.Add(time.Duration(i)*time.Second), depth) {
			store.Add(e)
		}
	}
}

// Click builds a click on the given element at the given time.
func Click(sessionID, userID, elementID string, ts time.Time) tracking.Click {
	return tracking.Click{
		SessionID:   sessionID,
		UserID:      userID,
		ElementID:   elementID,
		ElementType: "button",
		URL:         "https://shop.example.com/",
		Timestamp:   ts,
	}
}
