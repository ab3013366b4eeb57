package funnel

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velura/internal/tracking"
)

var testBase = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// sessionEvents builds one session walking the funnel to the given depth,
// one minute between steps.
func sessionEvents(sessionID string, base time.Time, depth int) []tracking.Event {
	ordered := []string{
		tracking.EventPageView,
		tracking.EventProductView,
		tracking.EventAddToCart,
		tracking.EventCheckoutStart,
		tracking.EventPurchaseCompleted,
	}
	events := make([]tracking.Event, 0, depth)
	for i := 0; i < depth && i < len(ordered); i++ {
		events = append(events, tracking.Event{
			SessionID: sessionID,
			EventType: ordered[i],
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return events
}

// seedFunnel produces sessions so the step counts come out as
// 100/40/10/4/1.
func seedFunnel() []tracking.Event {
	counts := []int{100, 40, 10, 4, 1}
	var events []tracking.Event
	for depth := 1; depth <= 5; depth++ {
		// Sessions reaching exactly this depth.
		n := counts[depth-1]
		if depth < 5 {
			n -= counts[depth]
		}
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("d%d-%d", depth, i)
			events = append(events, sessionEvents(id, testBase, depth)...)
		}
	}
	return events
}

func TestAnalyzeStepCountsAndDropOff(t *testing.T) {
	analysis := Analyze(seedFunnel(), Period{Start: testBase, End: testBase.Add(time.Hour)})

	require.Len(t, analysis.Steps, 5)
	wantCounts := []int{100, 40, 10, 4, 1}
	wantDropOff := []float64{0, 0.6, 0.75, 0.6, 0.75}
	for i, step := range analysis.Steps {
		assert.Equal(t, wantCounts[i], step.Count, step.Name)
		assert.InDelta(t, wantDropOff[i], step.DropOffRate, 1e-9, step.Name)
	}

	assert.Equal(t, 100, analysis.TotalVisitors)
	assert.InDelta(t, 1.0, analysis.ConversionRate, 1e-9)
}

func TestAnalyzeEmptyEvents(t *testing.T) {
	analysis := Analyze(nil, Period{})

	require.Len(t, analysis.Steps, 5)
	for _, step := range analysis.Steps {
		assert.Zero(t, step.Count)
		assert.Zero(t, step.DropOffRate)
	}
	assert.Zero(t, analysis.TotalVisitors)
	// Visitor divisor is clamped to one, not a division by zero.
	assert.Zero(t, analysis.ConversionRate)
	assert.Empty(t, analysis.TopPaths)
	assert.Zero(t, analysis.TimeToConvert.Avg)
}

func TestTopConversionPaths(t *testing.T) {
	var events []tracking.Event
	// Two sessions with the full converting path.
	events = append(events, sessionEvents("a", testBase, 5)...)
	events = append(events, sessionEvents("b", testBase, 5)...)
	// Three sessions browsing without purchase.
	events = append(events, sessionEvents("c", testBase, 2)...)
	events = append(events, sessionEvents("d", testBase, 2)...)
	events = append(events, sessionEvents("e", testBase, 2)...)

	paths := topConversionPaths(events)
	require.Len(t, paths, 2)

	// Converting path sorts first.
	assert.Equal(t, 100.0, paths[0].ConversionRate)
	assert.Equal(t, 2, paths[0].Count)
	assert.Equal(t, []string{
		tracking.EventPageView,
		tracking.EventProductView,
		tracking.EventAddToCart,
		tracking.EventCheckoutStart,
		tracking.EventPurchaseCompleted,
	}, paths[0].Path)

	assert.Equal(t, 0.0, paths[1].ConversionRate)
	assert.Equal(t, 3, paths[1].Count)
}

func TestTopConversionPathsLimit(t *testing.T) {
	var events []tracking.Event
	// Seven distinct single-event paths.
	types := []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7"}
	for i, typ := range types {
		events = append(events, tracking.Event{
			SessionID: fmt.Sprintf("s%d", i),
			EventType: typ,
			Timestamp: testBase,
		})
	}

	assert.Len(t, topConversionPaths(events), 5)
}

func TestTimeToConvertMeanAndMedian(t *testing.T) {
	var events []tracking.Event
	// Converting sessions taking 2, 4 and 12 minutes.
	for i, minutes := range []int{2, 4, 12} {
		id := fmt.Sprintf("s%d", i)
		events = append(events,
			tracking.Event{SessionID: id, EventType: tracking.EventPageView, Timestamp: testBase},
			tracking.Event{SessionID: id, EventType: tracking.EventPurchaseCompleted, Timestamp: testBase.Add(time.Duration(minutes) * time.Minute)},
		)
	}

	ttc := timeToConvert(events)
	assert.InDelta(t, 6.0, ttc.Avg, 1e-9)
	assert.InDelta(t, 4.0, ttc.Median, 1e-9)
}

func TestTimeToConvertEvenMedianAveragesMiddleTwo(t *testing.T) {
	var events []tracking.Event
	for i, minutes := range []int{1, 3, 5, 11} {
		id := fmt.Sprintf("s%d", i)
		events = append(events,
			tracking.Event{SessionID: id, EventType: tracking.EventPageView, Timestamp: testBase},
			tracking.Event{SessionID: id, EventType: tracking.EventPurchaseCompleted, Timestamp: testBase.Add(time.Duration(minutes) * time.Minute)},
		)
	}

	ttc := timeToConvert(events)
	assert.InDelta(t, 5.0, ttc.Avg, 1e-9)
	assert.InDelta(t, 4.0, ttc.Median, 1e-9)
}

func TestTopConvertingProducts(t *testing.T) {
	events := []tracking.Event{
		{SessionID: "s1", EventType: tracking.EventProductView, ProductID: "p1", Metadata: map[string]string{"productName": "Rose Serum"}, Timestamp: testBase},
		{SessionID: "s1", EventType: tracking.EventAddToCart, ProductID: "p1", Timestamp: testBase},
		{SessionID: "s1", EventType: tracking.EventPurchaseCompleted, ProductID: "p1", Timestamp: testBase},
		{SessionID: "s2", EventType: tracking.EventProductView, ProductID: "p1", Timestamp: testBase},
		{SessionID: "s3", EventType: tracking.EventProductView, ProductID: "p2", Timestamp: testBase},
		// No product id: ignored.
		{SessionID: "s4", EventType: tracking.EventProductView, Timestamp: testBase},
	}

	products := TopConvertingProducts(events)
	require.Len(t, products, 2)

	assert.Equal(t, "p1", products[0].ProductID)
	assert.Equal(t, "Rose Serum", products[0].ProductName)
	assert.Equal(t, 2, products[0].Views)
	assert.Equal(t, 1, products[0].AddToCart)
	assert.Equal(t, 1, products[0].Purchases)
	assert.InDelta(t, 50.0, products[0].ConversionRate, 1e-9)

	assert.Equal(t, "p2", products[1].ProductID)
	assert.Equal(t, "Product p2", products[1].ProductName)
	assert.Zero(t, products[1].ConversionRate)
}
