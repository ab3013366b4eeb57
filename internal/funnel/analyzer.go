// Package funnel computes conversion funnel analytics over tracked events.
// All computations are pure functions of the event set passed in; nothing
// here touches the stores directly.
package funnel

import (
	"sort"
	"strings"
	"time"

	"velura/internal/tracking"
)

// pathSeparator joins event types into a conversion path key.
const pathSeparator = " > "

// topPathCount limits how many conversion paths an analysis reports.
const topPathCount = 5

// Step is one stage of the conversion funnel.
type Step struct {
	Name       string   `json:"name"`
	EventTypes []string `json:"eventTypes"`
	Count      int      `json:"count"`
	// DropOffRate is 1 - count/previousCount, in [0,1]; 0 for the first
	// step and whenever the previous step saw no events.
	DropOffRate float64 `json:"dropOffRate"`
}

// Path is a distinct ordered sequence of event types observed within
// sessions, with how often it occurred and how often it converted.
type Path struct {
	Path           []string `json:"path"`
	Count          int      `json:"count"`
	ConversionRate float64  `json:"conversionRate"`
}

// TimeToConvert reports elapsed minutes from a session's first event to its
// first purchase, aggregated across all converting sessions.
type TimeToConvert struct {
	Avg    float64 `json:"avg"`
	Median float64 `json:"median"`
}

// Period is the analyzed time range.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Analysis is a full conversion funnel report.
type Analysis struct {
	TotalVisitors  int           `json:"totalVisitors"`
	Steps          []Step        `json:"funnelSteps"`
	ConversionRate float64       `json:"conversionRate"`
	TopPaths       []Path        `json:"topConversionPaths"`
	TimeToConvert  TimeToConvert `json:"timeToConvert"`
	Period         Period        `json:"period"`
}

// defaultSteps is the storefront funnel: Visitors through Purchase
// Completed.
func defaultSteps() []Step {
	return []Step{
		{Name: "Visitors", EventTypes: []string{tracking.EventPageView}},
		{Name: "Product Views", EventTypes: []string{tracking.EventProductView}},
		{Name: "Add to Cart", EventTypes: []string{tracking.EventAddToCart}},
		{Name: "Checkout Start", EventTypes: []string{tracking.EventCheckoutStart}},
		{Name: "Purchase Completed", EventTypes: []string{tracking.EventPurchaseCompleted}},
	}
}

// Analyze computes the funnel report for the given events. Events are
// expected to be pre-filtered to the period; the period is echoed back in
// the result.
func Analyze(events []tracking.Event, period Period) Analysis {
	steps := defaultSteps()

	for i := range steps {
		allowed := make(map[string]struct{}, len(steps[i].EventTypes))
		for _, t := range steps[i].EventTypes {
			allowed[t] = struct{}{}
		}
		for _, e := range events {
			if _, ok := allowed[e.EventType]; ok {
				steps[i].Count++
			}
		}
	}

	for i := 1; i < len(steps); i++ {
		if prev := steps[i-1].Count; prev > 0 {
			steps[i].DropOffRate = 1 - float64(steps[i].Count)/float64(prev)
		}
	}

	visitors := steps[0].Count
	purchases := steps[len(steps)-1].Count
	divisor := visitors
	if divisor == 0 {
		divisor = 1
	}

	return Analysis{
		TotalVisitors:  visitors,
		Steps:          steps,
		ConversionRate: float64(purchases) / float64(divisor) * 100,
		TopPaths:       topConversionPaths(events),
		TimeToConvert:  timeToConvert(events),
		Period:         period,
	}
}

// sessionsByID groups events by session and sorts each session's events by
// timestamp ascending.
func sessionsByID(events []tracking.Event) map[string][]tracking.Event {
	sessions := make(map[string][]tracking.Event)
	for _, e := range events {
		sessions[e.SessionID] = append(sessions[e.SessionID], e)
	}
	for _, session := range sessions {
		sort.SliceStable(session, func(i, j int) bool {
			return session[i].Timestamp.Before(session[j].Timestamp)
		})
	}
	return sessions
}

// topConversionPaths tallies each session's literal ordered event-type
// sequence and returns the five paths with the highest conversion rate. A
// path converts when the session contains a purchase anywhere in the
// sequence, not necessarily last. Repeated event types are kept verbatim.
func topConversionPaths(events []tracking.Event) []Path {
	type tally struct {
		count     int
		converted int
	}

	tallies := make(map[string]*tally)
	for _, session := range sessionsByID(events) {
		sequence := make([]string, len(session))
		converted := false
		for i, e := range session {
			sequence[i] = e.EventType
			if e.EventType == tracking.EventPurchaseCompleted {
				converted = true
			}
		}

		key := strings.Join(sequence, pathSeparator)
		t, ok := tallies[key]
		if !ok {
			t = &tally{}
			tallies[key] = t
		}
		t.count++
		if converted {
			t.converted++
		}
	}

	paths := make([]Path, 0, len(tallies))
	for key, t := range tallies {
		paths = append(paths, Path{
			Path:           strings.Split(key, pathSeparator),
			Count:          t.count,
			ConversionRate: float64(t.converted) / float64(t.count) * 100,
		})
	}

	sort.SliceStable(paths, func(i, j int) bool {
		return paths[i].ConversionRate > paths[j].ConversionRate
	})
	if len(paths) > topPathCount {
		paths = paths[:topPathCount]
	}
	return paths
}

// timeToConvert measures minutes from each converting session's first event
// to its first purchase event, returning the mean and median. Both are zero
// when no session converted.
func timeToConvert(events []tracking.Event) TimeToConvert {
	var minutes []float64
	for _, session := range sessionsByID(events) {
		for _, e := range session {
			if e.EventType == tracking.EventPurchaseCompleted {
				elapsed := e.Timestamp.Sub(session[0].Timestamp)
				minutes = append(minutes, elapsed.Minutes())
				break
			}
		}
	}

	if len(minutes) == 0 {
		return TimeToConvert{}
	}

	sum := 0.0
	for _, m := range minutes {
		sum += m
	}

	sort.Float64s(minutes)
	var median float64
	mid := len(minutes) / 2
	if len(minutes)%2 == 0 {
		median = (minutes[mid-1] + minutes[mid]) / 2
	} else {
		median = minutes[mid]
	}

	return TimeToConvert{
		Avg:    sum / float64(len(minutes)),
		Median: median,
	}
}

// ProductConversion summarizes per-product funnel performance.
type ProductConversion struct {
	ProductID      string  `json:"productId"`
	ProductName    string  `json:"productName"`
	Views          int     `json:"views"`
	AddToCart      int     `json:"addToCart"`
	Purchases      int     `json:"purchases"`
	ConversionRate float64 `json:"conversionRate"`
}

// TopConvertingProducts aggregates view, add-to-cart and purchase counts per
// product and returns products sorted by view-to-purchase conversion rate,
// highest first. Events without a product id are ignored.
func TopConvertingProducts(events []tracking.Event) []ProductConversion {
	byProduct := make(map[string]*ProductConversion)
	order := make([]string, 0)

	for _, e := range events {
		if e.ProductID == "" {
			continue
		}
		p, ok := byProduct[e.ProductID]
		if !ok {
			name := e.Metadata["productName"]
			if name == "" {
				name = "Product " + e.ProductID
			}
			p = &ProductConversion{ProductID: e.ProductID, ProductName: name}
			byProduct[e.ProductID] = p
			order = append(order, e.ProductID)
		}

		switch e.EventType {
		case tracking.EventProductView:
			p.Views++
		case tracking.EventAddToCart:
			p.AddToCart++
		case tracking.EventPurchaseCompleted:
			p.Purchases++
		}
	}

	out := make([]ProductConversion, 0, len(byProduct))
	for _, id := range order {
		p := byProduct[id]
		if p.Views > 0 {
			p.ConversionRate = float64(p.Purchases) / float64(p.Views) * 100
		}
		out = append(out, *p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ConversionRate > out[j].ConversionRate
	})
	return out
}
