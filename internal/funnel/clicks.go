package funnel

import (
	"sort"
	"time"

	"velura/internal/tracking"
)

// activeWindow is how far back a click still counts a user as active.
const activeWindow = 5 * time.Minute

// topElementCount limits the element leaderboard size.
const topElementCount = 10

// trendDays is the length of the daily click trend.
const trendDays = 7

// ElementClicks is one row of the element leaderboard.
type ElementClicks struct {
	ElementID        string  `json:"elementId"`
	ElementName      string  `json:"elementName"`
	ClickCount       int     `json:"clickCount"`
	ClickThroughRate float64 `json:"clickThroughRate"`
}

// HeatmapPoint is a single click coordinate with an intensity weight.
type HeatmapPoint struct {
	X         int `json:"x"`
	Y         int `json:"y"`
	Intensity int `json:"intensity"`
}

// ReferrerClicks counts clicks arriving from one referrer source.
type ReferrerClicks struct {
	Source string `json:"source"`
	Clicks int    `json:"clicks"`
}

// ClickAnalytics is the real-time click dashboard payload.
type ClickAnalytics struct {
	TotalClicks        int              `json:"totalClicks"`
	UniqueUsers        int              `json:"uniqueUsers"`
	TopClickElements   []ElementClicks  `json:"topClickElements"`
	ClickHeatmap       []HeatmapPoint   `json:"clickHeatmap"`
	ActiveUsers        int              `json:"activeUsers"`
	AvgSessionDuration float64          `json:"avgSessionDuration"`
	PageEngagement     float64          `json:"pageEngagement"`
	ReferrerBreakdown  []ReferrerClicks `json:"referrerBreakdown"`
}

// HourClicks counts clicks within one UTC hour of day.
type HourClicks struct {
	Hour   int `json:"hour"`
	Clicks int `json:"clicks"`
}

// DayClicks counts clicks on one calendar day.
type DayClicks struct {
	Date   string `json:"date"`
	Clicks int    `json:"clicks"`
}

// ElementAnalytics is the per-element click report.
type ElementAnalytics struct {
	ElementID        string         `json:"elementId"`
	ElementName      string         `json:"elementName"`
	TotalClicks      int            `json:"totalClicks"`
	UniqueUsers      int            `json:"uniqueUsers"`
	ClickThroughRate float64        `json:"clickThroughRate"`
	RegionClicks     []HeatmapPoint `json:"regionClicks"`
	TimeDistribution []HourClicks   `json:"timeDistribution"`
	PerformanceTrend []DayClicks    `json:"performanceTrend"`
}

// AnalyzeClicks computes the real-time click dashboard from the given
// clicks. now anchors the active-user window.
func AnalyzeClicks(clicks []tracking.Click, now time.Time) ClickAnalytics {
	uniqueUsers := uniqueClickUsers(clicks)

	// Element leaderboard
	type elementTally struct {
		name  string
		count int
	}
	elements := make(map[string]*elementTally)
	elementOrder := make([]string, 0)
	for _, c := range clicks {
		id := c.ElementID
		if id == "" {
			id = "unknown"
		}
		t, ok := elements[id]
		if !ok {
			name := c.ElementName
			if name == "" {
				name = id
			}
			t = &elementTally{name: name}
			elements[id] = t
			elementOrder = append(elementOrder, id)
		}
		t.count++
	}

	top := make([]ElementClicks, 0, len(elements))
	for _, id := range elementOrder {
		t := elements[id]
		row := ElementClicks{ElementID: id, ElementName: t.name, ClickCount: t.count}
		if uniqueUsers > 0 {
			row.ClickThroughRate = float64(t.count) / float64(uniqueUsers) * 100
		}
		top = append(top, row)
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].ClickCount > top[j].ClickCount
	})
	if len(top) > topElementCount {
		top = top[:topElementCount]
	}

	// Heatmap: every click with coordinates contributes one unit.
	heatmap := make([]HeatmapPoint, 0, len(clicks))
	for _, c := range clicks {
		if c.X != nil && c.Y != nil {
			heatmap = append(heatmap, HeatmapPoint{X: *c.X, Y: *c.Y, Intensity: 1})
		}
	}

	// Active users saw a click in the last five minutes.
	activeCutoff := now.Add(-activeWindow)
	activeUsers := make(map[string]struct{})
	for _, c := range clicks {
		if c.Timestamp.After(activeCutoff) {
			activeUsers[c.UserID] = struct{}{}
		}
	}

	// Session duration and engagement
	type sessionSpan struct {
		clicks int
		start  time.Time
		end    time.Time
	}
	sessions := make(map[string]*sessionSpan)
	for _, c := range clicks {
		s, ok := sessions[c.SessionID]
		if !ok {
			sessions[c.SessionID] = &sessionSpan{clicks: 1, start: c.Timestamp, end: c.Timestamp}
			continue
		}
		s.clicks++
		if c.Timestamp.Before(s.start) {
			s.start = c.Timestamp
		}
		if c.Timestamp.After(s.end) {
			s.end = c.Timestamp
		}
	}

	var avgDuration, engagement float64
	if len(sessions) > 0 {
		totalSeconds := 0.0
		totalClicks := 0
		for _, s := range sessions {
			totalSeconds += s.end.Sub(s.start).Seconds()
			totalClicks += s.clicks
		}
		avgDuration = totalSeconds / float64(len(sessions))
		engagement = float64(totalClicks) / float64(len(sessions))
	}

	// Referrer breakdown
	referrers := make(map[string]int)
	referrerOrder := make([]string, 0)
	for _, c := range clicks {
		source := c.Referrer
		if source == "" {
			source = "Direct"
		}
		if _, ok := referrers[source]; !ok {
			referrerOrder = append(referrerOrder, source)
		}
		referrers[source]++
	}
	breakdown := make([]ReferrerClicks, 0, len(referrers))
	for _, source := range referrerOrder {
		breakdown = append(breakdown, ReferrerClicks{Source: source, Clicks: referrers[source]})
	}
	sort.SliceStable(breakdown, func(i, j int) bool {
		return breakdown[i].Clicks > breakdown[j].Clicks
	})

	return ClickAnalytics{
		TotalClicks:        len(clicks),
		UniqueUsers:        uniqueUsers,
		TopClickElements:   top,
		ClickHeatmap:       heatmap,
		ActiveUsers:        len(activeUsers),
		AvgSessionDuration: avgDuration,
		PageEngagement:     engagement,
		ReferrerBreakdown:  breakdown,
	}
}

// AnalyzeElement computes the per-element click report. clicks must already
// be filtered to the element; now anchors the 7-day trend.
func AnalyzeElement(clicks []tracking.Click, elementID string, now time.Time) ElementAnalytics {
	name := elementID
	for _, c := range clicks {
		if c.ElementName != "" {
			name = c.ElementName
			break
		}
	}

	uniqueUsers := uniqueClickUsers(clicks)

	region := make([]HeatmapPoint, 0, len(clicks))
	for _, c := range clicks {
		if c.X != nil && c.Y != nil {
			region = append(region, HeatmapPoint{X: *c.X, Y: *c.Y, Intensity: 1})
		}
	}

	hours := make([]HourClicks, 24)
	for h := range hours {
		hours[h].Hour = h
	}
	for _, c := range clicks {
		hours[c.Timestamp.UTC().Hour()].Clicks++
	}

	// Daily trend, oldest day first.
	trend := make([]DayClicks, 0, trendDays)
	for daysAgo := trendDays - 1; daysAgo >= 0; daysAgo-- {
		day := now.UTC().AddDate(0, 0, -daysAgo).Format("2006-01-02")
		count := 0
		for _, c := range clicks {
			if c.Timestamp.UTC().Format("2006-01-02") == day {
				count++
			}
		}
		trend = append(trend, DayClicks{Date: day, Clicks: count})
	}

	report := ElementAnalytics{
		ElementID:        elementID,
		ElementName:      name,
		TotalClicks:      len(clicks),
		UniqueUsers:      uniqueUsers,
		RegionClicks:     region,
		TimeDistribution: hours,
		PerformanceTrend: trend,
	}
	if uniqueUsers > 0 {
		report.ClickThroughRate = float64(len(clicks)) / float64(uniqueUsers) * 100
	}
	return report
}

func uniqueClickUsers(clicks []tracking.Click) int {
	users := make(map[string]struct{})
	for _, c := range clicks {
		if c.UserID != "" {
			users[c.UserID] = struct{}{}
		}
	}
	return len(users)
}
