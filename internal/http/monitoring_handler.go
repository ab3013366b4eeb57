package http

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"velura/internal/funnel"
	"velura/internal/health"
	"velura/internal/tracking"
)

const defaultMetricWindow = 5 * time.Minute

// GetHealth reports the overall health snapshot.
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	snapshot := h.health.Take()

	status := http.StatusOK
	if snapshot.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	return c.Status(status).JSON(snapshot)
}

// GetHealthComponents runs the registered component checks and reports
// their individual statuses. A required component being down makes the
// report unhealthy and the endpoint answer 503.
func (h *Handler) GetHealthComponents(c *fiber.Ctx) error {
	report := h.checks.RunChecks(c.Context())

	status := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	return c.Status(status).JSON(report)
}

// GetAlertRules lists the configured alert rules.
func (h *Handler) GetAlertRules(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"rules": h.evaluator.Rules(),
	})
}

// GetAlerts returns recent alerts, newest first.
func (h *Handler) GetAlerts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	return c.JSON(fiber.Map{
		"alerts": h.evaluator.All(limit),
	})
}

// GetActiveAlerts returns unresolved alerts in creation order.
func (h *Handler) GetActiveAlerts(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"alerts": h.evaluator.Active(),
	})
}

// ResolveAlert marks an alert resolved by ID. Resolving an already resolved
// or unknown alert returns 404.
func (h *Handler) ResolveAlert(c *fiber.Ctx) error {
	id := c.Params("id")
	if !h.evaluator.Resolve(id) {
		return handleError(c, fiber.NewError(http.StatusNotFound, errNotFound))
	}
	return c.JSON(fiber.Map{
		"resolved": true,
		"id":       id,
	})
}

// GetMetricNames lists the known metric series.
func (h *Handler) GetMetricNames(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"metrics": h.metrics.Names(),
	})
}

// GetMetric returns the points of one metric series within a window.
func (h *Handler) GetMetric(c *fiber.Ctx) error {
	name := c.Params("name")
	window := defaultMetricWindow
	if ms := c.QueryInt("window_ms", 0); ms > 0 {
		window = time.Duration(ms) * time.Millisecond
	}

	points := h.metrics.Window(name, window)
	latest, ok := h.metrics.Latest(name)

	resp := fiber.Map{
		"name":   name,
		"points": points,
	}
	if ok {
		resp["latest"] = latest
	}
	return c.JSON(resp)
}

// GetFunnel computes the conversion funnel report over a time range. The
// range defaults to the last 24 hours.
func (h *Handler) GetFunnel(c *fiber.Ctx) error {
	end := time.Now()
	start := end.Add(-24 * time.Hour)

	if s := c.Query("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return handleError(c, fiber.NewError(http.StatusBadRequest, "invalid start time"))
		}
		start = t
	}
	if e := c.Query("end"); e != "" {
		t, err := time.Parse(time.RFC3339, e)
		if err != nil {
			return handleError(c, fiber.NewError(http.StatusBadRequest, "invalid end time"))
		}
		end = t
	}

	events := h.events.Events(tracking.Filter{From: start, To: end})
	analysis := funnel.Analyze(events, funnel.Period{Start: start, End: end})
	return c.JSON(analysis)
}

// GetProductConversions returns per-product funnel performance.
func (h *Handler) GetProductConversions(c *fiber.Ctx) error {
	events := h.events.Events(tracking.Filter{})
	return c.JSON(fiber.Map{
		"products": funnel.TopConvertingProducts(events),
	})
}

// GetClickAnalytics returns aggregate click analytics, or per-element
// analytics when element_id is given.
func (h *Handler) GetClickAnalytics(c *fiber.Ctx) error {
	if elementID := c.Query("element_id"); elementID != "" {
		clicks := h.clicks.Clicks(tracking.ClickFilter{ElementID: elementID})
		return c.JSON(funnel.AnalyzeElement(clicks, elementID, time.Now()))
	}
	clicks := h.clicks.Clicks(tracking.ClickFilter{})
	return c.JSON(funnel.AnalyzeClicks(clicks, time.Now()))
}

// GetRecentEvents returns the most recent tracking events, oldest first.
func (h *Handler) GetRecentEvents(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	return c.JSON(fiber.Map{
		"events": h.events.Recent(limit),
	})
}

// GetRecentClicks returns the most recent clicks, oldest first.
func (h *Handler) GetRecentClicks(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	return c.JSON(fiber.Map{
		"clicks": h.clicks.Recent(limit),
	})
}
