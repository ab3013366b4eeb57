package internal

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	vhttp "velura/internal/http"
)

// publicCORSConfig is the CORS configuration shared by all public endpoints.
// Ingestion is called cross-origin from the storefront, the read surface is
// polled by the dashboard.
var publicCORSConfig = cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization, Referrer, User-Agent",
}

// MountAppRoutes mounts all application routes
func MountAppRoutes(app *fiber.App, h *vhttp.Handler) {
	app.Use(recover.New())
	app.Use(cors.New(publicCORSConfig))

	// Health check endpoint
	app.Get("/_health", h.GetHealth)
	app.Head("/_health", h.GetHealth)

	api := app.Group("/api/v1")

	// === INGESTION ROUTES ===
	api.Post("/events", h.CreateEvent)
	api.Post("/clicks", h.CreateClick)

	// === MONITORING ROUTES ===
	api.Get("/health", h.GetHealth)
	api.Get("/health/components", h.GetHealthComponents)
	api.Get("/alerts", h.GetAlerts)
	api.Get("/alerts/active", h.GetActiveAlerts)
	api.Get("/alerts/rules", h.GetAlertRules)
	api.Post("/alerts/:id/resolve", h.ResolveAlert)
	api.Get("/metrics", h.GetMetricNames)
	api.Get("/metrics/:name", h.GetMetric)

	// === ANALYTICS ROUTES ===
	api.Get("/events/recent", h.GetRecentEvents)
	api.Get("/funnel", h.GetFunnel)
	api.Get("/funnel/products", h.GetProductConversions)
	api.Get("/clicks/analytics", h.GetClickAnalytics)
	api.Get("/clicks/recent", h.GetRecentClicks)
}
