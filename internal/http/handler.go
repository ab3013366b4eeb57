// Package http holds the fiber handlers for the ingestion and monitoring
// endpoints.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"velura/internal/alerting"
	"velura/internal/config"
	"velura/internal/health"
	"velura/internal/metrics"
	"velura/internal/tracking"
)

const (
	errInvalidRequest = "Invalid request"
	errNotFound       = "Not found"
)

// Handler bundles the stores and services the endpoints read from and
// write to.
type Handler struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *metrics.Store
	events    *tracking.EventStore
	clicks    *tracking.ClickStore
	evaluator *alerting.Evaluator
	health    *health.Aggregator
	checks    *health.CheckService
}

func NewHandler(
	cfg *config.Config,
	logger *slog.Logger,
	metricStore *metrics.Store,
	eventStore *tracking.EventStore,
	clickStore *tracking.ClickStore,
	evaluator *alerting.Evaluator,
	aggregator *health.Aggregator,
	checks *health.CheckService,
) *Handler {
	return &Handler{
		cfg:       cfg,
		logger:    logger,
		metrics:   metricStore,
		events:    eventStore,
		clicks:    clickStore,
		evaluator: evaluator,
		health:    aggregator,
		checks:    checks,
	}
}

func handleError(c *fiber.Ctx, err error) error {
	if fiberErr, ok := err.(*fiber.Error); ok {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"error": fiberErr.Message,
		})
	}

	return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
		"error": errInvalidRequest,
	})
}
