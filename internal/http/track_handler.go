package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"velura/internal/tracking"
)

const msgEventAdded = "Event recorded successfully"

type CreateEventParams struct {
	SessionID string            `json:"sessionId"`
	UserID    string            `json:"userId"`
	EventType string            `json:"eventType"`
	ProductID string            `json:"productId"`
	Category  string            `json:"category"`
	URL       string            `json:"url"`
	Referrer  string            `json:"referrer"`
	Metadata  map[string]string `json:"metadata"`
	Timestamp time.Time         `json:"timestamp"`
}

type CreateClickParams struct {
	SessionID      string            `json:"sessionId"`
	UserID         string            `json:"userId"`
	ElementID      string            `json:"elementId"`
	ElementName    string            `json:"elementName"`
	ElementType    string            `json:"elementType"`
	URL            string            `json:"url"`
	Referrer       string            `json:"referrer"`
	Metadata       map[string]string `json:"metadata"`
	X              *int              `json:"x"`
	Y              *int              `json:"y"`
	ViewportWidth  int               `json:"viewportWidth"`
	ViewportHeight int               `json:"viewportHeight"`
	Timestamp      time.Time         `json:"timestamp"`
}

// CreateEvent records a funnel event.
func (h *Handler) CreateEvent(c *fiber.Ctx) error {
	var params CreateEventParams
	if err := c.BodyParser(&params); err != nil {
		h.logger.Debug("Failed to parse event request", slog.Any("error", err))
		return handleError(c, fiber.NewError(http.StatusBadRequest, errInvalidRequest))
	}

	if params.SessionID == "" || params.EventType == "" {
		return handleError(c, fiber.NewError(http.StatusBadRequest, "sessionId and eventType are required"))
	}

	id := h.events.Add(tracking.Event{
		SessionID: params.SessionID,
		UserID:    params.UserID,
		EventType: params.EventType,
		ProductID: params.ProductID,
		Category:  params.Category,
		URL:       params.URL,
		Referrer:  params.Referrer,
		Metadata:  params.Metadata,
		Timestamp: params.Timestamp,
	})

	h.metrics.Increment("funnel_events_total", 1, map[string]string{"eventType": params.EventType})

	h.logger.Debug("Recorded funnel event",
		slog.String("eventType", params.EventType),
		slog.String("sessionId", params.SessionID))

	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"message": msgEventAdded,
		"id":      id,
	})
}

// CreateClick records a click.
func (h *Handler) CreateClick(c *fiber.Ctx) error {
	var params CreateClickParams
	if err := c.BodyParser(&params); err != nil {
		h.logger.Debug("Failed to parse click request", slog.Any("error", err))
		return handleError(c, fiber.NewError(http.StatusBadRequest, errInvalidRequest))
	}

	if params.SessionID == "" {
		return handleError(c, fiber.NewError(http.StatusBadRequest, "sessionId is required"))
	}

	id := h.clicks.Add(tracking.Click{
		SessionID:      params.SessionID,
		UserID:         params.UserID,
		ElementID:      params.ElementID,
		ElementName:    params.ElementName,
		ElementType:    params.ElementType,
		URL:            params.URL,
		Referrer:       params.Referrer,
		Metadata:       params.Metadata,
		X:              params.X,
		Y:              params.Y,
		ViewportWidth:  params.ViewportWidth,
		ViewportHeight: params.ViewportHeight,
		Timestamp:      params.Timestamp,
	})

	h.metrics.Increment("clicks_total", 1, nil)

	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"message": msgEventAdded,
		"id":      id,
	})
}
