package tracking

import "time"

// Well-known funnel event types. EventType is an open set; callers may track
// arbitrary custom types alongside these.
const (
	EventPageView          = "page_view"
	EventProductView       = "product_view"
	EventAddToCart         = "add_to_cart"
	EventCheckoutStart     = "checkout_start"
	EventPaymentInitiated  = "payment_initiated"
	EventPurchaseCompleted = "purchase_completed"
	EventProductSearch     = "product_search"
	EventCategoryView      = "category_view"
	EventWishlistAdd       = "wishlist_add"
	EventShareAction       = "share_action"
)

// Event is a single tracked user interaction in the conversion funnel.
// Events are immutable once recorded.
type Event struct {
	ID        string            `json:"id"`
	SessionID string            `json:"sessionId"`
	UserID    string            `json:"userId,omitempty"`
	EventType string            `json:"eventType"`
	ProductID string            `json:"productId,omitempty"`
	Category  string            `json:"category,omitempty"`
	URL       string            `json:"url,omitempty"`
	Referrer  string            `json:"referrer,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Click is a single tracked click for real-time click analytics.
type Click struct {
	ID             string            `json:"id"`
	SessionID      string            `json:"sessionId"`
	UserID         string            `json:"userId,omitempty"`
	ElementID      string            `json:"elementId,omitempty"`
	ElementName    string            `json:"elementName,omitempty"`
	ElementType    string            `json:"elementType"`
	URL            string            `json:"url"`
	Referrer       string            `json:"referrer,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	// X and Y are nil when the client sent no coordinates; (0,0) is a
	// real position.
	X              *int              `json:"x,omitempty"`
	Y              *int              `json:"y,omitempty"`
	ViewportWidth  int               `json:"viewportWidth,omitempty"`
	ViewportHeight int               `json:"viewportHeight,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
}

// Filter selects tracking events by exact field match and inclusive time
// range. Zero-valued fields match everything.
type Filter struct {
	SessionID string
	UserID    string
	EventType string
	ProductID string
	From      time.Time
	To        time.Time
}

// ClickFilter selects clicks by exact field match and inclusive time range.
type ClickFilter struct {
	SessionID   string
	UserID      string
	ElementID   string
	ElementType string
	URL         string
	From        time.Time
	To          time.Time
}
