package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderDrafted   = "ORDER_DRAFTED"
	EventTypeOrderCompleted = "ORDER_COMPLETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderDraftedEvent is published when a flash order is created in DRAFT.
type OrderDraftedEvent struct {
	BaseEvent
	OrderID       uuid.UUID `json:"order_id"`
	UserID        uuid.UUID `json:"user_id"`
	AddressID     uuid.UUID `json:"address_id"`
	AffiliateCode *string   `json:"affiliate_code,omitempty"`
}

// OrderCompletedEvent is published when a flash order transitions to PENDING.
// Billing, loyalty and affiliate commission processing consume it downstream.
type OrderCompletedEvent struct {
	BaseEvent
	OrderID       uuid.UUID       `json:"order_id"`
	UserID        uuid.UUID       `json:"user_id"`
	ServiceID     uuid.UUID       `json:"service_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	AffiliateCode *string         `json:"affiliate_code,omitempty"`
	Items         []OrderItemData `json:"items"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ArticleID uuid.UUID       `json:"article_id"`
	Quantity  int             `json:"quantity"`
	LinePrice decimal.Decimal `json:"line_price"`
	IsPremium bool            `json:"is_premium"`
}
