package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricingType distinguishes flat base/premium pricing from weight-scaled pricing.
type PricingType string

const (
	PricingTypeFlat      PricingType = "FLAT"
	PricingTypePerWeight PricingType = "PER_WEIGHT"
)

// Order statuses. Statuses past PENDING belong to the fulfillment pipeline and
// are written by other services.
const (
	OrderStatusDraft   = "DRAFT"
	OrderStatusPending = "PENDING"
)

// Article is a catalog item (shirt, duvet, ...).
type Article struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ServiceType groups services (standard, express, ...). RequiresWeight marks
// types priced per kilogram.
type ServiceType struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	RequiresWeight bool      `db:"requires_weight" json:"requires_weight"`
	IsDefault      bool      `db:"is_default" json:"is_default"`
}

// PriceEntry is one row of the centralized price table, unique per
// (article, service type, service). At least one of BasePrice/PricePerKg must
// be set for the entry to be usable.
type PriceEntry struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	ArticleID     uuid.UUID        `db:"article_id" json:"article_id"`
	ServiceTypeID uuid.UUID        `db:"service_type_id" json:"service_type_id"`
	ServiceID     uuid.UUID        `db:"service_id" json:"service_id"`
	BasePrice     *decimal.Decimal `db:"base_price" json:"base_price,omitempty"`
	PremiumPrice  *decimal.Decimal `db:"premium_price" json:"premium_price,omitempty"`
	PricePerKg    *decimal.Decimal `db:"price_per_kg" json:"price_per_kg,omitempty"`
	IsAvailable   bool             `db:"is_available" json:"is_available"`
	PricingType   PricingType      `db:"pricing_type" json:"pricing_type"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// Order is a customer order. TotalAmount is always computed server-side.
// AffiliateCode is stamped at creation time and never re-derived afterwards.
type Order struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	UserID         uuid.UUID       `db:"user_id" json:"user_id"`
	AddressID      uuid.UUID       `db:"address_id" json:"address_id"`
	ServiceID      *uuid.UUID      `db:"service_id" json:"service_id,omitempty"`
	AffiliateCode  *string         `db:"affiliate_code" json:"affiliate_code,omitempty"`
	Status         string          `db:"status" json:"status"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
	Notes          string          `db:"notes" json:"notes,omitempty"`
	IsFlash        bool            `db:"is_flash" json:"is_flash"`
	CollectionDate *time.Time      `db:"collection_date" json:"collection_date,omitempty"`
	DeliveryDate   *time.Time      `db:"delivery_date" json:"delivery_date,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderItem is a priced line item. UnitPrice is the resolved line price with
// quantity or weight already applied by the resolver.
type OrderItem struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	OrderID       uuid.UUID        `db:"order_id" json:"order_id"`
	ArticleID     uuid.UUID        `db:"article_id" json:"article_id"`
	ServiceID     uuid.UUID        `db:"service_id" json:"service_id"`
	ServiceTypeID uuid.UUID        `db:"service_type_id" json:"service_type_id"`
	Quantity      int              `db:"quantity" json:"quantity"`
	Weight        *decimal.Decimal `db:"weight" json:"weight,omitempty"`
	UnitPrice     decimal.Decimal  `db:"unit_price" json:"unit_price"`
	IsPremium     bool             `db:"is_premium" json:"is_premium"`
}

// Address belongs to a user; flash orders reference one at creation.
type Address struct {
	ID     uuid.UUID `db:"id" json:"id"`
	UserID uuid.UUID `db:"user_id" json:"user_id"`
	Label  string    `db:"label" json:"label"`
	Street string    `db:"street" json:"street"`
	City   string    `db:"city" json:"city"`
}

// User roles understood by the auth middleware.
const (
	RoleClient    = "CLIENT"
	RoleAdmin     = "ADMIN"
	RoleAffiliate = "AFFILIATE"
)

// User is the minimal identity the core needs.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email"`
	Role      string    `db:"role" json:"role"`
}

// AffiliateProfile carries the denormalized affiliate code orders are stamped
// with.
type AffiliateProfile struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	UserID         uuid.UUID       `db:"user_id" json:"user_id"`
	AffiliateCode  string          `db:"affiliate_code" json:"affiliate_code"`
	CommissionRate decimal.Decimal `db:"commission_rate" json:"commission_rate"`
	IsActive       bool            `db:"is_active" json:"is_active"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// AffiliateLink is a time-bounded affiliate/client relationship. A nil EndDate
// means the link is open-ended.
type AffiliateLink struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	AffiliateID uuid.UUID  `db:"affiliate_id" json:"affiliate_id"`
	ClientID    uuid.UUID  `db:"client_id" json:"client_id"`
	StartDate   time.Time  `db:"start_date" json:"start_date"`
	EndDate     *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// IsCurrentAt reports whether the link window contains the given instant.
func (l AffiliateLink) IsCurrentAt(t time.Time) bool {
	if l.StartDate.After(t) {
		return false
	}
	return l.EndDate == nil || !l.EndDate.Before(t)
}

// CommissionTransaction records the commission earned by an affiliate on a
// completed order.
type CommissionTransaction struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	AffiliateID uuid.UUID       `db:"affiliate_id" json:"affiliate_id"`
	OrderID     uuid.UUID       `db:"order_id" json:"order_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// ProcessedEvent for consumer-side idempotency.
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
