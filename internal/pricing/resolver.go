package pricing

import (
	"context"
	"fmt"

	"laundry-service/internal/apperr"
	"laundry-service/internal/models"
	"laundry-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemSpec identifies one line item to price. Weight is only consulted for
// weight-priced entries; Quantity defaults to 1 when unset.
type ItemSpec struct {
	ArticleID     uuid.UUID
	ServiceTypeID uuid.UUID
	ServiceID     uuid.UUID
	Quantity      int
	Weight        *decimal.Decimal
	IsPremium     bool
}

// PriceSource supplies price table rows. Implementations must return
// (nil, nil) when no entry exists for the triple.
type PriceSource interface {
	GetPriceEntry(ctx context.Context, articleID, serviceTypeID, serviceID uuid.UUID) (*models.PriceEntry, error)
}

// Resolver resolves a line price from the centralized price table. It is
// read-only against the table.
type Resolver struct {
	source PriceSource
}

// NewResolver creates a new price resolver.
func NewResolver(source PriceSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve computes the price of one line item.
//
// Weight-priced entries (pricing type PER_WEIGHT, or any entry carrying a
// per-kg price) require a positive weight and price as perKg * weight.
// Flat entries price as (premium if requested and set, else base) * quantity.
func (r *Resolver) Resolve(ctx context.Context, spec ItemSpec) (decimal.Decimal, error) {
	entry, err := r.source.GetPriceEntry(ctx, spec.ArticleID, spec.ServiceTypeID, spec.ServiceID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to look up price entry: %w", err)
	}
	if entry == nil || !entry.IsAvailable {
		util.PricingFailuresTotal.WithLabelValues("no_price").Inc()
		return decimal.Zero, apperr.Newf(apperr.KindNoPriceAvailable,
			"no price available for article %s", spec.ArticleID)
	}

	if entry.PricingType == models.PricingTypePerWeight || entry.PricePerKg != nil {
		if entry.PricePerKg == nil {
			util.PricingFailuresTotal.WithLabelValues("no_price").Inc()
			return decimal.Zero, apperr.Newf(apperr.KindNoPriceAvailable,
				"weight-priced entry without per-kg price for article %s", spec.ArticleID)
		}
		if spec.Weight == nil || !spec.Weight.IsPositive() {
			util.PricingFailuresTotal.WithLabelValues("weight_required").Inc()
			return decimal.Zero, apperr.Newf(apperr.KindWeightRequired,
				"weight is required for article %s", spec.ArticleID)
		}
		return entry.PricePerKg.Mul(*spec.Weight), nil
	}

	if entry.BasePrice == nil {
		util.PricingFailuresTotal.WithLabelValues("no_price").Inc()
		return decimal.Zero, apperr.Newf(apperr.KindNoPriceAvailable,
			"price entry has no usable price for article %s", spec.ArticleID)
	}

	unit := *entry.BasePrice
	if spec.IsPremium && entry.PremiumPrice != nil {
		unit = *entry.PremiumPrice
	}

	quantity := spec.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	return unit.Mul(decimal.NewFromInt(int64(quantity))), nil
}
