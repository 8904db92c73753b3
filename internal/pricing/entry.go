package pricing

import (
	"fmt"

	"laundry-service/internal/apperr"
	"laundry-service/internal/models"

	"github.com/shopspring/decimal"
)

// ValidateEntry checks the price-entry invariants before an admin write:
// at least one of base price / per-kg price must be set, and a premium price
// must exceed the base price without exceeding base * maxMultiplier. All
// violations are reported, not just the first.
func ValidateEntry(entry *models.PriceEntry, maxMultiplier decimal.Decimal) error {
	var violations []string

	if entry.BasePrice == nil && entry.PricePerKg == nil {
		violations = append(violations, "at least one of base_price or price_per_kg must be set")
	}
	if entry.BasePrice != nil && entry.BasePrice.IsNegative() {
		violations = append(violations, "base_price must not be negative")
	}
	if entry.PricePerKg != nil && !entry.PricePerKg.IsPositive() {
		violations = append(violations, "price_per_kg must be positive")
	}

	if entry.PremiumPrice != nil {
		if entry.BasePrice == nil {
			violations = append(violations, "premium_price requires a base_price")
		} else {
			if !entry.PremiumPrice.GreaterThan(*entry.BasePrice) {
				violations = append(violations, "premium_price must exceed base_price")
			}
			ceiling := entry.BasePrice.Mul(maxMultiplier)
			if entry.PremiumPrice.GreaterThan(ceiling) {
				violations = append(violations,
					fmt.Sprintf("premium_price must not exceed base_price * %s", maxMultiplier))
			}
		}
	}

	switch entry.PricingType {
	case models.PricingTypeFlat, models.PricingTypePerWeight:
	default:
		violations = append(violations, "pricing_type must be FLAT or PER_WEIGHT")
	}
	if entry.PricingType == models.PricingTypePerWeight && entry.PricePerKg == nil {
		violations = append(violations, "PER_WEIGHT entries require price_per_kg")
	}

	if len(violations) > 0 {
		return apperr.Validation(violations)
	}
	return nil
}
