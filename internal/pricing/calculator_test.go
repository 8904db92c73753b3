package pricing

import (
	"context"
	"testing"

	"laundry-service/internal/apperr"
	"laundry-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateTotal(t *testing.T) {
	shirtID := uuid.New()
	duvetID := uuid.New()
	source := &fakePriceSource{entries: map[uuid.UUID]*models.PriceEntry{
		shirtID: flatEntry(shirtID, "10.99", "15.50"),
		duvetID: weightEntry(duvetID, "4.00"),
	}}
	calculator := NewCalculator(NewResolver(source))

	total, linePrices, err := calculator.CalculateTotal(context.Background(), []ItemSpec{
		{ArticleID: shirtID, Quantity: 2},
		{ArticleID: shirtID, Quantity: 1, IsPremium: true},
		{ArticleID: duvetID, Weight: dec("1.5")},
	})
	require.NoError(t, err)
	require.Len(t, linePrices, 3)
	assert.True(t, decimal.RequireFromString("21.98").Equal(linePrices[0]))
	assert.True(t, decimal.RequireFromString("15.50").Equal(linePrices[1]))
	assert.True(t, decimal.RequireFromString("6.00").Equal(linePrices[2]))
	assert.True(t, decimal.RequireFromString("43.48").Equal(total),
		"want 43.48, got %s", total)
}

func TestCalculateTotalEmpty(t *testing.T) {
	calculator := NewCalculator(NewResolver(&fakePriceSource{}))

	total, linePrices, err := calculator.CalculateTotal(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, linePrices)
	assert.True(t, total.IsZero())
}

func TestCalculateTotalOneFailureAbortsAll(t *testing.T) {
	shirtID := uuid.New()
	source := &fakePriceSource{entries: map[uuid.UUID]*models.PriceEntry{
		shirtID: flatEntry(shirtID, "10.99", ""),
	}}
	calculator := NewCalculator(NewResolver(source))

	total, linePrices, err := calculator.CalculateTotal(context.Background(), []ItemSpec{
		{ArticleID: shirtID, Quantity: 2},
		{ArticleID: uuid.New(), Quantity: 1},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNoPriceAvailable, apperr.KindOf(err))
	assert.Nil(t, linePrices)
	assert.True(t, total.IsZero())
}

func TestValidateEntry(t *testing.T) {
	maxMultiplier := decimal.NewFromInt(3)

	valid := flatEntry(uuid.New(), "10.00", "15.00")
	require.NoError(t, ValidateEntry(valid, maxMultiplier))

	t.Run("premium at most base times multiplier", func(t *testing.T) {
		entry := flatEntry(uuid.New(), "10.00", "30.00")
		require.NoError(t, ValidateEntry(entry, maxMultiplier))

		entry.PremiumPrice = dec("30.01")
		err := ValidateEntry(entry, maxMultiplier)
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidationFailed, apperr.KindOf(err))
	})

	t.Run("all violations reported", func(t *testing.T) {
		entry := &models.PriceEntry{
			ArticleID:    uuid.New(),
			PricingType:  "DYNAMIC",
			PremiumPrice: dec("5.00"),
		}
		err := ValidateEntry(entry, maxMultiplier)
		require.Error(t, err)

		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperr.KindValidationFailed, appErr.Kind)
		// No price at all, premium without base, and an unknown pricing type.
		assert.Len(t, appErr.Violations, 3)
	})

	t.Run("premium must exceed base", func(t *testing.T) {
		entry := flatEntry(uuid.New(), "10.00", "10.00")
		err := ValidateEntry(entry, maxMultiplier)
		require.Error(t, err)
	})

	t.Run("per weight requires per-kg price", func(t *testing.T) {
		entry := &models.PriceEntry{
			ArticleID:   uuid.New(),
			PricingType: models.PricingTypePerWeight,
			BasePrice:   dec("10.00"),
		}
		err := ValidateEntry(entry, maxMultiplier)
		require.Error(t, err)
	})
}
