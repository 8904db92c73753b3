package pricing

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Calculator aggregates resolved line prices into an order total.
type Calculator struct {
	resolver *Resolver
}

// NewCalculator creates a new total calculator over the given resolver.
func NewCalculator(resolver *Resolver) *Calculator {
	return &Calculator{resolver: resolver}
}

// CalculateTotal resolves every item concurrently and sums the results. A
// single failing item aborts the whole calculation and surfaces that item's
// error; no partial total is returned. An empty list yields a zero total.
func (c *Calculator) CalculateTotal(ctx context.Context, specs []ItemSpec) (decimal.Decimal, []decimal.Decimal, error) {
	if len(specs) == 0 {
		return decimal.Zero, nil, nil
	}

	linePrices := make([]decimal.Decimal, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	for i := range specs {
		i := i
		g.Go(func() error {
			price, err := c.resolver.Resolve(gctx, specs[i])
			if err != nil {
				return err
			}
			linePrices[i] = price
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return decimal.Zero, nil, err
	}

	total := decimal.Zero
	for _, price := range linePrices {
		total = total.Add(price)
	}

	return total, linePrices, nil
}
