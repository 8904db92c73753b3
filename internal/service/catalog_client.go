package service

import (
	"context"
	"time"

	"laundry-service/internal/models"
	"laundry-service/internal/pricing"
	"laundry-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogStore is the persistence surface the catalog client needs.
type CatalogStore interface {
	GetPriceEntry(ctx context.Context, articleID, serviceTypeID, serviceID uuid.UUID) (*models.PriceEntry, error)
	UpsertPriceEntry(ctx context.Context, entry *models.PriceEntry) error
	GetDefaultServiceType(ctx context.Context) (*models.ServiceType, error)
}

// PriceCache caches price table rows. Absence of a row may be cached too.
type PriceCache interface {
	GetPriceEntry(ctx context.Context, articleID, serviceTypeID, serviceID uuid.UUID) (*models.PriceEntry, bool, error)
	SetPriceEntry(ctx context.Context, articleID, serviceTypeID, serviceID uuid.UUID, entry *models.PriceEntry, ttl time.Duration) error
	InvalidatePriceEntry(ctx context.Context, articleID, serviceTypeID, serviceID uuid.UUID) error
}

// CatalogClient serves the read-shared price table with a Redis read-through
// cache in front of Postgres, and handles the admin write path. It implements
// pricing.PriceSource.
type CatalogClient struct {
	store         CatalogStore
	cache         PriceCache
	cacheTTL      time.Duration
	maxMultiplier decimal.Decimal
	logger        *zap.Logger
}

// NewCatalogClient creates a new catalog client. cache may be nil, in which
// case every lookup goes to the store.
func NewCatalogClient(store CatalogStore, cache PriceCache, cacheTTL time.Duration, maxMultiplier decimal.Decimal) *CatalogClient {
	return &CatalogClient{
		store:         store,
		cache:         cache,
		cacheTTL:      cacheTTL,
		maxMultiplier: maxMultiplier,
		logger:        util.GetLogger(),
	}
}

// GetPriceEntry looks up a price entry, cache first.
func (cc *CatalogClient) GetPriceEntry(ctx context.Context, articleID, serviceTypeID, serviceID uuid.UUID) (*models.PriceEntry, error) {
	if cc.cache != nil {
		entry, hit, err := cc.cache.GetPriceEntry(ctx, articleID, serviceTypeID, serviceID)
		if err != nil {
			cc.logger.Warn("Price cache read failed, falling back to store",
				zap.String("article_id", articleID.String()),
				zap.Error(err))
		} else if hit {
			util.PriceCacheHitsTotal.Inc()
			return entry, nil
		} else {
			util.PriceCacheMissesTotal.Inc()
		}
	}

	entry, err := cc.store.GetPriceEntry(ctx, articleID, serviceTypeID, serviceID)
	if err != nil {
		return nil, err
	}

	if cc.cache != nil {
		if err := cc.cache.SetPriceEntry(ctx, articleID, serviceTypeID, serviceID, entry, cc.cacheTTL); err != nil {
			cc.logger.Warn("Failed to cache price entry",
				zap.String("article_id", articleID.String()),
				zap.Error(err))
		}
	}

	return entry, nil
}

// UpsertPriceEntry validates the entry invariants, writes the row and drops
// the cached copy.
func (cc *CatalogClient) UpsertPriceEntry(ctx context.Context, entry *models.PriceEntry) error {
	if err := pricing.ValidateEntry(entry, cc.maxMultiplier); err != nil {
		return err
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	if err := cc.store.UpsertPriceEntry(ctx, entry); err != nil {
		return err
	}

	if cc.cache != nil {
		if err := cc.cache.InvalidatePriceEntry(ctx, entry.ArticleID, entry.ServiceTypeID, entry.ServiceID); err != nil {
			cc.logger.Warn("Failed to invalidate cached price entry",
				zap.String("article_id", entry.ArticleID.String()),
				zap.Error(err))
		}
	}

	return nil
}

// DefaultServiceType returns the service type used when a completion request
// does not name one.
func (cc *CatalogClient) DefaultServiceType(ctx context.Context) (*models.ServiceType, error) {
	return cc.store.GetDefaultServiceType(ctx)
}

var _ pricing.PriceSource = (*CatalogClient)(nil)
