package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"laundry-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetArticleByID retrieves an article by ID. Returns (nil, nil) when absent.
func (s *Store) GetArticleByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	var article models.Article
	err := s.db.GetContext(ctx, &article, "SELECT * FROM articles WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// GetDefaultServiceType retrieves the service type flash orders are drafted with.
func (s *Store) GetDefaultServiceType(ctx context.Context) (*models.ServiceType, error) {
	var st models.ServiceType
	err := s.db.GetContext(ctx, &st,
		"SELECT * FROM service_types WHERE is_default = TRUE LIMIT 1")
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no default service type configured")
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// GetPriceEntry retrieves the unique price entry for an
// (article, service type, service) triple. Returns (nil, nil) when absent.
func (s *Store) GetPriceEntry(ctx context.Context, articleID, serviceTypeID, serviceID uuid.UUID) (*models.PriceEntry, error) {
	var entry models.PriceEntry
	err := s.db.GetContext(ctx, &entry, `
		SELECT * FROM article_service_prices
		WHERE article_id = $1 AND service_type_id = $2 AND service_id = $3`,
		articleID, serviceTypeID, serviceID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpsertPriceEntry creates or replaces a price table row for the triple.
func (s *Store) UpsertPriceEntry(ctx context.Context, entry *models.PriceEntry) error {
	query := `
		INSERT INTO article_service_prices
			(id, article_id, service_type_id, service_id,
			 base_price, premium_price, price_per_kg, is_available, pricing_type, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (article_id, service_type_id, service_id) DO UPDATE SET
			base_price = EXCLUDED.base_price,
			premium_price = EXCLUDED.premium_price,
			price_per_kg = EXCLUDED.price_per_kg,
			is_available = EXCLUDED.is_available,
			pricing_type = EXCLUDED.pricing_type,
			updated_at = NOW()
		RETURNING id, updated_at`

	return s.db.GetContext(ctx, entry, query,
		entry.ID, entry.ArticleID, entry.ServiceTypeID, entry.ServiceID,
		entry.BasePrice, entry.PremiumPrice, entry.PricePerKg,
		entry.IsAvailable, entry.PricingType)
}

// GetAddressByID retrieves an address by ID. Returns (nil, nil) when absent.
func (s *Store) GetAddressByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var addr models.Address
	err := s.db.GetContext(ctx, &addr, "SELECT * FROM addresses WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// GetUserByID retrieves a user by ID. Returns (nil, nil) when absent.
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user,
		"SELECT id, first_name, last_name, email, role FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsersByIDs retrieves multiple users by IDs.
func (s *Store) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	query, args, err := sqlx.In(
		"SELECT id, first_name, last_name, email, role FROM users WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var users []models.User
	err = s.db.SelectContext(ctx, &users, query, args...)
	return users, err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
