package store

import (
	"context"
	"database/sql"
	"time"

	"laundry-service/internal/models"

	"github.com/google/uuid"
)

// GetCurrentAffiliateForClient resolves the affiliate currently linked to a
// client: link window contains now, affiliate is active, ties broken by most
// recent start date. Returns (nil, nil) when no current link exists.
func (s *Store) GetCurrentAffiliateForClient(ctx context.Context, clientID uuid.UUID, now time.Time) (*models.AffiliateProfile, error) {
	var profile models.AffiliateProfile
	err := s.db.GetContext(ctx, &profile, `
		SELECT p.* FROM affiliate_profiles p
		JOIN affiliate_client_links l ON l.affiliate_id = p.id
		WHERE l.client_id = $1
		  AND p.is_active = TRUE
		  AND l.start_date <= $2
		  AND (l.end_date IS NULL OR l.end_date >= $2)
		ORDER BY l.start_date DESC
		LIMIT 1`,
		clientID, now)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetAffiliateProfileByUserID retrieves the affiliate profile owned by a user.
// Returns (nil, nil) when the user is not an affiliate.
func (s *Store) GetAffiliateProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.AffiliateProfile, error) {
	var profile models.AffiliateProfile
	err := s.db.GetContext(ctx, &profile,
		"SELECT * FROM affiliate_profiles WHERE user_id = $1", userID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetAffiliateProfileByCode retrieves an affiliate profile by its code.
// Returns (nil, nil) when absent.
func (s *Store) GetAffiliateProfileByCode(ctx context.Context, code string) (*models.AffiliateProfile, error) {
	var profile models.AffiliateProfile
	err := s.db.GetContext(ctx, &profile,
		"SELECT * FROM affiliate_profiles WHERE affiliate_code = $1", code)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetLinksByAffiliateID retrieves every link for an affiliate, historical
// links included, newest first.
func (s *Store) GetLinksByAffiliateID(ctx context.Context, affiliateID uuid.UUID) ([]models.AffiliateLink, error) {
	var links []models.AffiliateLink
	err := s.db.SelectContext(ctx, &links,
		"SELECT * FROM affiliate_client_links WHERE affiliate_id = $1 ORDER BY start_date DESC",
		affiliateID)
	return links, err
}

// CreateCommissionTransaction records a commission earned on a completed order.
func (s *Store) CreateCommissionTransaction(ctx context.Context, txn *models.CommissionTransaction) error {
	return s.db.GetContext(ctx, txn, `
		INSERT INTO commission_transactions (id, affiliate_id, order_id, amount)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		txn.ID, txn.AffiliateID, txn.OrderID, txn.Amount)
}
