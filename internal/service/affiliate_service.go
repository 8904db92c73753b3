package service

import (
	"context"
	"fmt"
	"time"

	"laundry-service/internal/apperr"
	"laundry-service/internal/models"
	"laundry-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AffiliateStore is the persistence surface of the affiliate linkage resolver.
type AffiliateStore interface {
	GetCurrentAffiliateForClient(ctx context.Context, clientID uuid.UUID, now time.Time) (*models.AffiliateProfile, error)
	GetAffiliateProfileByUserID(ctx context.Context, userID uuid.UUID) (*models.AffiliateProfile, error)
	GetLinksByAffiliateID(ctx context.Context, affiliateID uuid.UUID) ([]models.AffiliateLink, error)
	GetOrdersByClientAndCode(ctx context.Context, clientID uuid.UUID, code string) ([]models.Order, error)
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}

// AffiliateService answers the two linkage questions: which affiliate is
// current for a client, and which clients (and their orders) belong to an
// affiliate. Both are pure reads.
type AffiliateService struct {
	store  AffiliateStore
	logger *zap.Logger
}

// NewAffiliateService creates a new affiliate service
func NewAffiliateService(store AffiliateStore) *AffiliateService {
	return &AffiliateService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// CurrentAffiliateFor returns the affiliate currently linked to the client,
// or nil when no active link covers the present instant.
func (s *AffiliateService) CurrentAffiliateFor(ctx context.Context, clientID uuid.UUID) (*models.AffiliateProfile, error) {
	ctx, span := util.StartSpan(ctx, "AffiliateService.CurrentAffiliateFor")
	defer span.End()

	profile, err := s.store.GetCurrentAffiliateForClient(ctx, clientID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current affiliate: %w", err)
	}
	return profile, nil
}

// LinkedClient is one row of the linked-clients report.
type LinkedClient struct {
	Client models.User          `json:"client"`
	Link   models.AffiliateLink `json:"link"`
	Orders []models.Order       `json:"orders"`
}

// LinkedClientsAndOrders enumerates every client ever linked to the affiliate
// owned by userID, historical links included. Orders are matched by the
// affiliate code stamped on them at creation time, so an order keeps its
// attribution even after the link has lapsed.
func (s *AffiliateService) LinkedClientsAndOrders(ctx context.Context, userID uuid.UUID) ([]LinkedClient, error) {
	ctx, span := util.StartSpan(ctx, "AffiliateService.LinkedClientsAndOrders")
	defer span.End()

	profile, err := s.store.GetAffiliateProfileByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up affiliate profile: %w", err)
	}
	if profile == nil {
		return nil, apperr.New(apperr.KindNotFound, "affiliate profile not found")
	}

	links, err := s.store.GetLinksByAffiliateID(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list affiliate links: %w", err)
	}

	clientIDs := make([]uuid.UUID, len(links))
	for i, link := range links {
		clientIDs[i] = link.ClientID
	}

	users, err := s.store.GetUsersByIDs(ctx, clientIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load linked clients: %w", err)
	}
	usersByID := make(map[uuid.UUID]models.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}

	result := make([]LinkedClient, 0, len(links))
	for _, link := range links {
		client, ok := usersByID[link.ClientID]
		if !ok {
			s.logger.Warn("Linked client not found",
				zap.String("client_id", link.ClientID.String()),
				zap.String("link_id", link.ID.String()))
			continue
		}

		orders, err := s.store.GetOrdersByClientAndCode(ctx, link.ClientID, profile.AffiliateCode)
		if err != nil {
			return nil, fmt.Errorf("failed to load orders for client %s: %w", link.ClientID, err)
		}

		result = append(result, LinkedClient{
			Client: client,
			Link:   link,
			Orders: orders,
		})
	}

	return result, nil
}
