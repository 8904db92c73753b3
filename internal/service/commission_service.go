package service

import (
	"context"
	"fmt"

	"laundry-service/internal/models"
	"laundry-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommissionStore is the persistence surface of commission processing.
type CommissionStore interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
	GetAffiliateProfileByCode(ctx context.Context, code string) (*models.AffiliateProfile, error)
	CreateCommissionTransaction(ctx context.Context, txn *models.CommissionTransaction) error
}

// CommissionService records affiliate commissions from completed orders. It
// consumes OrderCompleted events and is idempotent per event.
type CommissionService struct {
	store  CommissionStore
	logger *zap.Logger
}

// NewCommissionService creates a new commission service
func NewCommissionService(store CommissionStore) *CommissionService {
	return &CommissionService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// HandleOrderCompleted records the commission for one completed order. Orders
// without an affiliate code are acknowledged without a transaction.
func (cs *CommissionService) HandleOrderCompleted(ctx context.Context, event *models.OrderCompletedEvent) error {
	ctx, span := util.StartSpan(ctx, "CommissionService.HandleOrderCompleted")
	defer span.End()

	processed, err := cs.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		cs.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if event.AffiliateCode == nil {
		return cs.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
	}

	profile, err := cs.store.GetAffiliateProfileByCode(ctx, *event.AffiliateCode)
	if err != nil {
		return fmt.Errorf("failed to look up affiliate by code: %w", err)
	}
	if profile == nil {
		cs.logger.Warn("Order stamped with unknown affiliate code",
			zap.String("order_id", event.OrderID.String()),
			zap.String("affiliate_code", *event.AffiliateCode))
		return cs.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
	}

	amount := event.TotalAmount.Mul(profile.CommissionRate).Round(2)
	txn := &models.CommissionTransaction{
		ID:          uuid.New(),
		AffiliateID: profile.ID,
		OrderID:     event.OrderID,
		Amount:      amount,
	}

	if err := cs.store.CreateCommissionTransaction(ctx, txn); err != nil {
		return fmt.Errorf("failed to record commission: %w", err)
	}

	util.CommissionsRecordedTotal.Inc()
	cs.logger.Info("Commission recorded",
		zap.String("order_id", event.OrderID.String()),
		zap.String("affiliate_id", profile.ID.String()),
		zap.String("amount", amount.String()))

	return cs.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}
