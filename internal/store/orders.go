package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"laundry-service/internal/apperr"
	"laundry-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrder inserts a new order row.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders
			(id, user_id, address_id, affiliate_code, status, total_amount, notes, is_flash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, order, query,
		order.ID, order.UserID, order.AddressID, order.AffiliateCode,
		order.Status, order.TotalAmount, order.Notes, order.IsFlash)
}

// GetOrderByID retrieves an order by ID. Returns (nil, nil) when absent.
func (s *Store) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListDraftFlashOrders retrieves all flash orders still in DRAFT, newest first.
func (s *Store) ListDraftFlashOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE is_flash = TRUE AND status = $1 ORDER BY created_at DESC",
		models.OrderStatusDraft)
	return orders, err
}

// GetOrdersByClientAndCode retrieves a client's orders stamped with the given
// affiliate code, newest first.
func (s *Store) GetOrdersByClientAndCode(ctx context.Context, clientID uuid.UUID, code string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 AND affiliate_code = $2 ORDER BY created_at DESC",
		clientID, code)
	return orders, err
}

// GetOrderItemsByOrderID retrieves all items for an order.
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1", orderID)
	return items, err
}

// CompleteOrderTx performs the DRAFT -> PENDING transition atomically. The
// status acts as a guard: the conditional UPDATE only matches a DRAFT row, so
// a concurrent second completion finds zero rows and fails with
// INVALID_STATE_TRANSITION. Nothing is persisted when any step fails.
func (s *Store) CompleteOrderTx(
	ctx context.Context,
	orderID, serviceID uuid.UUID,
	items []models.OrderItem,
	total decimal.Decimal,
	collectionDate, deliveryDate *time.Time,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET service_id = $1, total_amount = $2, status = $3,
		    collection_date = $4, delivery_date = $5, updated_at = NOW()
		WHERE id = $6 AND status = $7`,
		serviceID, total, models.OrderStatusPending,
		collectionDate, deliveryDate, orderID, models.OrderStatusDraft)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var status string
		err := tx.GetContext(ctx, &status, "SELECT status FROM orders WHERE id = $1", orderID)
		if err == sql.ErrNoRows {
			return apperr.Newf(apperr.KindNotFound, "order not found: %s", orderID)
		}
		if err != nil {
			return err
		}
		return apperr.Newf(apperr.KindInvalidStateTransition,
			"cannot complete order in status %s, order must be DRAFT", status)
	}

	for i := range items {
		item := &items[i]
		err := tx.GetContext(ctx, &item.ID, `
			INSERT INTO order_items
				(id, order_id, article_id, service_id, service_type_id,
				 quantity, weight, unit_price, is_premium)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			item.ID, orderID, item.ArticleID, item.ServiceID, item.ServiceTypeID,
			item.Quantity, item.Weight, item.UnitPrice, item.IsPremium)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return tx.Commit()
}
