package service

import (
	"context"
	"fmt"
	"time"

	"laundry-service/internal/apperr"
	"laundry-service/internal/models"
	"laundry-service/internal/pricing"
	"laundry-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderStore is the persistence surface the flash order lifecycle needs.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListDraftFlashOrders(ctx context.Context) ([]models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	CompleteOrderTx(ctx context.Context, orderID, serviceID uuid.UUID, items []models.OrderItem, total decimal.Decimal, collectionDate, deliveryDate *time.Time) error
	GetAddressByID(ctx context.Context, id uuid.UUID) (*models.Address, error)
	GetCurrentAffiliateForClient(ctx context.Context, clientID uuid.UUID, now time.Time) (*models.AffiliateProfile, error)
}

// OrderEvents publishes order lifecycle events for downstream consumers.
type OrderEvents interface {
	PublishOrderDrafted(ctx context.Context, event *models.OrderDraftedEvent) error
	PublishOrderCompleted(ctx context.Context, event *models.OrderCompletedEvent) error
}

// OrderService drives the flash order lifecycle: DRAFT on creation, PENDING
// once an admin completes the order with items and a computed total.
type OrderService struct {
	store      OrderStore
	catalog    *CatalogClient
	calculator *pricing.Calculator
	events     OrderEvents
	logger     *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	store OrderStore,
	catalog *CatalogClient,
	calculator *pricing.Calculator,
	events OrderEvents,
) *OrderService {
	return &OrderService{
		store:      store,
		catalog:    catalog,
		calculator: calculator,
		events:     events,
		logger:     util.GetLogger(),
	}
}

// CreateFlashOrderRequest is the minimal payload of the flash-order fast path.
type CreateFlashOrderRequest struct {
	AddressID string `json:"addressId" binding:"required"`
	Notes     string `json:"notes"`
}

// CompleteItemRequest is one line item of a completion request. UnitPrice is
// advisory only; the authoritative price always comes from the resolver.
type CompleteItemRequest struct {
	ArticleID string           `json:"articleId"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
	Weight    *decimal.Decimal `json:"weight,omitempty"`
	IsPremium bool             `json:"isPremium"`
}

// CompleteFlashOrderRequest is the admin payload completing a DRAFT order.
type CompleteFlashOrderRequest struct {
	ServiceID      string                `json:"serviceId" binding:"required"`
	ServiceTypeID  string                `json:"serviceTypeId"`
	Items          []CompleteItemRequest `json:"items"`
	CollectionDate string                `json:"collectionDate"`
	DeliveryDate   string                `json:"deliveryDate"`
}

// CreateFlashOrder creates an order in DRAFT holding only an address and
// optional notes. The client's current affiliate code, if any, is stamped on
// the order here and never re-derived later.
func (s *OrderService) CreateFlashOrder(ctx context.Context, userID uuid.UUID, req *CreateFlashOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateFlashOrder")
	defer span.End()

	addressID, err := uuid.Parse(req.AddressID)
	if err != nil {
		util.FlashOrdersRejectedTotal.WithLabelValues("invalid_address").Inc()
		return nil, apperr.Newf(apperr.KindInvalidAddress, "malformed address id: %s", req.AddressID)
	}

	address, err := s.store.GetAddressByID(ctx, addressID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up address: %w", err)
	}
	if address == nil || address.UserID != userID {
		util.FlashOrdersRejectedTotal.WithLabelValues("invalid_address").Inc()
		return nil, apperr.Newf(apperr.KindInvalidAddress,
			"address %s does not exist or is not owned by the requesting user", addressID)
	}

	var affiliateCode *string
	affiliate, err := s.store.GetCurrentAffiliateForClient(ctx, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current affiliate: %w", err)
	}
	if affiliate != nil {
		affiliateCode = &affiliate.AffiliateCode
	}

	order := &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		AddressID:     addressID,
		AffiliateCode: affiliateCode,
		Status:        models.OrderStatusDraft,
		TotalAmount:   decimal.Zero,
		Notes:         req.Notes,
		IsFlash:       true,
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create flash order: %w", err)
	}

	util.FlashOrdersDraftedTotal.Inc()
	s.logger.Info("Flash order drafted",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()))

	event := &models.OrderDraftedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderDrafted,
			Timestamp: time.Now(),
		},
		OrderID:       order.ID,
		UserID:        order.UserID,
		AddressID:     order.AddressID,
		AffiliateCode: order.AffiliateCode,
	}
	if err := s.events.PublishOrderDrafted(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderDrafted event", zap.Error(err))
	}

	return order, nil
}

// completionInput is the validated, parsed form of a completion request.
type completionInput struct {
	serviceID      uuid.UUID
	serviceTypeID  uuid.UUID
	specs          []pricing.ItemSpec
	collectionDate *time.Time
	deliveryDate   *time.Time
}

// validateCompletion checks the structural shape of a completion request and
// reports every violation found, not just the first.
func (s *OrderService) validateCompletion(ctx context.Context, req *CompleteFlashOrderRequest) (*completionInput, error) {
	var violations []string
	in := &completionInput{}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		violations = append(violations, "serviceId must be a valid identifier")
	}
	in.serviceID = serviceID

	if req.ServiceTypeID != "" {
		serviceTypeID, err := uuid.Parse(req.ServiceTypeID)
		if err != nil {
			violations = append(violations, "serviceTypeId must be a valid identifier")
		}
		in.serviceTypeID = serviceTypeID
	}

	if len(req.Items) == 0 {
		violations = append(violations, "items must be a non-empty list")
	}

	for i, item := range req.Items {
		articleID, err := uuid.Parse(item.ArticleID)
		if err != nil {
			violations = append(violations, fmt.Sprintf("items[%d].articleId must be a valid identifier", i))
		}
		if item.Quantity <= 0 {
			violations = append(violations, fmt.Sprintf("items[%d].quantity must be positive", i))
		}
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			violations = append(violations, fmt.Sprintf("items[%d].unitPrice must not be negative", i))
		}
		if item.Weight != nil && !item.Weight.IsPositive() {
			violations = append(violations, fmt.Sprintf("items[%d].weight must be positive", i))
		}

		in.specs = append(in.specs, pricing.ItemSpec{
			ArticleID: articleID,
			ServiceID: in.serviceID,
			Quantity:  item.Quantity,
			Weight:    item.Weight,
			IsPremium: item.IsPremium,
		})
	}

	in.collectionDate = parseDate(req.CollectionDate, "collectionDate", &violations)
	in.deliveryDate = parseDate(req.DeliveryDate, "deliveryDate", &violations)

	if len(violations) > 0 {
		return nil, apperr.Validation(violations)
	}

	if in.serviceTypeID == uuid.Nil {
		st, err := s.catalog.DefaultServiceType(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve default service type: %w", err)
		}
		in.serviceTypeID = st.ID
	}
	for i := range in.specs {
		in.specs[i].ServiceTypeID = in.serviceTypeID
	}

	return in, nil
}

// parseDate parses an ISO-8601 datetime into a canonical UTC instant.
func parseDate(value, field string, violations *[]string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		*violations = append(*violations, fmt.Sprintf("%s must be an ISO-8601 datetime", field))
		return nil
	}
	utc := t.UTC()
	return &utc
}

// CompleteFlashOrder attaches service, items and a freshly computed total to
// a DRAFT order and advances it to PENDING. Client-supplied unit prices are
// ignored; pricing is authoritative from the price table. The transition is
// all-or-nothing: any unpriceable item aborts it with nothing persisted.
func (s *OrderService) CompleteFlashOrder(ctx context.Context, orderID uuid.UUID, req *CompleteFlashOrderRequest) (*models.Order, []models.OrderItem, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CompleteFlashOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.OrderCompletionLatency.Observe(time.Since(start).Seconds())
	}()

	in, err := s.validateCompletion(ctx, req)
	if err != nil {
		util.FlashOrdersRejectedTotal.WithLabelValues("validation_failed").Inc()
		return nil, nil, err
	}

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up order: %w", err)
	}
	if order == nil {
		return nil, nil, apperr.Newf(apperr.KindNotFound, "order not found: %s", orderID)
	}
	if order.Status != models.OrderStatusDraft {
		util.FlashOrdersRejectedTotal.WithLabelValues("invalid_state").Inc()
		return nil, nil, apperr.Newf(apperr.KindInvalidStateTransition,
			"cannot complete order in status %s, order must be DRAFT", order.Status)
	}

	total, linePrices, err := s.calculator.CalculateTotal(ctx, in.specs)
	if err != nil {
		util.FlashOrdersRejectedTotal.WithLabelValues("pricing_failed").Inc()
		return nil, nil, err
	}

	items := make([]models.OrderItem, len(in.specs))
	for i, spec := range in.specs {
		items[i] = models.OrderItem{
			ID:            uuid.New(),
			OrderID:       orderID,
			ArticleID:     spec.ArticleID,
			ServiceID:     in.serviceID,
			ServiceTypeID: in.serviceTypeID,
			Quantity:      spec.Quantity,
			Weight:        spec.Weight,
			UnitPrice:     linePrices[i],
			IsPremium:     spec.IsPremium,
		}
	}

	// The status guard inside the transaction catches a concurrent second
	// completion that slipped past the read above.
	if err := s.store.CompleteOrderTx(ctx, orderID, in.serviceID, items, total, in.collectionDate, in.deliveryDate); err != nil {
		if apperr.IsKind(err, apperr.KindInvalidStateTransition) {
			util.FlashOrdersRejectedTotal.WithLabelValues("invalid_state").Inc()
		}
		return nil, nil, err
	}

	order.ServiceID = &in.serviceID
	order.Status = models.OrderStatusPending
	order.TotalAmount = total
	order.CollectionDate = in.collectionDate
	order.DeliveryDate = in.deliveryDate

	util.FlashOrdersCompletedTotal.Inc()
	s.logger.Info("Flash order completed",
		zap.String("order_id", orderID.String()),
		zap.String("total_amount", total.String()))

	eventItems := make([]models.OrderItemData, len(items))
	for i, item := range items {
		eventItems[i] = models.OrderItemData{
			ArticleID: item.ArticleID,
			Quantity:  item.Quantity,
			LinePrice: item.UnitPrice,
			IsPremium: item.IsPremium,
		}
	}

	event := &models.OrderCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCompleted,
			Timestamp: time.Now(),
		},
		OrderID:       order.ID,
		UserID:        order.UserID,
		ServiceID:     in.serviceID,
		TotalAmount:   total,
		AffiliateCode: order.AffiliateCode,
		Items:         eventItems,
	}
	if err := s.events.PublishOrderCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCompleted event", zap.Error(err))
	}

	return order, items, nil
}

// ListDraftOrders retrieves all flash orders awaiting completion.
func (s *OrderService) ListDraftOrders(ctx context.Context) ([]models.Order, error) {
	return s.store.ListDraftFlashOrders(ctx)
}

// GetOrder retrieves an order with its items.
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, apperr.Newf(apperr.KindNotFound, "order not found: %s", orderID)
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}
