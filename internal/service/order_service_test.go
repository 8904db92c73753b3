package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"laundry-service/internal/apperr"
	"laundry-service/internal/models"
	"laundry-service/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderStore struct {
	orders    map[uuid.UUID]*models.Order
	items     map[uuid.UUID][]models.OrderItem
	addresses map[uuid.UUID]*models.Address
	affiliate *models.AffiliateProfile
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders:    make(map[uuid.UUID]*models.Order),
		items:     make(map[uuid.UUID][]models.OrderItem),
		addresses: make(map[uuid.UUID]*models.Address),
	}
}

func (f *fakeOrderStore) CreateOrder(_ context.Context, order *models.Order) error {
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	copied := *order
	f.orders[order.ID] = &copied
	return nil
}

func (f *fakeOrderStore) GetOrderByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderStore) ListDraftFlashOrders(_ context.Context) ([]models.Order, error) {
	var drafts []models.Order
	for _, order := range f.orders {
		if order.IsFlash && order.Status == models.OrderStatusDraft {
			drafts = append(drafts, *order)
		}
	}
	return drafts, nil
}

func (f *fakeOrderStore) GetOrderItemsByOrderID(_ context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	return f.items[orderID], nil
}

func (f *fakeOrderStore) CompleteOrderTx(_ context.Context, orderID, serviceID uuid.UUID, items []models.OrderItem, total decimal.Decimal, collectionDate, deliveryDate *time.Time) error {
	order, ok := f.orders[orderID]
	if !ok {
		return apperr.Newf(apperr.KindNotFound, "order not found: %s", orderID)
	}
	if order.Status != models.OrderStatusDraft {
		return apperr.Newf(apperr.KindInvalidStateTransition,
			"order %s is in status %s", orderID, order.Status)
	}
	order.ServiceID = &serviceID
	order.Status = models.OrderStatusPending
	order.TotalAmount = total
	order.CollectionDate = collectionDate
	order.DeliveryDate = deliveryDate
	order.UpdatedAt = time.Now()
	f.items[orderID] = items
	return nil
}

func (f *fakeOrderStore) GetAddressByID(_ context.Context, id uuid.UUID) (*models.Address, error) {
	return f.addresses[id], nil
}

func (f *fakeOrderStore) GetCurrentAffiliateForClient(_ context.Context, _ uuid.UUID, _ time.Time) (*models.AffiliateProfile, error) {
	return f.affiliate, nil
}

type fakeCatalogStore struct {
	mu                 sync.Mutex
	entries            map[uuid.UUID]*models.PriceEntry
	defaultServiceType *models.ServiceType
	lastServiceTypeID  uuid.UUID
	upserted           []*models.PriceEntry
}

// GetPriceEntry is called concurrently by the calculator fan-out.
func (f *fakeCatalogStore) GetPriceEntry(_ context.Context, articleID, serviceTypeID, _ uuid.UUID) (*models.PriceEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastServiceTypeID = serviceTypeID
	return f.entries[articleID], nil
}

func (f *fakeCatalogStore) UpsertPriceEntry(_ context.Context, entry *models.PriceEntry) error {
	f.upserted = append(f.upserted, entry)
	return nil
}

func (f *fakeCatalogStore) GetDefaultServiceType(_ context.Context) (*models.ServiceType, error) {
	return f.defaultServiceType, nil
}

type fakeEvents struct {
	drafted   []*models.OrderDraftedEvent
	completed []*models.OrderCompletedEvent
}

func (f *fakeEvents) PublishOrderDrafted(_ context.Context, event *models.OrderDraftedEvent) error {
	f.drafted = append(f.drafted, event)
	return nil
}

func (f *fakeEvents) PublishOrderCompleted(_ context.Context, event *models.OrderCompletedEvent) error {
	f.completed = append(f.completed, event)
	return nil
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

type orderFixture struct {
	service       *OrderService
	store         *fakeOrderStore
	catalogStore  *fakeCatalogStore
	events        *fakeEvents
	clientID      uuid.UUID
	addressID     uuid.UUID
	serviceID     uuid.UUID
	serviceTypeID uuid.UUID
	shirtID       uuid.UUID
	duvetID       uuid.UUID
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	fx := &orderFixture{
		store:         newFakeOrderStore(),
		events:        &fakeEvents{},
		clientID:      uuid.New(),
		addressID:     uuid.New(),
		serviceID:     uuid.New(),
		serviceTypeID: uuid.New(),
		shirtID:       uuid.New(),
		duvetID:       uuid.New(),
	}

	fx.store.addresses[fx.addressID] = &models.Address{
		ID:     fx.addressID,
		UserID: fx.clientID,
	}

	fx.catalogStore = &fakeCatalogStore{
		entries: map[uuid.UUID]*models.PriceEntry{
			fx.shirtID: {
				ID:           uuid.New(),
				ArticleID:    fx.shirtID,
				IsAvailable:  true,
				PricingType:  models.PricingTypeFlat,
				BasePrice:    dec("10.99"),
				PremiumPrice: dec("15.50"),
			},
			fx.duvetID: {
				ID:          uuid.New(),
				ArticleID:   fx.duvetID,
				IsAvailable: true,
				PricingType: models.PricingTypePerWeight,
				PricePerKg:  dec("4.00"),
			},
		},
		defaultServiceType: &models.ServiceType{ID: fx.serviceTypeID, Name: "standard", IsDefault: true},
	}

	catalog := NewCatalogClient(fx.catalogStore, nil, time.Minute, decimal.NewFromInt(3))
	calculator := pricing.NewCalculator(pricing.NewResolver(catalog))
	fx.service = NewOrderService(fx.store, catalog, calculator, fx.events)
	return fx
}

func (fx *orderFixture) draftOrder(t *testing.T) *models.Order {
	t.Helper()
	order, err := fx.service.CreateFlashOrder(context.Background(), fx.clientID, &CreateFlashOrderRequest{
		AddressID: fx.addressID.String(),
		Notes:     "ring the bell twice",
	})
	require.NoError(t, err)
	return order
}

func TestCreateFlashOrder(t *testing.T) {
	fx := newOrderFixture(t)

	order := fx.draftOrder(t)
	assert.Equal(t, models.OrderStatusDraft, order.Status)
	assert.True(t, order.IsFlash)
	assert.True(t, order.TotalAmount.IsZero())
	assert.Equal(t, "ring the bell twice", order.Notes)
	assert.Nil(t, order.AffiliateCode)

	require.Len(t, fx.events.drafted, 1)
	assert.Equal(t, order.ID, fx.events.drafted[0].OrderID)
	assert.Equal(t, models.EventTypeOrderDrafted, fx.events.drafted[0].EventType)
}

func TestCreateFlashOrderStampsAffiliateCode(t *testing.T) {
	fx := newOrderFixture(t)
	fx.store.affiliate = &models.AffiliateProfile{
		ID:            uuid.New(),
		AffiliateCode: "AFF-42",
		IsActive:      true,
	}

	order := fx.draftOrder(t)
	require.NotNil(t, order.AffiliateCode)
	assert.Equal(t, "AFF-42", *order.AffiliateCode)
}

func TestCreateFlashOrderInvalidAddress(t *testing.T) {
	fx := newOrderFixture(t)

	foreignAddressID := uuid.New()
	fx.store.addresses[foreignAddressID] = &models.Address{
		ID:     foreignAddressID,
		UserID: uuid.New(),
	}

	tests := []struct {
		name      string
		addressID string
	}{
		{"malformed id", "not-a-uuid"},
		{"unknown address", uuid.New().String()},
		{"address of another user", foreignAddressID.String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.service.CreateFlashOrder(context.Background(), fx.clientID, &CreateFlashOrderRequest{
				AddressID: tt.addressID,
			})
			require.Error(t, err)
			assert.Equal(t, apperr.KindInvalidAddress, apperr.KindOf(err))
		})
	}
	assert.Empty(t, fx.events.drafted)
}

func TestCompleteFlashOrder(t *testing.T) {
	fx := newOrderFixture(t)
	fx.store.affiliate = &models.AffiliateProfile{AffiliateCode: "AFF-42", IsActive: true}
	draft := fx.draftOrder(t)

	req := &CompleteFlashOrderRequest{
		ServiceID:     fx.serviceID.String(),
		ServiceTypeID: fx.serviceTypeID.String(),
		Items: []CompleteItemRequest{
			// The client-supplied unit price must be ignored.
			{ArticleID: fx.shirtID.String(), Quantity: 2, UnitPrice: dec("0.01")},
			{ArticleID: fx.duvetID.String(), Quantity: 1, Weight: dec("1.5")},
		},
		CollectionDate: "2026-09-01T09:00:00Z",
		DeliveryDate:   "2026-09-03T18:00:00+02:00",
	}

	order, items, err := fx.service.CompleteFlashOrder(context.Background(), draft.ID, req)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.True(t, decimal.RequireFromString("27.98").Equal(order.TotalAmount),
		"want 27.98, got %s", order.TotalAmount)
	require.NotNil(t, order.ServiceID)
	assert.Equal(t, fx.serviceID, *order.ServiceID)
	require.NotNil(t, order.DeliveryDate)
	assert.Equal(t, time.UTC, order.DeliveryDate.Location())

	require.Len(t, items, 2)
	assert.True(t, decimal.RequireFromString("21.98").Equal(items[0].UnitPrice))
	assert.True(t, decimal.RequireFromString("6.00").Equal(items[1].UnitPrice))

	stored, err := fx.store.GetOrderByID(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
	assert.True(t, decimal.RequireFromString("27.98").Equal(stored.TotalAmount))

	require.Len(t, fx.events.completed, 1)
	event := fx.events.completed[0]
	assert.True(t, decimal.RequireFromString("27.98").Equal(event.TotalAmount))
	require.NotNil(t, event.AffiliateCode)
	assert.Equal(t, "AFF-42", *event.AffiliateCode)
	assert.Len(t, event.Items, 2)
}

func TestCompleteFlashOrderUsesDefaultServiceType(t *testing.T) {
	fx := newOrderFixture(t)
	draft := fx.draftOrder(t)

	_, _, err := fx.service.CompleteFlashOrder(context.Background(), draft.ID, &CompleteFlashOrderRequest{
		ServiceID: fx.serviceID.String(),
		Items:     []CompleteItemRequest{{ArticleID: fx.shirtID.String(), Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, fx.serviceTypeID, fx.catalogStore.lastServiceTypeID)

	storedItems := fx.store.items[draft.ID]
	require.Len(t, storedItems, 1)
	assert.Equal(t, fx.serviceTypeID, storedItems[0].ServiceTypeID)
}

func TestCompleteFlashOrderValidationReportsAllViolations(t *testing.T) {
	fx := newOrderFixture(t)
	draft := fx.draftOrder(t)

	_, _, err := fx.service.CompleteFlashOrder(context.Background(), draft.ID, &CompleteFlashOrderRequest{
		ServiceID: "nope",
		Items: []CompleteItemRequest{
			{ArticleID: "also-nope", Quantity: 0, UnitPrice: dec("-1")},
		},
		CollectionDate: "tomorrow-ish",
	})
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindValidationFailed, appErr.Kind)
	// serviceId, articleId, quantity, unitPrice and collectionDate all fail.
	assert.Len(t, appErr.Violations, 5)

	stored, _ := fx.store.GetOrderByID(context.Background(), draft.ID)
	assert.Equal(t, models.OrderStatusDraft, stored.Status)
}

func TestCompleteFlashOrderEmptyItems(t *testing.T) {
	fx := newOrderFixture(t)
	draft := fx.draftOrder(t)

	_, _, err := fx.service.CompleteFlashOrder(context.Background(), draft.ID, &CompleteFlashOrderRequest{
		ServiceID: fx.serviceID.String(),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidationFailed, apperr.KindOf(err))
}

func TestCompleteFlashOrderNotFound(t *testing.T) {
	fx := newOrderFixture(t)

	_, _, err := fx.service.CompleteFlashOrder(context.Background(), uuid.New(), &CompleteFlashOrderRequest{
		ServiceID: fx.serviceID.String(),
		Items:     []CompleteItemRequest{{ArticleID: fx.shirtID.String(), Quantity: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCompleteFlashOrderTwiceFails(t *testing.T) {
	fx := newOrderFixture(t)
	draft := fx.draftOrder(t)

	req := &CompleteFlashOrderRequest{
		ServiceID: fx.serviceID.String(),
		Items:     []CompleteItemRequest{{ArticleID: fx.shirtID.String(), Quantity: 2}},
	}

	_, _, err := fx.service.CompleteFlashOrder(context.Background(), draft.ID, req)
	require.NoError(t, err)

	_, _, err = fx.service.CompleteFlashOrder(context.Background(), draft.ID, req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidStateTransition, apperr.KindOf(err))

	stored, _ := fx.store.GetOrderByID(context.Background(), draft.ID)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
	assert.True(t, decimal.RequireFromString("21.98").Equal(stored.TotalAmount))
	assert.Len(t, fx.events.completed, 1)
}

func TestCompleteFlashOrderUnpriceableItemAbortsAll(t *testing.T) {
	fx := newOrderFixture(t)
	draft := fx.draftOrder(t)

	_, _, err := fx.service.CompleteFlashOrder(context.Background(), draft.ID, &CompleteFlashOrderRequest{
		ServiceID: fx.serviceID.String(),
		Items: []CompleteItemRequest{
			{ArticleID: fx.shirtID.String(), Quantity: 2},
			{ArticleID: uuid.New().String(), Quantity: 1},
		},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNoPriceAvailable, apperr.KindOf(err))

	stored, _ := fx.store.GetOrderByID(context.Background(), draft.ID)
	assert.Equal(t, models.OrderStatusDraft, stored.Status)
	assert.Empty(t, fx.store.items[draft.ID])
	assert.Empty(t, fx.events.completed)
}

func TestCompleteFlashOrderWeightRequired(t *testing.T) {
	fx := newOrderFixture(t)
	draft := fx.draftOrder(t)

	_, _, err := fx.service.CompleteFlashOrder(context.Background(), draft.ID, &CompleteFlashOrderRequest{
		ServiceID: fx.serviceID.String(),
		Items:     []CompleteItemRequest{{ArticleID: fx.duvetID.String(), Quantity: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindWeightRequired, apperr.KindOf(err))
}

func TestListDraftOrders(t *testing.T) {
	fx := newOrderFixture(t)
	draft := fx.draftOrder(t)
	completed := fx.draftOrder(t)

	_, _, err := fx.service.CompleteFlashOrder(context.Background(), completed.ID, &CompleteFlashOrderRequest{
		ServiceID: fx.serviceID.String(),
		Items:     []CompleteItemRequest{{ArticleID: fx.shirtID.String(), Quantity: 1}},
	})
	require.NoError(t, err)

	drafts, err := fx.service.ListDraftOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, draft.ID, drafts[0].ID)
}
