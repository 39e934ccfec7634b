package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/polybazaar/polybazaar-backend/internal/accesscontrol"
	"github.com/polybazaar/polybazaar-backend/internal/cart"
	ordersvc "github.com/polybazaar/polybazaar-backend/internal/orders"
	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
	"github.com/polybazaar/polybazaar-backend/pkg/enums"
	pkgerrors "github.com/polybazaar/polybazaar-backend/pkg/errors"
)

func TestCheckoutForbiddenWithoutBuy(t *testing.T) {
	svc, deps := buildTestService(t)
	buyer := uuid.New()
	deps.caps.byID[buyer] = accesscontrol.Capabilities{CanChat: true}

	_, err := svc.Checkout(context.Background(), buyer, validInput())
	assertCode(t, err, pkgerrors.CodeForbidden)
	if len(deps.orders.orders) != 0 {
		t.Fatalf("expected no order created")
	}
}

func TestCheckoutEmptyCartFailsWithoutOrder(t *testing.T) {
	svc, deps := buildTestService(t)
	buyer := uuid.New()
	deps.caps.byID[buyer] = accesscontrol.Capabilities{CanBuy: true}
	deps.cart.seedCart(buyer)

	_, err := svc.Checkout(context.Background(), buyer, validInput())
	assertCode(t, err, pkgerrors.CodeValidation)
	if len(deps.orders.orders) != 0 {
		t.Fatalf("expected no order for an empty cart")
	}
}

func TestCheckoutWithoutCartRowFailsValidation(t *testing.T) {
	svc, deps := buildTestService(t)
	buyer := uuid.New()
	deps.caps.byID[buyer] = accesscontrol.Capabilities{CanBuy: true}

	_, err := svc.Checkout(context.Background(), buyer, validInput())
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestCheckoutRefusesUnapprovedProductAndKeepsCart(t *testing.T) {
	svc, deps := buildTestService(t)
	buyer := uuid.New()
	deps.caps.byID[buyer] = accesscontrol.Capabilities{CanBuy: true}
	buyerCart := deps.cart.seedCart(buyer)

	approved := deps.products.seed(models.Product{Name: "PP granulate", Price: decimal.NewFromInt(40), IsApproved: true})
	revoked := deps.products.seed(models.Product{Name: "HDPE regrind", Price: decimal.NewFromInt(60), IsApproved: false})
	deps.cart.seedItem(buyerCart.ID, approved.ID, 1, decimal.NewFromInt(40))
	deps.cart.seedItem(buyerCart.ID, revoked.ID, 2, decimal.NewFromInt(60))

	_, err := svc.Checkout(context.Background(), buyer, validInput())
	assertCode(t, err, pkgerrors.CodeForbidden)
	if !strings.Contains(err.Error(), "HDPE regrind") {
		t.Fatalf("expected the offending product named, got %v", err)
	}
	if len(deps.orders.orders) != 0 {
		t.Fatalf("expected no order when any product is unapproved")
	}
	if got := len(deps.cart.items); got != 2 {
		t.Fatalf("expected the cart untouched, got %d items", got)
	}
}

func TestCheckoutTotalsFromSnapshotsAndEmptiesCart(t *testing.T) {
	svc, deps := buildTestService(t)
	buyer := uuid.New()
	deps.caps.byID[buyer] = accesscontrol.Capabilities{CanBuy: true}
	buyerCart := deps.cart.seedCart(buyer)

	product := deps.products.seed(models.Product{Name: "LDPE film", Price: decimal.NewFromInt(130), IsApproved: true})
	// the live price changed after the snapshot was taken; the order must
	// still bill the snapshot
	deps.cart.seedItem(buyerCart.ID, product.ID, 2, decimal.NewFromInt(100))

	order, err := svc.Checkout(context.Background(), buyer, validInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !order.Total.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected total 200, got %s", order.Total)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected one order item, got %d", len(order.Items))
	}
	item := order.Items[0]
	if item.ProductName != "LDPE film" || item.Quantity != 2 || !item.PriceSnapshot.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected order item: %+v", item)
	}
	if order.Status != enums.OrderStatusPlaced {
		t.Fatalf("expected placed status, got %s", order.Status)
	}

	if len(deps.cart.items) != 0 {
		t.Fatalf("expected the cart emptied, got %d items", len(deps.cart.items))
	}
	if _, ok := deps.cart.carts[buyerCart.ID]; !ok {
		t.Fatalf("expected the cart row to survive checkout")
	}
	if deps.events.lastEvent != EventOrdersUpdated {
		t.Fatalf("expected orders broadcast, got %q", deps.events.lastEvent)
	}
}

func TestCheckoutLeavesConcurrentlyAddedItemInCart(t *testing.T) {
	svc, deps := buildTestService(t)
	buyer := uuid.New()
	deps.caps.byID[buyer] = accesscontrol.Capabilities{CanBuy: true}
	buyerCart := deps.cart.seedCart(buyer)

	ordered := deps.products.seed(models.Product{Name: "ABS pellets", Price: decimal.NewFromInt(50), IsApproved: true})
	late := deps.products.seed(models.Product{Name: "PET flakes", Price: decimal.NewFromInt(80), IsApproved: true})
	deps.cart.seedItem(buyerCart.ID, ordered.ID, 3, decimal.NewFromInt(50))

	// another request lands an item between the checkout read and commit
	var lateItem *models.CartItem
	deps.cart.afterListItems = func() {
		if lateItem == nil {
			lateItem = deps.cart.seedItem(buyerCart.ID, late.ID, 1, decimal.NewFromInt(80))
		}
	}

	order, err := svc.Checkout(context.Background(), buyer, validInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(order.Items) != 1 || !order.Total.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected only the read item on the order, got %d items total %s", len(order.Items), order.Total)
	}

	if _, ok := deps.cart.items[lateItem.ID]; !ok {
		t.Fatalf("expected the late item to survive in the cart")
	}
	if len(deps.cart.items) != 1 {
		t.Fatalf("expected only the late item left, got %d", len(deps.cart.items))
	}
}

func TestCheckoutOrderFailureLeavesCartIntact(t *testing.T) {
	svc, deps := buildTestService(t)
	buyer := uuid.New()
	deps.caps.byID[buyer] = accesscontrol.Capabilities{CanBuy: true}
	buyerCart := deps.cart.seedCart(buyer)
	product := deps.products.seed(models.Product{Name: "PVC pellets", Price: decimal.NewFromInt(25), IsApproved: true})
	deps.cart.seedItem(buyerCart.ID, product.ID, 4, decimal.NewFromInt(25))

	deps.orders.createErr = errors.New("insert failed")

	_, err := svc.Checkout(context.Background(), buyer, validInput())
	assertCode(t, err, pkgerrors.CodeInternal)
	if len(deps.cart.items) != 1 {
		t.Fatalf("expected the cart untouched after a failed order insert")
	}
}

func TestCheckoutValidatesInput(t *testing.T) {
	svc, deps := buildTestService(t)
	buyer := uuid.New()
	deps.caps.byID[buyer] = accesscontrol.Capabilities{CanBuy: true}

	_, err := svc.Checkout(context.Background(), buyer, Input{
		ShippingAddress: "  ",
		PaymentMethod:   enums.PaymentMethodCOD,
	})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Checkout(context.Background(), buyer, Input{
		ShippingAddress: "12 Industrial Estate",
		PaymentMethod:   enums.PaymentMethod("barter"),
	})
	assertCode(t, err, pkgerrors.CodeValidation)
}

// --- test scaffolding ---

type testDeps struct {
	cart     *stubCartRepo
	orders   *stubOrdersRepo
	products *stubProductLoader
	caps     *stubCapabilityReader
	events   *stubBroadcaster
}

func buildTestService(t *testing.T) (Service, *testDeps) {
	t.Helper()
	deps := &testDeps{
		cart:     newStubCartRepo(),
		orders:   &stubOrdersRepo{orders: map[uuid.UUID]*models.Order{}},
		products: &stubProductLoader{byID: map[uuid.UUID]*models.Product{}},
		caps:     &stubCapabilityReader{byID: map[uuid.UUID]accesscontrol.Capabilities{}},
		events:   &stubBroadcaster{},
	}
	svc, err := NewService(ServiceParams{
		Tx:           stubTxRunner{},
		CartRepo:     deps.cart,
		OrdersRepo:   deps.orders,
		Products:     deps.products,
		Capabilities: deps.caps,
		Events:       deps.events,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, deps
}

func validInput() Input {
	return Input{
		ShippingAddress: "Unit 4, Riverside Trading Park",
		PaymentMethod:   enums.PaymentMethodBankTransfer,
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubCartRepo struct {
	carts map[uuid.UUID]*models.Cart
	items map[uuid.UUID]*models.CartItem

	afterListItems func()
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{
		carts: map[uuid.UUID]*models.Cart{},
		items: map[uuid.UUID]*models.CartItem{},
	}
}

func (s *stubCartRepo) seedCart(buyerID uuid.UUID) *models.Cart {
	stored := &models.Cart{ID: uuid.New(), BuyerID: buyerID}
	s.carts[stored.ID] = stored
	return stored
}

func (s *stubCartRepo) seedItem(cartID, productID uuid.UUID, qty int, snapshot decimal.Decimal) *models.CartItem {
	stored := &models.CartItem{
		ID:            uuid.New(),
		CartID:        cartID,
		ProductID:     productID,
		Quantity:      qty,
		PriceSnapshot: snapshot,
	}
	s.items[stored.ID] = stored
	return stored
}

func (s *stubCartRepo) WithTx(*gorm.DB) cart.Repository { return s }

func (s *stubCartRepo) FindByBuyer(_ context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	for _, c := range s.carts {
		if c.BuyerID == buyerID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) Create(_ context.Context, c *models.Cart) error {
	c.ID = uuid.New()
	stored := *c
	s.carts[c.ID] = &stored
	return nil
}

func (s *stubCartRepo) ListItems(_ context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var out []models.CartItem
	for _, item := range s.items {
		if item.CartID == cartID {
			out = append(out, *item)
		}
	}
	if s.afterListItems != nil {
		s.afterListItems()
	}
	return out, nil
}

func (s *stubCartRepo) FindItem(_ context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	for _, item := range s.items {
		if item.CartID == cartID && item.ProductID == productID {
			copied := *item
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) FindItemByID(_ context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	item, ok := s.items[itemID]
	if !ok || item.CartID != cartID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	return &copied, nil
}

func (s *stubCartRepo) CreateItem(_ context.Context, item *models.CartItem) error {
	item.ID = uuid.New()
	stored := *item
	s.items[item.ID] = &stored
	return nil
}

func (s *stubCartRepo) UpdateItem(_ context.Context, item *models.CartItem) error {
	copied := *item
	s.items[item.ID] = &copied
	return nil
}

func (s *stubCartRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	delete(s.items, itemID)
	return nil
}

func (s *stubCartRepo) DeleteItems(_ context.Context, cartID uuid.UUID, itemIDs []uuid.UUID) error {
	for _, id := range itemIDs {
		if item, ok := s.items[id]; ok && item.CartID == cartID {
			delete(s.items, id)
		}
	}
	return nil
}

type stubOrdersRepo struct {
	orders    map[uuid.UUID]*models.Order
	createErr error
}

func (s *stubOrdersRepo) WithTx(*gorm.DB) ordersvc.Repository { return s }

func (s *stubOrdersRepo) Create(_ context.Context, order *models.Order) error {
	if s.createErr != nil {
		return s.createErr
	}
	order.ID = uuid.New()
	stored := *order
	s.orders[order.ID] = &stored
	return nil
}

func (s *stubOrdersRepo) FindByIDForBuyer(_ context.Context, id, buyerID uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok || order.BuyerID != buyerID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (s *stubOrdersRepo) ListByBuyer(_ context.Context, buyerID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if order.BuyerID == buyerID {
			out = append(out, *order)
		}
	}
	return out, nil
}

type stubProductLoader struct {
	byID map[uuid.UUID]*models.Product
}

func (s *stubProductLoader) seed(product models.Product) *models.Product {
	product.ID = uuid.New()
	stored := product
	s.byID[product.ID] = &stored
	return &stored
}

func (s *stubProductLoader) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *product
	return &copied, nil
}

type stubCapabilityReader struct {
	byID map[uuid.UUID]accesscontrol.Capabilities
}

func (s *stubCapabilityReader) Capabilities(_ context.Context, userID uuid.UUID) (accesscontrol.Capabilities, error) {
	caps, ok := s.byID[userID]
	if !ok {
		return accesscontrol.Capabilities{}, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return caps, nil
}

type stubBroadcaster struct {
	lastEvent string
}

func (s *stubBroadcaster) Broadcast(_ context.Context, event string, _ any) {
	s.lastEvent = event
}
