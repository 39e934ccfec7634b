package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/polybazaar/polybazaar-backend/internal/accesscontrol"
	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
	pkgerrors "github.com/polybazaar/polybazaar-backend/pkg/errors"
)

func TestAddItemForbiddenWithoutBuyLeavesCartEmpty(t *testing.T) {
	svc, deps := buildTestService(t)
	buyer := uuid.New()
	deps.caps.byID[buyer] = accesscontrol.Capabilities{CanChat: true}
	product := deps.products.seed(models.Product{Price: decimal.NewFromInt(100), IsApproved: true})

	_, err := svc.AddItem(context.Background(), buyer, AddItemInput{ProductID: product.ID, Quantity: 1})
	assertCode(t, err, pkgerrors.CodeForbidden)
	if len(deps.repo.items) != 0 {
		t.Fatalf("expected no cart items after refusal")
	}
}

func TestAddItemRefusesUnapprovedProduct(t *testing.T) {
	svc, deps := buildTestService(t)
	buyer := uuid.New()
	deps.caps.byID[buyer] = accesscontrol.Capabilities{CanBuy: true}
	product := deps.products.seed(models.Product{Price: decimal.NewFromInt(100)})

	_, err := svc.AddItem(context.Background(), buyer, AddItemInput{ProductID: product.ID, Quantity: 1})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestAddItemSnapshotsPriceAtAddTime(t *testing.T) {
	svc, deps := buildTestService(t)
	buyer := uuid.New()
	deps.caps.byID[buyer] = accesscontrol.Capabilities{CanBuy: true}
	product := deps.products.seed(models.Product{Price: decimal.NewFromInt(100), IsApproved: true})

	cart, err := svc.AddItem(context.Background(), buyer, AddItemInput{ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// changing the live price must not touch the stored snapshot
	deps.products.byID[product.ID].Price = decimal.NewFromInt(150)

	reloaded, err := svc.GetCart(context.Background(), buyer)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if !reloaded.Items[0].PriceSnapshot.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected snapshot 100, got %s", reloaded.Items[0].PriceSnapshot)
	}
	if !reloaded.Total.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected total 200, got %s", reloaded.Total)
	}
	_ = cart
}

func TestAddSameProductIncrementsAndRefreshesSnapshot(t *testing.T) {
	svc, deps := buildTestService(t)
	buyer := uuid.New()
	deps.caps.byID[buyer] = accesscontrol.Capabilities{CanBuy: true}
	product := deps.products.seed(models.Product{Price: decimal.NewFromInt(100), IsApproved: true})

	if _, err := svc.AddItem(context.Background(), buyer, AddItemInput{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("first add: %v", err)
	}

	deps.products.byID[product.ID].Price = decimal.NewFromInt(120)

	cart, err := svc.AddItem(context.Background(), buyer, AddItemInput{ProductID: product.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", cart.Items[0].Quantity)
	}
	if !cart.Items[0].PriceSnapshot.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected refreshed snapshot 120, got %s", cart.Items[0].PriceSnapshot)
	}
}

func TestUpdateItemZeroQuantityDeletesLine(t *testing.T) {
	svc, deps := buildTestService(t)
	buyer := uuid.New()
	deps.caps.byID[buyer] = accesscontrol.Capabilities{CanBuy: true}
	product := deps.products.seed(models.Product{Price: decimal.NewFromInt(50), IsApproved: true})

	cart, err := svc.AddItem(context.Background(), buyer, AddItemInput{ProductID: product.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	updated, err := svc.UpdateItem(context.Background(), buyer, cart.Items[0].ID, UpdateItemInput{Quantity: 0})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(updated.Items) != 0 {
		t.Fatalf("expected the line removed, got %d items", len(updated.Items))
	}
	if !updated.Total.Equal(decimal.Zero) {
		t.Fatalf("expected zero total, got %s", updated.Total)
	}
}

func TestGetCartCreatesLazily(t *testing.T) {
	svc, deps := buildTestService(t)
	buyer := uuid.New()

	cart, err := svc.GetCart(context.Background(), buyer)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if cart.ID == uuid.Nil {
		t.Fatalf("expected a persisted cart")
	}
	if len(deps.repo.carts) != 1 {
		t.Fatalf("expected one cart row, got %d", len(deps.repo.carts))
	}

	again, err := svc.GetCart(context.Background(), buyer)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if again.ID != cart.ID {
		t.Fatalf("expected the same cart row")
	}
}

func TestUpdateItemFromAnotherCartIsNotFound(t *testing.T) {
	svc, deps := buildTestService(t)
	buyerA, buyerB := uuid.New(), uuid.New()
	deps.caps.byID[buyerA] = accesscontrol.Capabilities{CanBuy: true}
	product := deps.products.seed(models.Product{Price: decimal.NewFromInt(10), IsApproved: true})

	cartA, err := svc.AddItem(context.Background(), buyerA, AddItemInput{ProductID: product.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err = svc.UpdateItem(context.Background(), buyerB, cartA.Items[0].ID, UpdateItemInput{Quantity: 3})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

// --- test scaffolding ---

type testDeps struct {
	repo     *stubCartRepo
	products *stubProductLoader
	caps     *stubCapabilityReader
}

func buildTestService(t *testing.T) (Service, *testDeps) {
	t.Helper()
	deps := &testDeps{
		repo:     newStubCartRepo(),
		products: &stubProductLoader{byID: map[uuid.UUID]*models.Product{}},
		caps:     &stubCapabilityReader{byID: map[uuid.UUID]accesscontrol.Capabilities{}},
	}
	svc, err := NewService(ServiceParams{
		Repo:         deps.repo,
		Products:     deps.products,
		Capabilities: deps.caps,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, deps
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

type stubCartRepo struct {
	carts map[uuid.UUID]*models.Cart
	items map[uuid.UUID]*models.CartItem
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{
		carts: map[uuid.UUID]*models.Cart{},
		items: map[uuid.UUID]*models.CartItem{},
	}
}

func (s *stubCartRepo) WithTx(*gorm.DB) Repository { return s }

func (s *stubCartRepo) FindByBuyer(_ context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	for _, cart := range s.carts {
		if cart.BuyerID == buyerID {
			copied := *cart
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) Create(_ context.Context, cart *models.Cart) error {
	cart.ID = uuid.New()
	stored := *cart
	s.carts[cart.ID] = &stored
	return nil
}

func (s *stubCartRepo) ListItems(_ context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var out []models.CartItem
	for _, item := range s.items {
		if item.CartID == cartID {
			out = append(out, *item)
		}
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
