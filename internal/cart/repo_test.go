package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	carts := `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price_snapshot TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, product_id)
);`
	require.NoError(t, db.Exec(carts).Error)
	require.NoError(t, db.Exec(cartItems).Error)
	return db
}

func newCart(t *testing.T, repo Repository, buyerID uuid.UUID) *models.Cart {
	t.Helper()

	cart := &models.Cart{ID: uuid.New(), BuyerID: buyerID}
	require.NoError(t, repo.Create(context.Background(), cart))
	return cart
}

func addItem(t *testing.T, repo Repository, cartID, productID uuid.UUID, qty int, price int64) *models.CartItem {
	t.Helper()

	item := &models.CartItem{
		ID:            uuid.New(),
		CartID:        cartID,
		ProductID:     productID,
		Quantity:      qty,
		PriceSnapshot: decimal.NewFromInt(price),
	}
	require.NoError(t, repo.CreateItem(context.Background(), item))
	return item
}

func TestRepositoryFindByBuyer(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)

	buyerID := uuid.New()
	created := newCart(t, repo, buyerID)

	found, err := repo.FindByBuyer(context.Background(), buyerID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindByBuyer(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryItemLookups(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)

	cart := newCart(t, repo, uuid.New())
	productID := uuid.New()
	item := addItem(t, repo, cart.ID, productID, 2, 45)

	byProduct, err := repo.FindItem(context.Background(), cart.ID, productID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, byProduct.ID)

	byID, err := repo.FindItemByID(context.Background(), cart.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, productID, byID.ProductID)

	// item ids do not resolve against someone else's cart
	_, err = repo.FindItemByID(context.Background(), uuid.New(), item.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryUpdateItem(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)

	cart := newCart(t, repo, uuid.New())
	item := addItem(t, repo, cart.ID, uuid.New(), 1, 100)

	item.Quantity = 5
	item.PriceSnapshot = decimal.NewFromInt(110)
	require.NoError(t, repo.UpdateItem(context.Background(), item))

	updated, err := repo.FindItemByID(context.Background(), cart.ID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)
	assert.True(t, updated.PriceSnapshot.Equal(decimal.NewFromInt(110)))
}

func TestRepositoryDeleteItems_keepsCartRowAndUnlistedItems(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)

	buyerID := uuid.New()
	cart := newCart(t, repo, buyerID)
	first := addItem(t, repo, cart.ID, uuid.New(), 2, 30)
	second := addItem(t, repo, cart.ID, uuid.New(), 1, 75)
	unlisted := addItem(t, repo, cart.ID, uuid.New(), 3, 15)

	other := newCart(t, repo, uuid.New())
	keep := addItem(t, repo, other.ID, uuid.New(), 4, 20)

	require.NoError(t, repo.DeleteItems(context.Background(), cart.ID, []uuid.UUID{first.ID, second.ID}))

	// an item not named stays put
	items, err := repo.ListItems(context.Background(), cart.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, unlisted.ID, items[0].ID)

	// the cart row survives for reuse
	survivor, err := repo.FindByBuyer(context.Background(), buyerID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, survivor.ID)

	otherItems, err := repo.ListItems(context.Background(), other.ID)
	require.NoError(t, err)
	require.Len(t, otherItems, 1)
	assert.Equal(t, keep.ID, otherItems[0].ID)

	// an empty id list is a no-op
	require.NoError(t, repo.DeleteItems(context.Background(), cart.ID, nil))
}
