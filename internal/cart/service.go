package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/polybazaar/polybazaar-backend/internal/accesscontrol"
	"github.com/polybazaar/polybazaar-backend/pkg/db"
	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
	pkgerrors "github.com/polybazaar/polybazaar-backend/pkg/errors"
)

// Service owns the buyer's cart. Each line keeps the price captured when it
// was added; live product prices never leak into totals.
type Service interface {
	GetCart(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, buyerID uuid.UUID, in AddItemInput) (*CartDTO, error)
	UpdateItem(ctx context.Context, buyerID, itemID uuid.UUID, in UpdateItemInput) (*CartDTO, error)
	RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) (*CartDTO, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type capabilityReader interface {
	Capabilities(ctx context.Context, userID uuid.UUID) (accesscontrol.Capabilities, error)
}

type service struct {
	repo         Repository
	products     productLoader
	capabilities capabilityReader
}

// ServiceParams bundles the dependencies for the cart service.
type ServiceParams struct {
	Repo         Repository
	Products     productLoader
	Capabilities capabilityReader
}

// NewService constructs the cart service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader is required")
	}
	if params.Capabilities == nil {
		return nil, fmt.Errorf("capability reader is required")
	}
	return &service{
		repo:         params.Repo,
		products:     params.Products,
		capabilities: params.Capabilities,
	}, nil
}

// GetCart returns the buyer's cart, creating it lazily on first access.
func (s *service) GetCart(ctx context.Context, buyerID uuid.UUID) (*CartDTO, error) {
	cart, err := s.ensureCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, cart.ID)
}

// AddItem requires can_buy and an approved product. Adding the same product
// again increments the quantity and refreshes the snapshot to the current
// price.
func (s *service) AddItem(ctx context.Context, buyerID uuid.UUID, in AddItemInput) (*CartDTO, error) {
	if in.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	caps, err := s.capabilities.Capabilities(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if !caps.CanBuy {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you are not allowed to buy")
	}

	product, err := s.products.FindByID(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.IsApproved {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product is not available for purchase")
	}

	cart, err := s.ensureCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindItem(ctx, cart.ID, product.ID)
	switch {
	case err == nil:
		existing.Quantity += in.Quantity
		existing.PriceSnapshot = product.Price
		if err := s.repo.UpdateItem(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
		}

	case errors.Is(err, gorm.ErrRecordNotFound):
		item := &models.CartItem{
			CartID:        cart.ID,
			ProductID:     product.ID,
			Quantity:      in.Quantity,
			PriceSnapshot: product.Price,
		}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart item")
		}

	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup cart item")
	}

	return s.load(ctx, cart.ID)
}

// UpdateItem sets a new quantity; zero or below removes the line entirely.
func (s *service) UpdateItem(ctx context.Context, buyerID, itemID uuid.UUID, in UpdateItemInput) (*CartDTO, error) {
	cart, err := s.ensureCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItemByID(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup cart item")
	}

	if in.Quantity <= 0 {
		if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart item")
		}
		return s.load(ctx, cart.ID)
	}

	item.Quantity = in.Quantity
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
	}
	return s.load(ctx, cart.ID)
}

func (s *service) RemoveItem(ctx context.Context, buyerID, itemID uuid.UUID) (*CartDTO, error) {
	cart, err := s.ensureCart(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItemByID(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup cart item")
	}

	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart item")
	}
	return s.load(ctx, cart.ID)
}

func (s *service) ensureCart(ctx context.Context, buyerID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByBuyer(ctx, buyerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup cart")
	}

	cart = &models.Cart{BuyerID: buyerID}
	if err := s.repo.Create(ctx, cart); err != nil {
		// Concurrent first access loses the insert race; reuse the winner.
		if db.IsUniqueViolation(err, "idx_carts_buyer_id") {
			return s.repo.FindByBuyer(ctx, buyerID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	return cart, nil
}

func (s *service) load(ctx context.Context, cartID uuid.UUID) (*CartDTO, error) {
	items, err := s.repo.ListItems(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart items")
	}
	return cartDTO(cartID, items), nil
}
