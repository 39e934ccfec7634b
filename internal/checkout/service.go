package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/polybazaar/polybazaar-backend/internal/accesscontrol"
	"github.com/polybazaar/polybazaar-backend/internal/cart"
	"github.com/polybazaar/polybazaar-backend/internal/orders"
	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
	"github.com/polybazaar/polybazaar-backend/pkg/enums"
	pkgerrors "github.com/polybazaar/polybazaar-backend/pkg/errors"
)

// EventOrdersUpdated is broadcast after a successful checkout.
const EventOrdersUpdated = "orders_updated"

// Input carries the checkout form.
type Input struct {
	ShippingAddress string              `json:"shipping_address" validate:"required,max=500"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method" validate:"required"`
}

// Service converts a cart into an order. The conversion is all-or-nothing:
// order, order items and cart emptying commit together or not at all.
type Service interface {
	Checkout(ctx context.Context, buyerID uuid.UUID, in Input) (*orders.OrderDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type capabilityReader interface {
	Capabilities(ctx context.Context, userID uuid.UUID) (accesscontrol.Capabilities, error)
}

type broadcaster interface {
	Broadcast(ctx context.Context, event string, payload any)
}

type service struct {
	tx           txRunner
	cartRepo     cart.Repository
	ordersRepo   orders.Repository
	products     productLoader
	capabilities capabilityReader
	events       broadcaster
}

// ServiceParams bundles the dependencies for the checkout service.
type ServiceParams struct {
	Tx           txRunner
	CartRepo     cart.Repository
	OrdersRepo   orders.Repository
	Products     productLoader
	Capabilities capabilityReader
	Events       broadcaster
}

// NewService constructs the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader is required")
	}
	if params.Capabilities == nil {
		return nil, fmt.Errorf("capability reader is required")
	}
	return &service{
		tx:           params.Tx,
		cartRepo:     params.CartRepo,
		ordersRepo:   params.OrdersRepo,
		products:     params.Products,
		capabilities: params.Capabilities,
		events:       params.Events,
	}, nil
}

// Checkout reads the cart, re-validates every product's approval at order
// time, totals the items from their stored snapshots and writes the order,
// all in one transaction. The cart row itself survives for the next purchase.
func (s *service) Checkout(ctx context.Context, buyerID uuid.UUID, in Input) (*orders.OrderDTO, error) {
	if strings.TrimSpace(in.ShippingAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is required")
	}
	if !in.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	caps, err := s.capabilities.Capabilities(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if !caps.CanBuy {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you are not allowed to buy")
	}

	buyerCart, err := s.cartRepo.FindByBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	// Items are read, validated and deleted inside the same transaction.
	// Only the rows that were read and totaled are removed, so an item added
	// concurrently stays in the cart instead of vanishing off the order.
	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txCart := s.cartRepo.WithTx(tx)

		items, err := txCart.ListItems(ctx, buyerCart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cart items")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		// Approval may have been withdrawn since the item was added; the
		// first offending product fails the whole checkout by name.
		total := decimal.Zero
		orderItems := make([]models.OrderItem, 0, len(items))
		itemIDs := make([]uuid.UUID, 0, len(items))
		for i := range items {
			item := &items[i]
			product, err := s.products.FindByID(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeConflict, "a product in your cart is no longer available")
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
			}
			if !product.IsApproved {
				return pkgerrors.New(pkgerrors.CodeForbidden,
					fmt.Sprintf("product %q is not available for purchase", product.Name))
			}

			line := item.PriceSnapshot.Mul(decimal.NewFromInt(int64(item.Quantity)))
			total = total.Add(line)
			orderItems = append(orderItems, models.OrderItem{
				ProductID:     item.ProductID,
				ProductName:   product.Name,
				Quantity:      item.Quantity,
				PriceSnapshot: item.PriceSnapshot,
			})
			itemIDs = append(itemIDs, item.ID)
		}

		order = &models.Order{
			BuyerID:         buyerID,
			Total:           total,
			ShippingAddress: strings.TrimSpace(in.ShippingAddress),
			PaymentMethod:   in.PaymentMethod,
			Status:          enums.OrderStatusPlaced,
			Items:           orderItems,
		}

		if err := s.ordersRepo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}
		if err := txCart.DeleteItems(ctx, buyerCart.ID, itemIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "empty cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.Broadcast(ctx, EventOrdersUpdated, map[string]any{"id": order.ID})
	}
	return orders.FromModel(order), nil
}
