package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/polybazaar/polybazaar-backend/internal/accesscontrol"
	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
	pkgerrors "github.com/polybazaar/polybazaar-backend/pkg/errors"
)

// EventProductsUpdated is broadcast after an admin approval.
const EventProductsUpdated = "products_updated"

// Service manages the product catalog.
type Service interface {
	Create(ctx context.Context, sellerID uuid.UUID, in CreateProductInput) (*ProductDTO, error)
	ListCatalog(ctx context.Context) ([]ProductDTO, error)
	ListMine(ctx context.Context, sellerID uuid.UUID) ([]ProductDTO, error)
	Approve(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
}

type repository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListApproved(ctx context.Context) ([]models.Product, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Product, error)
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) error
}

type capabilityReader interface {
	Capabilities(ctx context.Context, userID uuid.UUID) (accesscontrol.Capabilities, error)
}

type broadcaster interface {
	Broadcast(ctx context.Context, event string, payload any)
}

type service struct {
	repo         repository
	capabilities capabilityReader
	events       broadcaster
}

// ServiceParams bundles the dependencies for the products service.
type ServiceParams struct {
	Repo         repository
	Capabilities capabilityReader
	Events       broadcaster
}

// NewService constructs the products service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	if params.Capabilities == nil {
		return nil, fmt.Errorf("capability reader is required")
	}
	return &service{
		repo:         params.Repo,
		capabilities: params.Capabilities,
		events:       params.Events,
	}, nil
}

// Create lists a product. New products stay invisible to buyers until an
// admin approves them.
func (s *service) Create(ctx context.Context, sellerID uuid.UUID, in CreateProductInput) (*ProductDTO, error) {
	caps, err := s.capabilities.Capabilities(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if !caps.CanSell {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you are not allowed to sell")
	}
	if in.Price.IsNegative() || in.Price.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	product := in.toModel(sellerID)
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return fromModel(product), nil
}

func (s *service) ListCatalog(ctx context.Context) ([]ProductDTO, error) {
	products, err := s.repo.ListApproved(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return toDTOs(products), nil
}

func (s *service) ListMine(ctx context.Context, sellerID uuid.UUID) ([]ProductDTO, error) {
	products, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list seller products")
	}
	return toDTOs(products), nil
}

// Approve flips a product into the buyer-visible catalog.
func (s *service) Approve(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	if err := s.repo.SetApproved(ctx, productID, true); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "approve product")
	}

	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload product")
	}

	if s.events != nil {
		s.events.Broadcast(ctx, EventProductsUpdated, map[string]any{"id": productID})
	}
	return fromModel(product), nil
}

func toDTOs(products []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, *fromModel(&products[i]))
	}
	return out
}
