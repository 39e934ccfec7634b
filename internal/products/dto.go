package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
)

// CreateProductInput is the payload for listing a product.
type CreateProductInput struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description *string         `json:"description,omitempty"`
	Category    *string         `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Unit        string          `json:"unit" validate:"required,max=20"`
	Images      []string        `json:"images,omitempty" validate:"max=10,dive,url"`
}

// ProductDTO is the transport shape of a product.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Category    *string         `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Unit        string          `json:"unit"`
	Images      []string        `json:"images"`
	IsApproved  bool            `json:"is_approved"`
	CreatedAt   time.Time       `json:"created_at"`
}

func fromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:          p.ID,
		SellerID:    p.SellerID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Unit:        p.Unit,
		Images:      append([]string{}, p.Images...),
		IsApproved:  p.IsApproved,
		CreatedAt:   p.CreatedAt,
	}
}

func (in CreateProductInput) toModel(sellerID uuid.UUID) *models.Product {
	return &models.Product{
		SellerID:    sellerID,
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Unit:        in.Unit,
		Images:      pq.StringArray(in.Images),
	}
}
