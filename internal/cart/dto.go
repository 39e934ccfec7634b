package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
)

// AddItemInput is the payload for adding a product to the cart.
type AddItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// UpdateItemInput changes a line's quantity. Zero or negative removes the
// line.
type UpdateItemInput struct {
	Quantity int `json:"quantity"`
}

// ItemDTO is one cart line with its price snapshot.
type ItemDTO struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Quantity      int             `json:"quantity"`
	PriceSnapshot decimal.Decimal `json:"price_snapshot"`
	LineTotal     decimal.Decimal `json:"line_total"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CartDTO is the buyer's cart with the total computed from snapshots.
type CartDTO struct {
	ID    uuid.UUID       `json:"id"`
	Items []ItemDTO       `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func itemFromModel(item *models.CartItem) ItemDTO {
	qty := decimal.NewFromInt(int64(item.Quantity))
	return ItemDTO{
		ID:            item.ID,
		ProductID:     item.ProductID,
		Quantity:      item.Quantity,
		PriceSnapshot: item.PriceSnapshot,
		LineTotal:     item.PriceSnapshot.Mul(qty),
		CreatedAt:     item.CreatedAt,
	}
}

func cartDTO(cartID uuid.UUID, items []models.CartItem) *CartDTO {
	dto := &CartDTO{
		ID:    cartID,
		Items: make([]ItemDTO, 0, len(items)),
		Total: decimal.Zero,
	}
	for i := range items {
		line := itemFromModel(&items[i])
		dto.Items = append(dto.Items, line)
		dto.Total = dto.Total.Add(line.LineTotal)
	}
	return dto
}
