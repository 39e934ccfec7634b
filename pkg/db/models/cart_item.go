package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem holds one product line with the price snapshot captured at
// add-time. Checkout totals are computed from snapshots, never from live
// product prices. One row per (cart, product); duplicate adds increment
// Quantity and refresh the snapshot.
type CartItem struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID        uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:uq_cart_product"`
	ProductID     uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:uq_cart_product"`
	Quantity      int             `gorm:"column:quantity;not null"`
	PriceSnapshot decimal.Decimal `gorm:"column:price_snapshot;type:numeric(12,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
