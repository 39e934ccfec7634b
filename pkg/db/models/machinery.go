package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Machinery is a seller's equipment listing. Chat-permission requests and
// machinery conversations are scoped to these rows.
type Machinery struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID    uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index"`
	Title       string          `gorm:"column:title;not null"`
	Description *string         `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Condition   *string         `gorm:"column:condition"`
	Images      pq.StringArray  `gorm:"column:images;type:text[]"`
	IsApproved  bool            `gorm:"column:is_approved;not null;default:false"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the irregular plural.
func (Machinery) TableName() string {
	return "machinery"
}
