package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/polybazaar/polybazaar-backend/pkg/enums"
)

// Job is a buyer-posted processing job open for seller bids.
type Job struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID     uuid.UUID       `gorm:"column:buyer_id;type:uuid;not null;index"`
	Title       string          `gorm:"column:title;not null"`
	Description *string         `gorm:"column:description"`
	Material    *string         `gorm:"column:material"`
	Quantity    *int            `gorm:"column:quantity"`
	Status      enums.JobStatus `gorm:"column:status;type:text;not null;default:'open'"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
