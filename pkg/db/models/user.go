package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/polybazaar/polybazaar-backend/pkg/enums"
)

// User represents the canonical identity entity. The four capability flags
// gate chat, selling, and buying; they default to false and are mutated only
// by the admin approval workflows.
type User struct {
	ID               uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email            string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash     string         `gorm:"column:password_hash;not null"`
	Name             string         `gorm:"column:name;not null"`
	Company          *string        `gorm:"column:company"`
	Role             enums.UserRole `gorm:"column:role;type:text;not null;default:'user'"`
	CanChat          bool           `gorm:"column:can_chat;not null;default:false"`
	CanSell          bool           `gorm:"column:can_sell;not null;default:false"`
	CanBuy           bool           `gorm:"column:can_buy;not null;default:false"`
	IsSellerApproved bool           `gorm:"column:is_seller_approved;not null;default:false"`
	LastLoginAt      *time.Time     `gorm:"column:last_login_at"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
