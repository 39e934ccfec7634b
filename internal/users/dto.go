package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
	"github.com/polybazaar/polybazaar-backend/pkg/enums"
)

// UserDTO is the transport shape that omits the password hash.
type UserDTO struct {
	ID               uuid.UUID      `json:"id"`
	Email            string         `json:"email"`
	Name             string         `json:"name"`
	Company          *string        `json:"company,omitempty"`
	Role             enums.UserRole `json:"role"`
	CanChat          bool           `json:"can_chat"`
	CanSell          bool           `json:"can_sell"`
	CanBuy           bool           `json:"can_buy"`
	IsSellerApproved bool           `json:"is_seller_approved"`
	LastLoginAt      *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
// Capability flags are intentionally absent: new accounts always start with
// every flag false.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	Name         string
	Company      *string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		Company:          u.Company,
		Role:             u.Role,
		CanChat:          u.CanChat,
		CanSell:          u.CanSell,
		CanBuy:           u.CanBuy,
		IsSellerApproved: u.IsSellerApproved,
		LastLoginAt:      u.LastLoginAt,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Name:         c.Name,
		Company:      c.Company,
		Role:         enums.UserRoleUser,
	}
}
