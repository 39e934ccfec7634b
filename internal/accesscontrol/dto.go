package accesscontrol

import (
	"time"

	"github.com/google/uuid"

	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
	"github.com/polybazaar/polybazaar-backend/pkg/enums"
)

// RequestPermissionInput identifies the machinery listing a buyer wants to
// chat about.
type RequestPermissionInput struct {
	SellerID  uuid.UUID `json:"seller_id" validate:"required"`
	ListingID uuid.UUID `json:"listing_id" validate:"required"`
}

// RequestAccessInput asks for the global chat capability, optionally tied to
// the job that prompted it.
type RequestAccessInput struct {
	JobID  *uuid.UUID `json:"job_id,omitempty"`
	Reason *string    `json:"reason,omitempty"`
}

// DecideAccessInput carries an admin's verdict on a chat-access request.
type DecideAccessInput struct {
	Status enums.AccessRequestStatus `json:"status" validate:"required"`
	Notes  *string                   `json:"notes,omitempty"`
}

// PermissionRequestDTO is the transport shape of a scoped chat-permission
// request.
type PermissionRequestDTO struct {
	ID          uuid.UUID                     `json:"id"`
	RequesterID uuid.UUID                     `json:"requester_id"`
	SellerID    uuid.UUID                     `json:"seller_id"`
	ListingID   uuid.UUID                     `json:"listing_id"`
	Status      enums.PermissionRequestStatus `json:"status"`
	RequestedAt time.Time                     `json:"requested_at"`
	DecidedAt   *time.Time                    `json:"decided_at,omitempty"`
	RevokedAt   *time.Time                    `json:"revoked_at,omitempty"`
}

// AccessRequestDTO is the transport shape of a global chat-access request.
type AccessRequestDTO struct {
	ID        uuid.UUID                 `json:"id"`
	UserID    uuid.UUID                 `json:"user_id"`
	JobID     *uuid.UUID                `json:"job_id,omitempty"`
	Reason    *string                   `json:"reason,omitempty"`
	Status    enums.AccessRequestStatus `json:"status"`
	Notes     *string                   `json:"notes,omitempty"`
	CreatedAt time.Time                 `json:"created_at"`
	DecidedAt *time.Time                `json:"decided_at,omitempty"`
}

func permissionRequestFromModel(m *models.ChatPermissionRequest) *PermissionRequestDTO {
	if m == nil {
		return nil
	}
	return &PermissionRequestDTO{
		ID:          m.ID,
		RequesterID: m.RequesterID,
		SellerID:    m.SellerID,
		ListingID:   m.ListingID,
		Status:      m.Status,
		RequestedAt: m.RequestedAt,
		DecidedAt:   m.DecidedAt,
		RevokedAt:   m.RevokedAt,
	}
}

func accessRequestFromModel(m *models.ChatAccessRequest) *AccessRequestDTO {
	if m == nil {
		return nil
	}
	return &AccessRequestDTO{
		ID:        m.ID,
		UserID:    m.UserID,
		JobID:     m.JobID,
		Reason:    m.Reason,
		Status:    m.Status,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		DecidedAt: m.DecidedAt,
	}
}
