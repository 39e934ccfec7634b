package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/polybazaar/polybazaar-backend/pkg/enums"
)

// ChatPermissionRequest is a buyer's request to chat with a seller about one
// machinery listing. At most one row may exist per (requester, seller,
// listing) triple; re-requests return the existing row.
type ChatPermissionRequest struct {
	ID          uuid.UUID                     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequesterID uuid.UUID                     `gorm:"column:requester_id;type:uuid;not null;uniqueIndex:uq_chat_permission_triple"`
	SellerID    uuid.UUID                     `gorm:"column:seller_id;type:uuid;not null;uniqueIndex:uq_chat_permission_triple"`
	ListingID   uuid.UUID                     `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:uq_chat_permission_triple"`
	Status      enums.PermissionRequestStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	DecidedBy   *uuid.UUID                    `gorm:"column:decided_by;type:uuid"`
	RequestedAt time.Time                     `gorm:"column:requested_at;autoCreateTime"`
	DecidedAt   *time.Time                    `gorm:"column:decided_at"`
	RevokedAt   *time.Time                    `gorm:"column:revoked_at"`
}
