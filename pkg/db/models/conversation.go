package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/polybazaar/polybazaar-backend/pkg/enums"
)

// Conversation is a message thread scoped to a job or machinery listing,
// keyed by the (kind, listing, owner, participant) quadruple. For machinery
// threads PermissionGranted mirrors the scoped approval workflow; job threads
// never require a grant.
type Conversation struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingKind       enums.ListingKind `gorm:"column:listing_kind;type:text;not null;uniqueIndex:uq_conversation_thread"`
	ListingID         uuid.UUID         `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:uq_conversation_thread"`
	OwnerID           uuid.UUID         `gorm:"column:owner_id;type:uuid;not null;uniqueIndex:uq_conversation_thread"`
	ParticipantID     uuid.UUID         `gorm:"column:participant_id;type:uuid;not null;uniqueIndex:uq_conversation_thread"`
	Title             string            `gorm:"column:title;not null"`
	PermissionGranted bool              `gorm:"column:permission_granted;not null;default:false"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
