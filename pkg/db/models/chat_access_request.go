package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/polybazaar/polybazaar-backend/pkg/enums"
)

// ChatAccessRequest asks an admin to grant the user's global can_chat flag,
// optionally referencing the job that prompted the request. One pending row
// per (user, job) pair; a second request while pending is rejected rather
// than deduplicated.
type ChatAccessRequest struct {
	ID        uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID                 `gorm:"column:user_id;type:uuid;not null;index"`
	JobID     *uuid.UUID                `gorm:"column:job_id;type:uuid"`
	Reason    *string                   `gorm:"column:reason"`
	Status    enums.AccessRequestStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Notes     *string                   `gorm:"column:notes"`
	DecidedBy *uuid.UUID                `gorm:"column:decided_by;type:uuid"`
	CreatedAt time.Time                 `gorm:"column:created_at;autoCreateTime"`
	DecidedAt *time.Time                `gorm:"column:decided_at"`
}
