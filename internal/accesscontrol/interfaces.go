package accesscontrol

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
)

// PermissionRequestRepository defines the persistence surface for scoped
// chat-permission requests.
type PermissionRequestRepository interface {
	WithTx(tx *gorm.DB) PermissionRequestRepository
	Create(ctx context.Context, req *models.ChatPermissionRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ChatPermissionRequest, error)
	FindByTriple(ctx context.Context, requesterID, sellerID, listingID uuid.UUID) (*models.ChatPermissionRequest, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]models.ChatPermissionRequest, error)
	Update(ctx context.Context, req *models.ChatPermissionRequest) error
}

// AccessRequestRepository defines the persistence surface for global
// chat-access requests.
type AccessRequestRepository interface {
	WithTx(tx *gorm.DB) AccessRequestRepository
	Create(ctx context.Context, req *models.ChatAccessRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.ChatAccessRequest, error)
	HasPending(ctx context.Context, userID uuid.UUID, jobID *uuid.UUID) (bool, error)
	Update(ctx context.Context, req *models.ChatAccessRequest) error
}
