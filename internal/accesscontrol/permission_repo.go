package accesscontrol

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
)

type permissionRequestRepo struct {
	db *gorm.DB
}

// NewPermissionRequestRepository builds the GORM-backed repository for scoped
// chat-permission requests.
func NewPermissionRequestRepository(db *gorm.DB) PermissionRequestRepository {
	return &permissionRequestRepo{db: db}
}

func (r *permissionRequestRepo) WithTx(tx *gorm.DB) PermissionRequestRepository {
	if tx == nil {
		return r
	}
	return &permissionRequestRepo{db: tx}
}

func (r *permissionRequestRepo) Create(ctx context.Context, req *models.ChatPermissionRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *permissionRequestRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.ChatPermissionRequest, error) {
	var req models.ChatPermissionRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *permissionRequestRepo) FindByTriple(ctx context.Context, requesterID, sellerID, listingID uuid.UUID) (*models.ChatPermissionRequest, error) {
	var req models.ChatPermissionRequest
	err := r.db.WithContext(ctx).
		Where("requester_id = ? AND seller_id = ? AND listing_id = ?", requesterID, sellerID, listingID).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *permissionRequestRepo) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]models.ChatPermissionRequest, error) {
	var reqs []models.ChatPermissionRequest
	err := r.db.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Order("requested_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *permissionRequestRepo) Update(ctx context.Context, req *models.ChatPermissionRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}
