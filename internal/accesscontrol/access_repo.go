package accesscontrol

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
	"github.com/polybazaar/polybazaar-backend/pkg/enums"
)

type accessRequestRepo struct {
	db *gorm.DB
}

// NewAccessRequestRepository builds the GORM-backed repository for global
// chat-access requests.
func NewAccessRequestRepository(db *gorm.DB) AccessRequestRepository {
	return &accessRequestRepo{db: db}
}

func (r *accessRequestRepo) WithTx(tx *gorm.DB) AccessRequestRepository {
	if tx == nil {
		return r
	}
	return &accessRequestRepo{db: tx}
}

func (r *accessRequestRepo) Create(ctx context.Context, req *models.ChatAccessRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *accessRequestRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.ChatAccessRequest, error) {
	var req models.ChatAccessRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// HasPending reports whether a pending request already exists for the same
// (user, job) pair. A nil job only matches rows with a null job_id.
func (r *accessRequestRepo) HasPending(ctx context.Context, userID uuid.UUID, jobID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ChatAccessRequest{}).
		Where("user_id = ? AND status = ?", userID, enums.AccessRequestStatusPending)
	if jobID == nil {
		query = query.Where("job_id IS NULL")
	} else {
		query = query.Where("job_id = ?", *jobID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *accessRequestRepo) Update(ctx context.Context, req *models.ChatAccessRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}
