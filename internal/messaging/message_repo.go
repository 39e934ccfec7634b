package messaging

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
	"github.com/polybazaar/polybazaar-backend/pkg/pagination"
)

type messageRepo struct {
	db *gorm.DB
}

// NewMessageRepository builds the GORM-backed message repository.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) WithTx(tx *gorm.DB) MessageRepository {
	if tx == nil {
		return r
	}
	return &messageRepo{db: tx}
}

func (r *messageRepo) Create(ctx context.Context, msg *models.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// HasAnyForUser reports whether the user appears on either side of at least
// one message.
func (r *messageRepo) HasAnyForUser(ctx context.Context, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DirectThread returns direct messages between two users ascending by
// creation time. Threads are symmetrical: both directions are included.
func (r *messageRepo) DirectThread(ctx context.Context, a, b uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Message, error) {
	query := r.db.WithContext(ctx).
		Where("conversation_id IS NULL").
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a)
	return r.page(ctx, query, limit, cursor)
}

func (r *messageRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Message, error) {
	query := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)
	return r.page(ctx, query, limit, cursor)
}

func (r *messageRepo) page(_ context.Context, query *gorm.DB, limit int, cursor *pagination.Cursor) ([]models.Message, error) {
	if cursor != nil {
		query = query.Where("(created_at, id) > (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var msgs []models.Message
	err := query.
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
