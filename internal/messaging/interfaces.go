package messaging

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
	"github.com/polybazaar/polybazaar-backend/pkg/enums"
	"github.com/polybazaar/polybazaar-backend/pkg/pagination"
)

// ConversationRepository defines the persistence surface for scoped threads.
type ConversationRepository interface {
	WithTx(tx *gorm.DB) ConversationRepository
	Create(ctx context.Context, conv *models.Conversation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	FindByThreadKey(ctx context.Context, kind enums.ListingKind, listingID, ownerID, participantID uuid.UUID) (*models.Conversation, error)
	SetPermissionGranted(ctx context.Context, id uuid.UUID, granted bool) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error)
}

// MessageRepository defines the persistence surface for the append-only
// message log.
type MessageRepository interface {
	WithTx(tx *gorm.DB) MessageRepository
	Create(ctx context.Context, msg *models.Message) error
	HasAnyForUser(ctx context.Context, userID uuid.UUID) (bool, error)
	DirectThread(ctx context.Context, a, b uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Message, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Message, error)
}
