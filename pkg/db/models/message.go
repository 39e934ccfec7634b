package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is append-only. Direct messages carry a nil ConversationID; scoped
// messages belong to a conversation. Ordering is by creation timestamp.
type Message struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ConversationID *uuid.UUID `gorm:"column:conversation_id;type:uuid;index"`
	SenderID       uuid.UUID  `gorm:"column:sender_id;type:uuid;not null;index"`
	ReceiverID     uuid.UUID  `gorm:"column:receiver_id;type:uuid;not null;index"`
	Body           string     `gorm:"column:body;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}
