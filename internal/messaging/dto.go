package messaging

import (
	"time"

	"github.com/google/uuid"

	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
	"github.com/polybazaar/polybazaar-backend/pkg/enums"
	"github.com/polybazaar/polybazaar-backend/pkg/pagination"
)

// SendMessageInput is the payload for a direct (ungated-thread) message.
type SendMessageInput struct {
	ReceiverID uuid.UUID `json:"receiver_id" validate:"required"`
	Body       string    `json:"body" validate:"required,max=4000"`
}

// OpenConversationInput identifies the scoped thread to open or fetch.
type OpenConversationInput struct {
	ListingKind enums.ListingKind `json:"listing_kind" validate:"required"`
	ListingID   uuid.UUID         `json:"listing_id" validate:"required"`
	OwnerID     uuid.UUID         `json:"owner_id" validate:"required"`
	Title       string            `json:"title" validate:"required,max=200"`
}

// MessageDTO is the transport shape of one message.
type MessageDTO struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
	SenderID       uuid.UUID  `json:"sender_id"`
	ReceiverID     uuid.UUID  `json:"receiver_id"`
	Body           string     `json:"body"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ConversationDTO is the transport shape of a scoped thread.
type ConversationDTO struct {
	ID                uuid.UUID         `json:"id"`
	ListingKind       enums.ListingKind `json:"listing_kind"`
	ListingID         uuid.UUID         `json:"listing_id"`
	OwnerID           uuid.UUID         `json:"owner_id"`
	ParticipantID     uuid.UUID         `json:"participant_id"`
	Title             string            `json:"title"`
	PermissionGranted bool              `json:"permission_granted"`
	CreatedAt         time.Time         `json:"created_at"`
}

// ThreadPage is one ascending page of a message thread.
type ThreadPage struct {
	Messages   []MessageDTO `json:"messages"`
	NextCursor *string      `json:"next_cursor,omitempty"`
}

func messageFromModel(m *models.Message) *MessageDTO {
	if m == nil {
		return nil
	}
	return &MessageDTO{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		ReceiverID:     m.ReceiverID,
		Body:           m.Body,
		CreatedAt:      m.CreatedAt,
	}
}

func conversationFromModel(c *models.Conversation) *ConversationDTO {
	if c == nil {
		return nil
	}
	return &ConversationDTO{
		ID:                c.ID,
		ListingKind:       c.ListingKind,
		ListingID:         c.ListingID,
		OwnerID:           c.OwnerID,
		ParticipantID:     c.ParticipantID,
		Title:             c.Title,
		PermissionGranted: c.PermissionGranted,
		CreatedAt:         c.CreatedAt,
	}
}

func threadPage(msgs []models.Message, limit int) ThreadPage {
	page := ThreadPage{Messages: make([]MessageDTO, 0, len(msgs))}

	hasMore := len(msgs) > limit
	if hasMore {
		msgs = msgs[:limit]
	}
	for i := range msgs {
		page.Messages = append(page.Messages, *messageFromModel(&msgs[i]))
	}
	if hasMore && len(msgs) > 0 {
		last := msgs[len(msgs)-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
		page.NextCursor = &cursor
	}
	return page
}
