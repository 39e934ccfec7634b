package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/polybazaar/polybazaar-backend/internal/accesscontrol"
	"github.com/polybazaar/polybazaar-backend/pkg/db"
	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
	"github.com/polybazaar/polybazaar-backend/pkg/enums"
	pkgerrors "github.com/polybazaar/polybazaar-backend/pkg/errors"
	"github.com/polybazaar/polybazaar-backend/pkg/pagination"
)

// Service sends and reads messages. Direct messages pass the capability gate;
// scoped conversations (job/machinery threads) bypass it.
type Service interface {
	SendDirectMessage(ctx context.Context, senderID uuid.UUID, in SendMessageInput) (*MessageDTO, error)
	DirectThread(ctx context.Context, userID, withID uuid.UUID, params pagination.Params) (*ThreadPage, error)
	OpenConversation(ctx context.Context, participantID uuid.UUID, in OpenConversationInput) (*ConversationDTO, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]ConversationDTO, error)
	SendConversationMessage(ctx context.Context, senderID, conversationID uuid.UUID, body string) (*MessageDTO, error)
	ConversationMessages(ctx context.Context, userID, conversationID uuid.UUID, params pagination.Params) (*ThreadPage, error)
}

// capabilityReader resolves the effective permission snapshot for a user.
type capabilityReader interface {
	Capabilities(ctx context.Context, userID uuid.UUID) (accesscontrol.Capabilities, error)
}

type service struct {
	conversations ConversationRepository
	messages      MessageRepository
	capabilities  capabilityReader
}

// ServiceParams bundles the dependencies for the messaging service.
type ServiceParams struct {
	Conversations ConversationRepository
	Messages      MessageRepository
	Capabilities  capabilityReader
}

// NewService constructs the messaging service.
func NewService(params ServiceParams) (Service, error) {
	if params.Conversations == nil {
		return nil, fmt.Errorf("conversation repository is required")
	}
	if params.Messages == nil {
		return nil, fmt.Errorf("message repository is required")
	}
	if params.Capabilities == nil {
		return nil, fmt.Errorf("capability reader is required")
	}
	return &service{
		conversations: params.Conversations,
		messages:      params.Messages,
		capabilities:  params.Capabilities,
	}, nil
}

// SendDirectMessage runs the gate checks in a fixed order; the first failing
// check decides the error message. The prior-message rule means two users who
// have never messaged anyone cannot start a direct thread with each other,
// even when both hold can_chat; scoped conversations are the intended way in.
func (s *service) SendDirectMessage(ctx context.Context, senderID uuid.UUID, in SendMessageInput) (*MessageDTO, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}
	if senderID == in.ReceiverID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot message yourself")
	}

	senderCaps, err := s.capabilities.Capabilities(ctx, senderID)
	if err != nil {
		return nil, err
	}
	if !senderCaps.CanChat {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you are not allowed to chat")
	}

	hasPrior, err := s.messages.HasAnyForUser(ctx, senderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check message history")
	}
	if !hasPrior {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no existing conversation with this user")
	}

	receiverCaps, err := s.capabilities.Capabilities(ctx, in.ReceiverID)
	if err != nil {
		return nil, err
	}
	if !receiverCaps.CanChat {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "recipient is not allowed to chat")
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: in.ReceiverID,
		Body:       body,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store message")
	}
	return messageFromModel(msg), nil
}

func (s *service) DirectThread(ctx context.Context, userID, withID uuid.UUID, params pagination.Params) (*ThreadPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	msgs, err := s.messages.DirectThread(ctx, userID, withID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load thread")
	}
	page := threadPage(msgs, limit)
	return &page, nil
}

// OpenConversation is idempotent on the thread key: reopening an existing
// thread returns it unchanged.
func (s *service) OpenConversation(ctx context.Context, participantID uuid.UUID, in OpenConversationInput) (*ConversationDTO, error) {
	if !in.ListingKind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown listing kind")
	}
	if participantID == in.OwnerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot open a conversation with yourself")
	}

	existing, err := s.conversations.FindByThreadKey(ctx, in.ListingKind, in.ListingID, in.OwnerID, participantID)
	if err == nil {
		return conversationFromModel(existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup conversation")
	}

	conv := &models.Conversation{
		ListingKind:   in.ListingKind,
		ListingID:     in.ListingID,
		OwnerID:       in.OwnerID,
		ParticipantID: participantID,
		Title:         strings.TrimSpace(in.Title),
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		if db.IsUniqueViolation(err, "uq_conversation_thread") {
			existing, findErr := s.conversations.FindByThreadKey(ctx, in.ListingKind, in.ListingID, in.OwnerID, participantID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "lookup conversation after conflict")
			}
			return conversationFromModel(existing), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create conversation")
	}
	return conversationFromModel(conv), nil
}

func (s *service) ListConversations(ctx context.Context, userID uuid.UUID) ([]ConversationDTO, error) {
	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list conversations")
	}
	out := make([]ConversationDTO, 0, len(convs))
	for i := range convs {
		out = append(out, *conversationFromModel(&convs[i]))
	}
	return out, nil
}

// SendConversationMessage posts into a scoped thread. Machinery threads
// require the permission grant; job threads never do.
func (s *service) SendConversationMessage(ctx context.Context, senderID, conversationID uuid.UUID, body string) (*MessageDTO, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}

	conv, err := s.loadConversationFor(ctx, senderID, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.ListingKind == enums.ListingKindMachinery && !conv.PermissionGranted {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "chat permission has not been granted for this listing")
	}

	receiverID := conv.OwnerID
	if senderID == conv.OwnerID {
		receiverID = conv.ParticipantID
	}

	msg := &models.Message{
		ConversationID: &conv.ID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Body:           body,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store message")
	}
	return messageFromModel(msg), nil
}

func (s *service) ConversationMessages(ctx context.Context, userID, conversationID uuid.UUID, params pagination.Params) (*ThreadPage, error) {
	if _, err := s.loadConversationFor(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	msgs, err := s.messages.ListByConversation(ctx, conversationID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load conversation messages")
	}
	page := threadPage(msgs, limit)
	return &page, nil
}

// loadConversationFor fetches the conversation and verifies membership.
// Outsiders get NOT_FOUND rather than FORBIDDEN so thread existence is not
// revealed.
func (s *service) loadConversationFor(ctx context.Context, userID, conversationID uuid.UUID) (*models.Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "conversation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load conversation")
	}
	if conv.OwnerID != userID && conv.ParticipantID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "conversation not found")
	}
	return conv, nil
}
