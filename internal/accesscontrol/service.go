package accesscontrol

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/polybazaar/polybazaar-backend/pkg/db"
	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
	"github.com/polybazaar/polybazaar-backend/pkg/enums"
	pkgerrors "github.com/polybazaar/polybazaar-backend/pkg/errors"
)

// Event names published on the broadcast channel after admin decisions.
const (
	EventChatPermissionsUpdated = "chat_permissions_updated"
	EventChatRequestsUpdated    = "chat_requests_updated"
)

// Service owns the permission store and both approval workflows. All
// capability mutation funnels through here.
type Service interface {
	Capabilities(ctx context.Context, userID uuid.UUID) (Capabilities, error)
	RequestPermission(ctx context.Context, requesterID uuid.UUID, in RequestPermissionInput) (*PermissionRequestDTO, error)
	ListPermissionRequests(ctx context.Context, requesterID uuid.UUID) ([]PermissionRequestDTO, error)
	DecidePermission(ctx context.Context, requestID uuid.UUID, approve bool, actorID uuid.UUID) (*PermissionRequestDTO, error)
	RevokePermission(ctx context.Context, requestID, actorID uuid.UUID) (*PermissionRequestDTO, error)
	RequestAccess(ctx context.Context, userID uuid.UUID, in RequestAccessInput) (*AccessRequestDTO, error)
	DecideAccess(ctx context.Context, requestID uuid.UUID, in DecideAccessInput, actorID uuid.UUID) (*AccessRequestDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// userFlagSetter flips the global can_chat flag inside the caller's
// transaction.
type userFlagSetter interface {
	SetCanChat(ctx context.Context, tx *gorm.DB, id uuid.UUID, allowed bool) error
}

// conversationSyncer mirrors a permission decision onto the scoped
// conversation row. granted=true upserts the thread; granted=false only
// updates an existing one.
type conversationSyncer interface {
	SetPermission(ctx context.Context, tx *gorm.DB, listingID, ownerID, participantID uuid.UUID, granted bool) error
}

// broadcaster emits fire-and-forget refresh events. Implementations must
// never fail the calling operation.
type broadcaster interface {
	Broadcast(ctx context.Context, event string, payload any)
}

type service struct {
	tx             txRunner
	permissionRepo PermissionRequestRepository
	accessRepo     AccessRequestRepository
	users          userLoader
	flags          userFlagSetter
	conversations  conversationSyncer
	events         broadcaster
}

// ServiceParams bundles the dependencies for the access-control service.
type ServiceParams struct {
	Tx             txRunner
	PermissionRepo PermissionRequestRepository
	AccessRepo     AccessRequestRepository
	Users          userLoader
	Flags          userFlagSetter
	Conversations  conversationSyncer
	Events         broadcaster
}

// NewService constructs the access-control service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner is required")
	}
	if params.PermissionRepo == nil {
		return nil, fmt.Errorf("permission request repository is required")
	}
	if params.AccessRepo == nil {
		return nil, fmt.Errorf("access request repository is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user loader is required")
	}
	if params.Flags == nil {
		return nil, fmt.Errorf("user flag setter is required")
	}
	if params.Conversations == nil {
		return nil, fmt.Errorf("conversation syncer is required")
	}
	return &service{
		tx:             params.Tx,
		permissionRepo: params.PermissionRepo,
		accessRepo:     params.AccessRepo,
		users:          params.Users,
		flags:          params.Flags,
		conversations:  params.Conversations,
		events:         params.Events,
	}, nil
}

// Capabilities returns the effective permission snapshot for a user. An
// unknown user is an error, never a default-allow.
func (s *service) Capabilities(ctx context.Context, userID uuid.UUID) (Capabilities, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Capabilities{}, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return Capabilities{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return capabilitiesFor(user), nil
}

// RequestPermission is idempotent on the (requester, seller, listing) triple:
// a repeat request returns the existing row with its current status.
func (s *service) RequestPermission(ctx context.Context, requesterID uuid.UUID, in RequestPermissionInput) (*PermissionRequestDTO, error) {
	if requesterID == in.SellerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot request chat with yourself")
	}

	existing, err := s.permissionRepo.FindByTriple(ctx, requesterID, in.SellerID, in.ListingID)
	if err == nil {
		return permissionRequestFromModel(existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup permission request")
	}

	req := &models.ChatPermissionRequest{
		RequesterID: requesterID,
		SellerID:    in.SellerID,
		ListingID:   in.ListingID,
		Status:      enums.PermissionRequestStatusPending,
	}
	if err := s.permissionRepo.Create(ctx, req); err != nil {
		// Concurrent duplicate loses the insert race; hand back the winner.
		if db.IsUniqueViolation(err, "uq_chat_permission_triple") {
			existing, findErr := s.permissionRepo.FindByTriple(ctx, requesterID, in.SellerID, in.ListingID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "lookup permission request after conflict")
			}
			return permissionRequestFromModel(existing), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create permission request")
	}
	return permissionRequestFromModel(req), nil
}

func (s *service) ListPermissionRequests(ctx context.Context, requesterID uuid.UUID) ([]PermissionRequestDTO, error) {
	reqs, err := s.permissionRepo.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list permission requests")
	}
	out := make([]PermissionRequestDTO, 0, len(reqs))
	for i := range reqs {
		out = append(out, *permissionRequestFromModel(&reqs[i]))
	}
	return out, nil
}

// DecidePermission stamps the verdict and, on approval, mirrors the grant
// onto the scoped conversation inside the same transaction.
func (s *service) DecidePermission(ctx context.Context, requestID uuid.UUID, approve bool, actorID uuid.UUID) (*PermissionRequestDTO, error) {
	req, err := s.loadPermissionRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != enums.PermissionRequestStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "request already decided")
	}

	now := time.Now().UTC()
	req.Status = enums.PermissionRequestStatusRejected
	if approve {
		req.Status = enums.PermissionRequestStatusApproved
	}
	req.DecidedBy = &actorID
	req.DecidedAt = &now

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.permissionRepo.WithTx(tx).Update(ctx, req); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update permission request")
		}
		if approve {
			if err := s.conversations.SetPermission(ctx, tx, req.ListingID, req.SellerID, req.RequesterID, true); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "grant conversation permission")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(ctx, EventChatPermissionsUpdated, permissionRequestFromModel(req))
	return permissionRequestFromModel(req), nil
}

// RevokePermission marks the request revoked and flips the conversation's
// permission off in the same transaction. Any request can be revoked
// regardless of its current status; requests that never reached approval
// simply have no conversation grant to withdraw.
func (s *service) RevokePermission(ctx context.Context, requestID, actorID uuid.UUID) (*PermissionRequestDTO, error) {
	req, err := s.loadPermissionRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	req.Status = enums.PermissionRequestStatusRevoked
	req.DecidedBy = &actorID
	req.RevokedAt = &now

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.permissionRepo.WithTx(tx).Update(ctx, req); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update permission request")
		}
		if err := s.conversations.SetPermission(ctx, tx, req.ListingID, req.SellerID, req.RequesterID, false); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke conversation permission")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(ctx, EventChatPermissionsUpdated, permissionRequestFromModel(req))
	return permissionRequestFromModel(req), nil
}

// RequestAccess creates a global chat-access request. Unlike the scoped
// workflow this one is not idempotent: a second request for the same
// (user, job) pair while one is pending is rejected outright.
func (s *service) RequestAccess(ctx context.Context, userID uuid.UUID, in RequestAccessInput) (*AccessRequestDTO, error) {
	pending, err := s.accessRepo.HasPending(ctx, userID, in.JobID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check pending access request")
	}
	if pending {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request already pending")
	}

	req := &models.ChatAccessRequest{
		UserID: userID,
		JobID:  in.JobID,
		Reason: in.Reason,
		Status: enums.AccessRequestStatusPending,
	}
	if err := s.accessRepo.Create(ctx, req); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create access request")
	}
	return accessRequestFromModel(req), nil
}

// DecideAccess stamps the verdict; approval also grants the user's global
// can_chat flag in the same transaction.
func (s *service) DecideAccess(ctx context.Context, requestID uuid.UUID, in DecideAccessInput, actorID uuid.UUID) (*AccessRequestDTO, error) {
	if !in.Status.IsDecision() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be approved or rejected")
	}

	req, err := s.accessRepo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "access request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load access request")
	}
	if req.Status != enums.AccessRequestStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "request already decided")
	}

	now := time.Now().UTC()
	req.Status = in.Status
	req.Notes = in.Notes
	req.DecidedBy = &actorID
	req.DecidedAt = &now

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.accessRepo.WithTx(tx).Update(ctx, req); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update access request")
		}
		if req.Status == enums.AccessRequestStatusApproved {
			if err := s.flags.SetCanChat(ctx, tx, req.UserID, true); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "grant chat capability")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(ctx, EventChatRequestsUpdated, accessRequestFromModel(req))
	return accessRequestFromModel(req), nil
}

func (s *service) loadPermissionRequest(ctx context.Context, id uuid.UUID) (*models.ChatPermissionRequest, error) {
	req, err := s.permissionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "permission request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load permission request")
	}
	return req, nil
}

func (s *service) broadcast(ctx context.Context, event string, payload any) {
	if s.events == nil {
		return
	}
	s.events.Broadcast(ctx, event, payload)
}
