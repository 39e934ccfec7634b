package accesscontrol

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
	"github.com/polybazaar/polybazaar-backend/pkg/enums"
	pkgerrors "github.com/polybazaar/polybazaar-backend/pkg/errors"
)

func TestCapabilitiesAdminOverridesStoredFlags(t *testing.T) {
	admin := &models.User{
		ID:   uuid.New(),
		Role: enums.UserRoleAdmin,
		// all stored flags false
	}
	svc, deps := buildTestService(t)
	deps.users.byID[admin.ID] = admin

	caps, err := svc.Capabilities(context.Background(), admin.ID)
	if err != nil {
		t.Fatalf("capabilities: %v", err)
	}
	if !caps.CanChat || !caps.CanSell || !caps.CanBuy || !caps.IsSellerApproved {
		t.Fatalf("expected admin to hold every capability, got %+v", caps)
	}
}

func TestCapabilitiesUnknownUserIsNotFound(t *testing.T) {
	svc, _ := buildTestService(t)

	_, err := svc.Capabilities(context.Background(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestCapabilitiesRegularUserReflectsFlags(t *testing.T) {
	user := &models.User{
		ID:      uuid.New(),
		Role:    enums.UserRoleUser,
		CanChat: true,
	}
	svc, deps := buildTestService(t)
	deps.users.byID[user.ID] = user

	caps, err := svc.Capabilities(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("capabilities: %v", err)
	}
	if !caps.CanChat || caps.CanSell || caps.CanBuy || caps.IsSellerApproved {
		t.Fatalf("expected only can_chat, got %+v", caps)
	}
}

func TestRequestPermissionIsIdempotentPerTriple(t *testing.T) {
	svc, deps := buildTestService(t)
	requester := uuid.New()
	in := RequestPermissionInput{SellerID: uuid.New(), ListingID: uuid.New()}

	first, err := svc.RequestPermission(context.Background(), requester, in)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}

	second, err := svc.RequestPermission(context.Background(), requester, in)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same request row, got %s and %s", first.ID, second.ID)
	}
	if len(deps.permissions.byID) != 1 {
		t.Fatalf("expected exactly one stored request, got %d", len(deps.permissions.byID))
	}
}

func TestRequestPermissionReRequestKeepsDecidedStatus(t *testing.T) {
	svc, deps := buildTestService(t)
	requester := uuid.New()
	in := RequestPermissionInput{SellerID: uuid.New(), ListingID: uuid.New()}

	first, err := svc.RequestPermission(context.Background(), requester, in)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	deps.permissions.byID[first.ID].Status = enums.PermissionRequestStatusRejected

	again, err := svc.RequestPermission(context.Background(), requester, in)
	if err != nil {
		t.Fatalf("re-request: %v", err)
	}
	if again.Status != enums.PermissionRequestStatusRejected {
		t.Fatalf("expected rejected status on re-request, got %s", again.Status)
	}
}

func TestDecidePermissionApproveGrantsConversation(t *testing.T) {
	svc, deps := buildTestService(t)
	requester, actor := uuid.New(), uuid.New()
	in := RequestPermissionInput{SellerID: uuid.New(), ListingID: uuid.New()}

	created, err := svc.RequestPermission(context.Background(), requester, in)
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	decided, err := svc.DecidePermission(context.Background(), created.ID, true, actor)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decided.Status != enums.PermissionRequestStatusApproved {
		t.Fatalf("expected approved, got %s", decided.Status)
	}
	if decided.DecidedAt == nil {
		t.Fatalf("expected decided_at stamp")
	}

	if len(deps.conversations.calls) != 1 {
		t.Fatalf("expected one conversation sync, got %d", len(deps.conversations.calls))
	}
	call := deps.conversations.calls[0]
	if call.listingID != in.ListingID || call.ownerID != in.SellerID || call.participantID != requester || !call.granted {
		t.Fatalf("unexpected conversation sync %+v", call)
	}
	if len(deps.events.published) != 1 || deps.events.published[0] != EventChatPermissionsUpdated {
		t.Fatalf("expected %s broadcast, got %v", EventChatPermissionsUpdated, deps.events.published)
	}
}

func TestDecidePermissionRejectLeavesConversationUntouched(t *testing.T) {
	svc, deps := buildTestService(t)
	created, err := svc.RequestPermission(context.Background(), uuid.New(), RequestPermissionInput{
		SellerID:  uuid.New(),
		ListingID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	decided, err := svc.DecidePermission(context.Background(), created.ID, false, uuid.New())
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decided.Status != enums.PermissionRequestStatusRejected {
		t.Fatalf("expected rejected, got %s", decided.Status)
	}
	if len(deps.conversations.calls) != 0 {
		t.Fatalf("expected no conversation sync on reject, got %d", len(deps.conversations.calls))
	}
}

func TestDecidePermissionTwiceIsStateConflict(t *testing.T) {
	svc, _ := buildTestService(t)
	created, err := svc.RequestPermission(context.Background(), uuid.New(), RequestPermissionInput{
		SellerID:  uuid.New(),
		ListingID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if _, err := svc.DecidePermission(context.Background(), created.ID, true, uuid.New()); err != nil {
		t.Fatalf("first decide: %v", err)
	}
	_, err = svc.DecidePermission(context.Background(), created.ID, false, uuid.New())
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestRevokePermissionUngrantsConversation(t *testing.T) {
	svc, deps := buildTestService(t)
	requester := uuid.New()
	in := RequestPermissionInput{SellerID: uuid.New(), ListingID: uuid.New()}

	created, err := svc.RequestPermission(context.Background(), requester, in)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := svc.DecidePermission(context.Background(), created.ID, true, uuid.New()); err != nil {
		t.Fatalf("decide: %v", err)
	}

	revoked, err := svc.RevokePermission(context.Background(), created.ID, uuid.New())
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked.Status != enums.PermissionRequestStatusRevoked {
		t.Fatalf("expected revoked, got %s", revoked.Status)
	}
	if revoked.RevokedAt == nil {
		t.Fatalf("expected revoked_at stamp")
	}

	last := deps.conversations.calls[len(deps.conversations.calls)-1]
	if last.granted {
		t.Fatalf("expected the conversation permission to be flipped off")
	}
	if last.listingID != in.ListingID || last.participantID != requester {
		t.Fatalf("unexpected conversation sync %+v", last)
	}
}

func TestRevokePermissionOnPendingRequestSucceeds(t *testing.T) {
	svc, deps := buildTestService(t)
	created, err := svc.RequestPermission(context.Background(), uuid.New(), RequestPermissionInput{
		SellerID:  uuid.New(),
		ListingID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	revoked, err := svc.RevokePermission(context.Background(), created.ID, uuid.New())
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked.Status != enums.PermissionRequestStatusRevoked {
		t.Fatalf("expected revoked, got %s", revoked.Status)
	}

	last := deps.conversations.calls[len(deps.conversations.calls)-1]
	if last.granted {
		t.Fatalf("expected the conversation permission to be flipped off")
	}
}

func TestRevokePermissionUnknownIDIsNotFound(t *testing.T) {
	svc, _ := buildTestService(t)

	_, err := svc.RevokePermission(context.Background(), uuid.New(), uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestRequestAccessRejectsSecondPendingForSamePair(t *testing.T) {
	svc, _ := buildTestService(t)
	user := uuid.New()
	jobID := uuid.New()
	in := RequestAccessInput{JobID: &jobID}

	if _, err := svc.RequestAccess(context.Background(), user, in); err != nil {
		t.Fatalf("first request: %v", err)
	}

	_, err := svc.RequestAccess(context.Background(), user, in)
	assertCode(t, err, pkgerrors.CodeValidation)
	if typed := pkgerrors.As(err); typed.Message() != "request already pending" {
		t.Fatalf("expected already-pending message, got %q", typed.Message())
	}
}

func TestRequestAccessDifferentJobIsAllowed(t *testing.T) {
	svc, _ := buildTestService(t)
	user := uuid.New()
	jobA, jobB := uuid.New(), uuid.New()

	if _, err := svc.RequestAccess(context.Background(), user, RequestAccessInput{JobID: &jobA}); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := svc.RequestAccess(context.Background(), user, RequestAccessInput{JobID: &jobB}); err != nil {
		t.Fatalf("second request for another job: %v", err)
	}
}

func TestDecideAccessApproveGrantsGlobalChat(t *testing.T) {
	svc, deps := buildTestService(t)
	user := uuid.New()

	created, err := svc.RequestAccess(context.Background(), user, RequestAccessInput{})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	decided, err := svc.DecideAccess(context.Background(), created.ID, DecideAccessInput{
		Status: enums.AccessRequestStatusApproved,
	}, uuid.New())
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decided.Status != enums.AccessRequestStatusApproved {
		t.Fatalf("expected approved, got %s", decided.Status)
	}

	if len(deps.flags.calls) != 1 {
		t.Fatalf("expected one flag write, got %d", len(deps.flags.calls))
	}
	if deps.flags.calls[0].userID != user || !deps.flags.calls[0].allowed {
		t.Fatalf("expected can_chat=true for %s, got %+v", user, deps.flags.calls[0])
	}
	if len(deps.events.published) != 1 || deps.events.published[0] != EventChatRequestsUpdated {
		t.Fatalf("expected %s broadcast, got %v", EventChatRequestsUpdated, deps.events.published)
	}
}

func TestDecideAccessRejectLeavesFlagAlone(t *testing.T) {
	svc, deps := buildTestService(t)
	created, err := svc.RequestAccess(context.Background(), uuid.New(), RequestAccessInput{})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	if _, err := svc.DecideAccess(context.Background(), created.ID, DecideAccessInput{
		Status: enums.AccessRequestStatusRejected,
	}, uuid.New()); err != nil {
		t.Fatalf("decide: %v", err)
	}
	if len(deps.flags.calls) != 0 {
		t.Fatalf("expected no flag writes on reject, got %d", len(deps.flags.calls))
	}
}

func TestDecideAccessRequiresDecisionStatus(t *testing.T) {
	svc, _ := buildTestService(t)

	_, err := svc.DecideAccess(context.Background(), uuid.New(), DecideAccessInput{
		Status: enums.AccessRequestStatusPending,
	}, uuid.New())
	assertCode(t, err, pkgerrors.CodeValidation)
}

// --- test scaffolding ---

type testDeps struct {
	permissions   *stubPermissionRepo
	access        *stubAccessRepo
	users         *stubUserLoader
	flags         *stubFlagSetter
	conversations *stubConversationSyncer
	events        *stubBroadcaster
}

func buildTestService(t *testing.T) (Service, *testDeps) {
	t.Helper()
	deps := &testDeps{
		permissions:   &stubPermissionRepo{byID: map[uuid.UUID]*models.ChatPermissionRequest{}},
		access:        &stubAccessRepo{byID: map[uuid.UUID]*models.ChatAccessRequest{}},
		users:         &stubUserLoader{byID: map[uuid.UUID]*models.User{}},
		flags:         &stubFlagSetter{},
		conversations: &stubConversationSyncer{},
		events:        &stubBroadcaster{},
	}
	svc, err := NewService(ServiceParams{
		Tx:             stubTxRunner{},
		PermissionRepo: deps.permissions,
		AccessRepo:     deps.access,
		Users:          deps.users,
		Flags:          deps.flags,
		Conversations:  deps.conversations,
		Events:         deps.events,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, deps
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubPermissionRepo struct {
	byID map[uuid.UUID]*models.ChatPermissionRequest
}

func (s *stubPermissionRepo) WithTx(*gorm.DB) PermissionRequestRepository { return s }

func (s *stubPermissionRepo) Create(_ context.Context, req *models.ChatPermissionRequest) error {
	req.ID = uuid.New()
	s.byID[req.ID] = req
	return nil
}

func (s *stubPermissionRepo) FindByID(_ context.Context, id uuid.UUID) (*models.ChatPermissionRequest, error) {
	req, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *req
	return &copied, nil
}

func (s *stubPermissionRepo) FindByTriple(_ context.Context, requesterID, sellerID, listingID uuid.UUID) (*models.ChatPermissionRequest, error) {
	for _, req := range s.byID {
		if req.RequesterID == requesterID && req.SellerID == sellerID && req.ListingID == listingID {
			copied := *req
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPermissionRepo) ListByRequester(_ context.Context, requesterID uuid.UUID) ([]models.ChatPermissionRequest, error) {
	var out []models.ChatPermissionRequest
	for _, req := range s.byID {
		if req.RequesterID == requesterID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (s *stubPermissionRepo) Update(_ context.Context, req *models.ChatPermissionRequest) error {
	copied := *req
	s.byID[req.ID] = &copied
	return nil
}

type stubAccessRepo struct {
	byID map[uuid.UUID]*models.ChatAccessRequest
}

func (s *stubAccessRepo) WithTx(*gorm.DB) AccessRequestRepository { return s }

func (s *stubAccessRepo) Create(_ context.Context, req *models.ChatAccessRequest) error {
	req.ID = uuid.New()
	s.byID[req.ID] = req
	return nil
}

func (s *stubAccessRepo) FindByID(_ context.Context, id uuid.UUID) (*models.ChatAccessRequest, error) {
	req, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *req
	return &copied, nil
}

func (s *stubAccessRepo) HasPending(_ context.Context, userID uuid.UUID, jobID *uuid.UUID) (bool, error) {
	for _, req := range s.byID {
		if req.UserID != userID || req.Status != enums.AccessRequestStatusPending {
			continue
		}
		if jobID == nil && req.JobID == nil {
			return true, nil
		}
		if jobID != nil && req.JobID != nil && *jobID == *req.JobID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubAccessRepo) Update(_ context.Context, req *models.ChatAccessRequest) error {
	copied := *req
	s.byID[req.ID] = &copied
	return nil
}

type stubUserLoader struct {
	byID map[uuid.UUID]*models.User
}

func (s *stubUserLoader) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

type flagCall struct {
	userID  uuid.UUID
	allowed bool
}

type stubFlagSetter struct {
	calls []flagCall
}

func (s *stubFlagSetter) SetCanChat(_ context.Context, _ *gorm.DB, id uuid.UUID, allowed bool) error {
	s.calls = append(s.calls, flagCall{userID: id, allowed: allowed})
	return nil
}

type syncCall struct {
	listingID     uuid.UUID
	ownerID       uuid.UUID
	participantID uuid.UUID
	granted       bool
}

type stubConversationSyncer struct {
	calls []syncCall
}

func (s *stubConversationSyncer) SetPermission(_ context.Context, _ *gorm.DB, listingID, ownerID, participantID uuid.UUID, granted bool) error {
	s.calls = append(s.calls, syncCall{
		listingID:     listingID,
		ownerID:       ownerID,
		participantID: participantID,
		granted:       granted,
	})
	return nil
}

type stubBroadcaster struct {
	published []string
}

func (s *stubBroadcaster) Broadcast(_ context.Context, event string, _ any) {
	s.published = append(s.published, event)
}
