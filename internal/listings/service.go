package listings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/polybazaar/polybazaar-backend/internal/accesscontrol"
	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
	"github.com/polybazaar/polybazaar-backend/pkg/enums"
	pkgerrors "github.com/polybazaar/polybazaar-backend/pkg/errors"
)

// EventMachineryUpdated is broadcast after an admin approval.
const EventMachineryUpdated = "machinery_updated"

// Service manages jobs, bids and machinery listings.
type Service interface {
	CreateJob(ctx context.Context, buyerID uuid.UUID, in CreateJobInput) (*JobDTO, error)
	ListOpenJobs(ctx context.Context) ([]JobDTO, error)
	PlaceBid(ctx context.Context, sellerID, jobID uuid.UUID, in PlaceBidInput) (*BidDTO, error)
	ListBids(ctx context.Context, jobID uuid.UUID) ([]BidDTO, error)
	CreateMachinery(ctx context.Context, sellerID uuid.UUID, in CreateMachineryInput) (*MachineryDTO, error)
	ListMachinery(ctx context.Context) ([]MachineryDTO, error)
	ApproveMachinery(ctx context.Context, listingID uuid.UUID) (*MachineryDTO, error)
}

type jobStore interface {
	Create(ctx context.Context, job *models.Job) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListOpen(ctx context.Context) ([]models.Job, error)
}

type bidStore interface {
	Create(ctx context.Context, bid *models.Bid) error
	ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Bid, error)
}

type machineryStore interface {
	Create(ctx context.Context, listing *models.Machinery) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Machinery, error)
	ListApproved(ctx context.Context) ([]models.Machinery, error)
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) error
}

type capabilityReader interface {
	Capabilities(ctx context.Context, userID uuid.UUID) (accesscontrol.Capabilities, error)
}

type broadcaster interface {
	Broadcast(ctx context.Context, event string, payload any)
}

type service struct {
	jobs         jobStore
	bids         bidStore
	machinery    machineryStore
	capabilities capabilityReader
	events       broadcaster
}

// ServiceParams bundles the dependencies for the listings service.
type ServiceParams struct {
	Jobs         jobStore
	Bids         bidStore
	Machinery    machineryStore
	Capabilities capabilityReader
	Events       broadcaster
}

// NewService constructs the listings service.
func NewService(params ServiceParams) (Service, error) {
	if params.Jobs == nil {
		return nil, fmt.Errorf("job repository is required")
	}
	if params.Bids == nil {
		return nil, fmt.Errorf("bid repository is required")
	}
	if params.Machinery == nil {
		return nil, fmt.Errorf("machinery repository is required")
	}
	if params.Capabilities == nil {
		return nil, fmt.Errorf("capability reader is required")
	}
	return &service{
		jobs:         params.Jobs,
		bids:         params.Bids,
		machinery:    params.Machinery,
		capabilities: params.Capabilities,
		events:       params.Events,
	}, nil
}

func (s *service) CreateJob(ctx context.Context, buyerID uuid.UUID, in CreateJobInput) (*JobDTO, error) {
	caps, err := s.capabilities.Capabilities(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if !caps.CanBuy {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you are not allowed to buy")
	}

	job := &models.Job{
		BuyerID:     buyerID,
		Title:       in.Title,
		Description: in.Description,
		Material:    in.Material,
		Quantity:    in.Quantity,
		Status:      enums.JobStatusOpen,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create job")
	}
	return jobFromModel(job), nil
}

func (s *service) ListOpenJobs(ctx context.Context) ([]JobDTO, error) {
	jobs, err := s.jobs.ListOpen(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list jobs")
	}
	out := make([]JobDTO, 0, len(jobs))
	for i := range jobs {
		out = append(out, *jobFromModel(&jobs[i]))
	}
	return out, nil
}

// PlaceBid requires seller approval, not merely can_sell: bidding commits the
// platform to brokering the job.
func (s *service) PlaceBid(ctx context.Context, sellerID, jobID uuid.UUID, in PlaceBidInput) (*BidDTO, error) {
	caps, err := s.capabilities.Capabilities(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if !caps.IsSellerApproved {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller approval required to bid")
	}
	if in.Amount.IsNegative() || in.Amount.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "job not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load job")
	}
	if job.Status != enums.JobStatusOpen {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "job is closed for bids")
	}
	if job.BuyerID == sellerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot bid on your own job")
	}

	bid := &models.Bid{
		JobID:    jobID,
		SellerID: sellerID,
		Amount:   in.Amount,
		Note:     in.Note,
	}
	if err := s.bids.Create(ctx, bid); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create bid")
	}
	return bidFromModel(bid), nil
}

func (s *service) ListBids(ctx context.Context, jobID uuid.UUID) ([]BidDTO, error) {
	bids, err := s.bids.ListByJob(ctx, jobID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list bids")
	}
	out := make([]BidDTO, 0, len(bids))
	for i := range bids {
		out = append(out, *bidFromModel(&bids[i]))
	}
	return out, nil
}

func (s *service) CreateMachinery(ctx context.Context, sellerID uuid.UUID, in CreateMachineryInput) (*MachineryDTO, error) {
	caps, err := s.capabilities.Capabilities(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if !caps.CanSell {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "you are not allowed to sell")
	}
	if in.Price.IsNegative() || in.Price.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	listing := in.toModel(sellerID)
	if err := s.machinery.Create(ctx, listing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create machinery listing")
	}
	return machineryFromModel(listing), nil
}

func (s *service) ListMachinery(ctx context.Context) ([]MachineryDTO, error) {
	listings, err := s.machinery.ListApproved(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list machinery")
	}
	out := make([]MachineryDTO, 0, len(listings))
	for i := range listings {
		out = append(out, *machineryFromModel(&listings[i]))
	}
	return out, nil
}

func (s *service) ApproveMachinery(ctx context.Context, listingID uuid.UUID) (*MachineryDTO, error) {
	if err := s.machinery.SetApproved(ctx, listingID, true); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "machinery listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "approve machinery listing")
	}

	listing, err := s.machinery.FindByID(ctx, listingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload machinery listing")
	}

	if s.events != nil {
		s.events.Broadcast(ctx, EventMachineryUpdated, map[string]any{"id": listingID})
	}
	return machineryFromModel(listing), nil
}
