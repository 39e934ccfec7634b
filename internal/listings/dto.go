package listings

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
	"github.com/polybazaar/polybazaar-backend/pkg/enums"
)

// CreateJobInput is the payload for posting a processing job.
type CreateJobInput struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description,omitempty"`
	Material    *string `json:"material,omitempty"`
	Quantity    *int    `json:"quantity,omitempty" validate:"omitempty,gt=0"`
}

// PlaceBidInput is the payload for bidding on a job.
type PlaceBidInput struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Note   *string         `json:"note,omitempty"`
}

// CreateMachineryInput is the payload for listing equipment.
type CreateMachineryInput struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Condition   *string         `json:"condition,omitempty"`
	Images      []string        `json:"images,omitempty" validate:"max=10,dive,url"`
}

// JobDTO is the transport shape of a job.
type JobDTO struct {
	ID          uuid.UUID       `json:"id"`
	BuyerID     uuid.UUID       `json:"buyer_id"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Material    *string         `json:"material,omitempty"`
	Quantity    *int            `json:"quantity,omitempty"`
	Status      enums.JobStatus `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// BidDTO is the transport shape of a bid.
type BidDTO struct {
	ID        uuid.UUID       `json:"id"`
	JobID     uuid.UUID       `json:"job_id"`
	SellerID  uuid.UUID       `json:"seller_id"`
	Amount    decimal.Decimal `json:"amount"`
	Note      *string         `json:"note,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// MachineryDTO is the transport shape of an equipment listing.
type MachineryDTO struct {
	ID          uuid.UUID       `json:"id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Condition   *string         `json:"condition,omitempty"`
	Images      []string        `json:"images"`
	IsApproved  bool            `json:"is_approved"`
	CreatedAt   time.Time       `json:"created_at"`
}

func jobFromModel(j *models.Job) *JobDTO {
	if j == nil {
		return nil
	}
	return &JobDTO{
		ID:          j.ID,
		BuyerID:     j.BuyerID,
		Title:       j.Title,
		Description: j.Description,
		Material:    j.Material,
		Quantity:    j.Quantity,
		Status:      j.Status,
		CreatedAt:   j.CreatedAt,
	}
}

func bidFromModel(b *models.Bid) *BidDTO {
	if b == nil {
		return nil
	}
	return &BidDTO{
		ID:        b.ID,
		JobID:     b.JobID,
		SellerID:  b.SellerID,
		Amount:    b.Amount,
		Note:      b.Note,
		CreatedAt: b.CreatedAt,
	}
}

func machineryFromModel(m *models.Machinery) *MachineryDTO {
	if m == nil {
		return nil
	}
	return &MachineryDTO{
		ID:          m.ID,
		SellerID:    m.SellerID,
		Title:       m.Title,
		Description: m.Description,
		Price:       m.Price,
		Condition:   m.Condition,
		Images:      append([]string{}, m.Images...),
		IsApproved:  m.IsApproved,
		CreatedAt:   m.CreatedAt,
	}
}

func (in CreateMachineryInput) toModel(sellerID uuid.UUID) *models.Machinery {
	return &models.Machinery{
		SellerID:    sellerID,
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		Condition:   in.Condition,
		Images:      pq.StringArray(in.Images),
	}
}
