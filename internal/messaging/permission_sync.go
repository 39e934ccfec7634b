package messaging

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
	"github.com/polybazaar/polybazaar-backend/pkg/enums"
)

// machineryLoader resolves a machinery listing, used only for thread titles.
type machineryLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Machinery, error)
}

// PermissionSync mirrors chat-permission decisions onto machinery
// conversation rows. The access-control service calls it inside its decision
// transaction.
type PermissionSync struct {
	Conversations ConversationRepository
	Machinery     machineryLoader
}

// SetPermission upserts the thread with the grant on approval and flips the
// flag off on revocation. Revoking when no thread exists is a no-op.
func (p PermissionSync) SetPermission(ctx context.Context, tx *gorm.DB, listingID, ownerID, participantID uuid.UUID, granted bool) error {
	repo := p.Conversations.WithTx(tx)

	conv, err := repo.FindByThreadKey(ctx, enums.ListingKindMachinery, listingID, ownerID, participantID)
	if err == nil {
		return repo.SetPermissionGranted(ctx, conv.ID, granted)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if !granted {
		return nil
	}

	title := "Machinery listing"
	if p.Machinery != nil {
		if listing, err := p.Machinery.FindByID(ctx, listingID); err == nil {
			title = listing.Title
		}
	}

	return repo.Create(ctx, &models.Conversation{
		ListingKind:       enums.ListingKindMachinery,
		ListingID:         listingID,
		OwnerID:           ownerID,
		ParticipantID:     participantID,
		Title:             title,
		PermissionGranted: true,
	})
}
