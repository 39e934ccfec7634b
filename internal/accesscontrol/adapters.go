package accesscontrol

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/polybazaar/polybazaar-backend/internal/users"
)

// UserFlagWriter adapts the users repository to the transactional flag-setter
// interface the service expects.
type UserFlagWriter struct {
	Repo *users.Repository
}

func (w UserFlagWriter) SetCanChat(ctx context.Context, tx *gorm.DB, id uuid.UUID, allowed bool) error {
	return w.Repo.WithTx(tx).SetCanChat(ctx, id, allowed)
}
