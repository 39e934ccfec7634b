package accesscontrol

import (
	"github.com/polybazaar/polybazaar-backend/pkg/db/models"
	"github.com/polybazaar/polybazaar-backend/pkg/enums"
)

// Capabilities is an immutable snapshot of a user's permission flags. Callers
// never read the booleans off the user row directly; every check in the
// messaging and cart paths goes through this value so the admin override lives
// in exactly one place.
type Capabilities struct {
	CanChat          bool
	CanSell          bool
	CanBuy           bool
	IsSellerApproved bool
	Role             enums.UserRole
}

// capabilitiesFor derives the effective capabilities from a user row. Admins
// hold every capability regardless of the stored flags.
func capabilitiesFor(user *models.User) Capabilities {
	caps := Capabilities{
		CanChat:          user.CanChat,
		CanSell:          user.CanSell,
		CanBuy:           user.CanBuy,
		IsSellerApproved: user.IsSellerApproved,
		Role:             user.Role,
	}
	if user.Role == enums.UserRoleAdmin {
		caps.CanChat = true
		caps.CanSell = true
		caps.CanBuy = true
		caps.IsSellerApproved = true
	}
	return caps
}
