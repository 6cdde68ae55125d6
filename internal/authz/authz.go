// Package authz is the single place deciding whether an identity may perform an action
package authz

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/sharefin/internal/apperrors"
	"github.com/nkiryanov/sharefin/internal/models"
)

type Action string

const (
	ActionListOwnTransactions Action = "transactions:list-own"
	ActionCreateTransaction   Action = "transactions:create"
	ActionListAllTransactions Action = "transactions:list-all"
	ActionApproveTransaction  Action = "transactions:approve"
)

type Identity struct {
	UserID  uuid.UUID
	IsAdmin bool
}

func IdentityOf(p models.Profile) Identity {
	return Identity{UserID: p.ID, IsAdmin: p.IsAdmin}
}

var adminOnly = map[Action]bool{
	ActionListOwnTransactions: false,
	ActionCreateTransaction:   false,
	ActionListAllTransactions: true,
	ActionApproveTransaction:  true,
}

// Authorize returns nil if identity may perform action
// Unknown actions are denied
func Authorize(action Action, identity Identity) error {
	if identity.UserID == uuid.Nil {
		return apperrors.ErrSessionMissing
	}

	requiresAdmin, known := adminOnly[action]
	switch {
	case !known:
		return fmt.Errorf("unknown action %q: %w", action, apperrors.ErrActionForbidden)
	case requiresAdmin && !identity.IsAdmin:
		return fmt.Errorf("%s: %w", action, apperrors.ErrActionForbidden)
	default:
		return nil
	}
}
