package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/sharefin/internal/apperrors"
	"github.com/nkiryanov/sharefin/internal/models"
)

func TestAuthorize(t *testing.T) {
	user := Identity{UserID: uuid.New()}
	admin := Identity{UserID: uuid.New(), IsAdmin: true}

	tests := []struct {
		name     string
		action   Action
		identity Identity
		wantErr  error
	}{
		{"user lists own", ActionListOwnTransactions, user, nil},
		{"user creates", ActionCreateTransaction, user, nil},
		{"user lists all", ActionListAllTransactions, user, apperrors.ErrForbidden},
		{"user approves", ActionApproveTransaction, user, apperrors.ErrForbidden},
		{"admin lists all", ActionListAllTransactions, admin, nil},
		{"admin approves", ActionApproveTransaction, admin, nil},
		{"unknown action", Action("transactions:delete"), admin, apperrors.ErrForbidden},
		{"anonymous", ActionListOwnTransactions, Identity{}, apperrors.ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.action, tt.identity)

			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIdentityOf(t *testing.T) {
	p := models.Profile{ID: uuid.New(), IsAdmin: true}

	require.Equal(t, Identity{UserID: p.ID, IsAdmin: true}, IdentityOf(p))
}
