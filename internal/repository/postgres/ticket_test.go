package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/sharefin/internal/models"
	"github.com/nkiryanov/sharefin/internal/testutil"
)

func Test_TicketRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create and list", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := TicketRepo{DB: tx}
			p := createProfile(t, tx, "alice", "")

			created, err := r.CreateTicket(t.Context(), models.SupportTicket{
				UserID:      p.ID,
				Subject:     "Withdrawal is stuck",
				Description: "It is pending for two days",
				Priority:    models.TicketPriorityHigh,
			})
			require.NoError(t, err)
			assert.Equal(t, models.TicketStatusOpen, created.Status)

			got, err := r.ListTickets(t.Context(), p.ID)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, created, got[0])
		})
	})

	t.Run("priority is checked by db", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			r := TicketRepo{DB: tx}
			p := createProfile(t, tx, "alice", "")

			_, err := r.CreateTicket(t.Context(), models.SupportTicket{UserID: p.ID, Subject: "x", Priority: "urgent"})

			require.Error(t, err)
		})
	})
}
