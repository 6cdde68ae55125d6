package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/sharefin/internal/logger"
)

func TestStore(t *testing.T) {
	newStore := func(t *testing.T) *Store {
		return New(filepath.Join(t.TempDir(), "sharefin", "state.json"), logger.NewNoOpLogger())
	}

	t.Run("missing file is empty state", func(t *testing.T) {
		s := newStore(t)

		require.Equal(t, State{}, s.Load())
	})

	t.Run("corrupt file is empty state", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o700))
		require.NoError(t, os.WriteFile(s.Path(), []byte(`{"display_name": `), 0o600))

		require.Equal(t, State{}, s.Load())
	})

	t.Run("save and load", func(t *testing.T) {
		s := newStore(t)
		st := State{
			DisplayName:            "Nikita",
			WelcomePromptCompleted: true,
			User:                   &User{ID: uuid.New(), Username: "nk"},
			Session: &Session{
				AccessToken:  "access",
				RefreshToken: "refresh",
				ExpiresAt:    time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
			},
		}

		require.NoError(t, s.Save(st))

		require.Equal(t, st, s.Load())

		info, err := os.Stat(s.Path())
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		entries, err := os.ReadDir(filepath.Dir(s.Path()))
		require.NoError(t, err)
		require.Len(t, entries, 1, "temp file should not be left")
	})

	t.Run("update keeps other fields", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Save(State{DisplayName: "Nikita"}))

		err := s.Update(func(st *State) {
			st.Session = &Session{AccessToken: "access"}
		})
		require.NoError(t, err)

		st := s.Load()
		require.Equal(t, "Nikita", st.DisplayName)
		require.Equal(t, "access", st.Session.AccessToken)
	})
}
