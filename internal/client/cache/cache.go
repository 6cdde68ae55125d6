package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/sharefin/internal/logger"
)

const fileMode = 0o600

type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	IsAdmin  bool      `json:"is_admin"`
}

type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// State kept between runs of the client
// It is never authoritative: the server owns every value here except the display name
type State struct {
	DisplayName            string   `json:"display_name,omitempty"`
	WelcomePromptCompleted bool     `json:"welcome_prompt_completed"`
	User                   *User    `json:"user,omitempty"`
	Session                *Session `json:"session,omitempty"`
}

type Store struct {
	path   string
	logger logger.Logger

	mu sync.Mutex
}

func New(path string, l logger.Logger) *Store {
	return &Store{path: path, logger: l}
}

// Default location of the state file: '<user config dir>/sharefin/state.json'
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("can't find config dir. Err: %w", err)
	}
	return filepath.Join(dir, "sharefin", "state.json"), nil
}

func (s *Store) Path() string {
	return s.path
}

// Load state from file
// Missing or corrupt file is loaded as empty state
func (s *Store) Load() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

// Save state atomically: write temp file and rename it over the old one
func (s *Store) Save(st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(st)
}

// Load, modify and save state holding the lock
func (s *Store) Update(fn func(st *State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load()
	fn(&st)
	return s.save(st)
}

func (s *Store) load() State {
	var st State

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return st
	case err != nil:
		s.logger.Warn("can't read state file, starting with empty state", "path", s.path, "error", err)
		return st
	}

	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn("state file is corrupt, starting with empty state", "path", s.path, "error", err)
		return State{}
	}
	return st
}

func (s *Store) save(st State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("can't encode state. Err: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("can't create state dir. Err: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("can't create temp state file. Err: %w", err)
	}
	defer os.Remove(tmp.Name()) // nolint:errcheck

	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("can't set state file mode. Err: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("can't write state file. Err: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("can't sync state file. Err: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("can't close state file. Err: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("can't replace state file. Err: %w", err)
	}
	return nil
}
