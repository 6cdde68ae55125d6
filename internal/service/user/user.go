package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/sharefin/internal/apperrors"
	"github.com/nkiryanov/sharefin/internal/models"
	"github.com/nkiryanov/sharefin/internal/repository"
)

type UserService struct {
	hasher  PasswordHasher
	storage repository.Storage
}

func NewService(hasher PasswordHasher, storage repository.Storage) *UserService {
	if hasher == nil {
		hasher = DefaultHasher
	}

	return &UserService{
		hasher:  hasher,
		storage: storage,
	}
}

// Create user together with the zero balance profile
func (s *UserService) CreateUser(ctx context.Context, username string, password string, fullName string) (models.User, error) {
	var user models.User

	if password == "" {
		return user, apperrors.ErrPasswordEmpty
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	err = s.storage.InTx(ctx, func(storage repository.Storage) error {
		user, err = storage.User().CreateUser(ctx, username, hash)
		if err != nil {
			return err
		}

		_, err = storage.Profile().CreateProfile(ctx, user.ID, fullName)
		return err
	})
	if err != nil {
		return models.User{}, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}

// Check user credentials
// Unknown user and wrong password are indistinguishable to the caller
func (s *UserService) Login(ctx context.Context, username string, password string) (models.User, error) {
	user, err := s.storage.User().GetUserByUsername(ctx, username)

	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		// Spend the same time as for existing user
		_, _ = s.hasher.Hash(password)
		return user, apperrors.ErrUserNotFound
	case err != nil:
		return user, fmt.Errorf("can't get user. Err: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, apperrors.ErrUserNotFound
	}

	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, userID)
}

// Grant admin role to users with the usernames
// Unknown usernames are skipped, they may register later
func (s *UserService) PromoteAdmins(ctx context.Context, usernames []string) (promoted []string, err error) {
	for _, username := range usernames {
		user, err := s.storage.User().GetUserByUsername(ctx, username)
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			continue
		case err != nil:
			return promoted, fmt.Errorf("can't get user %q. Err: %w", username, err)
		}

		if err := s.storage.Profile().SetAdmin(ctx, user.ID, true); err != nil {
			return promoted, fmt.Errorf("can't promote user %q. Err: %w", username, err)
		}
		promoted = append(promoted, username)
	}

	return promoted, nil
}
