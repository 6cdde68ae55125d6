package profile

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/sharefin/internal/models"
	"github.com/nkiryanov/sharefin/internal/repository"
)

type ProfileService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *ProfileService {
	return &ProfileService{storage: storage}
}

func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	return s.storage.Profile().GetProfile(ctx, userID, false)
}

// Update descriptive fields present in d
// Balance fields are owned by the approval workflow and never changed here
func (s *ProfileService) UpdateDetails(ctx context.Context, userID uuid.UUID, d models.ProfileDetails) (models.Profile, error) {
	d.FullName = trimmed(d.FullName)
	d.AvatarURL = trimmed(d.AvatarURL)
	return s.storage.Profile().UpdateDetails(ctx, userID, d)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
