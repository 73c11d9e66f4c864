package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/nboard/nboard-api/internal/models"
	"github.com/nboard/nboard-api/internal/repository"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileService handles profile business logic. Profiles are created
// out of band at account provisioning; this service only reads and
// updates them.
type ProfileService struct {
	profileRepo repository.ProfileRepository
}

// NewProfileService creates a new ProfileService
func NewProfileService(profileRepo repository.ProfileRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo}
}

// UpdateProfileInput represents a partial profile update. Nil pointer
// fields were not supplied; Clear flags record an explicit null.
type UpdateProfileInput struct {
	DisplayName      *string
	ClearDisplayName bool
	Bio              *string
	ClearBio         bool
	AvatarURL        *string
	ClearAvatarURL   bool
	Website          *string
	ClearWebsite     bool
}

// GetProfile returns the profile owned by the given identity
func (s *ProfileService) GetProfile(userID string) (*models.Profile, error) {
	profile, err := s.profileRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	return profile, nil
}

// ListProfiles returns all profiles, newest first
func (s *ProfileService) ListProfiles() ([]models.Profile, error) {
	profiles, err := s.profileRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// UpdateProfile applies a partial update to the caller's own profile.
// Only the owner reaches this path; the handler derives the ID from the
// verified identity, never from the request body.
func (s *ProfileService) UpdateProfile(userID string, input UpdateProfileInput) (*models.Profile, error) {
	fields := map[string]any{}

	applyField(fields, "display_name", input.DisplayName, input.ClearDisplayName)
	applyField(fields, "bio", input.Bio, input.ClearBio)
	applyField(fields, "avatar_url", input.AvatarURL, input.ClearAvatarURL)
	applyField(fields, "website", input.Website, input.ClearWebsite)

	if len(fields) > 0 {
		if err := s.profileRepo.UpdateFields(userID, fields); err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}

	return s.GetProfile(userID)
}

func applyField(fields map[string]any, column string, value *string, clear bool) {
	if clear {
		fields[column] = nil
		return
	}
	if value != nil {
		fields[column] = *value
	}
}
