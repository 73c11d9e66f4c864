package dto

import (
	"time"

	"github.com/nboard/nboard-api/internal/models"
)

// ProfileDTO represents a profile in API responses
type ProfileDTO struct {
	ID          string    `json:"id"`
	DisplayName *string   `json:"display_name"`
	Bio         *string   `json:"bio"`
	AvatarURL   *string   `json:"avatar_url"`
	Website     *string   `json:"website"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToProfileDTO(p models.Profile) ProfileDTO {
	return ProfileDTO{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		AvatarURL:   p.AvatarURL,
		Website:     p.Website,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ToProfileDTOs(profiles []models.Profile) []ProfileDTO {
	out := make([]ProfileDTO, len(profiles))
	for i, p := range profiles {
		out[i] = ToProfileDTO(p)
	}
	return out
}
