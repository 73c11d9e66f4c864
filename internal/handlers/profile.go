package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nboard/nboard-api/internal/apierrors"
	"github.com/nboard/nboard-api/internal/dto"
	"github.com/nboard/nboard-api/internal/middleware"
	"github.com/nboard/nboard-api/internal/services"
)

// ProfileHandler coordinates profile HTTP handlers.
type ProfileHandler struct {
	profileService *services.ProfileService
	log            zerolog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService *services.ProfileService, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		log:            log,
	}
}

// GetProfile returns the authenticated caller's own profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	profile, err := h.profileService.GetProfile(userID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			apierrors.NotFound(c, "Profile not found")
			return
		}
		h.log.Error().Err(err).Msg("profile fetch failed")
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, dto.ToProfileDTO(*profile))
}

// UpdateProfile applies a partial update to the caller's own profile.
// The profile ID always comes from the verified identity.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var input services.UpdateProfileInput
	fields := []struct {
		key   string
		value **string
		clear *bool
	}{
		{"display_name", &input.DisplayName, &input.ClearDisplayName},
		{"bio", &input.Bio, &input.ClearBio},
		{"avatar_url", &input.AvatarURL, &input.ClearAvatarURL},
		{"website", &input.Website, &input.ClearWebsite},
	}
	for _, f := range fields {
		v, present := raw[f.key]
		if !present {
			continue
		}
		switch s := v.(type) {
		case nil:
			*f.clear = true
		case string:
			*f.value = &s
		default:
			apierrors.BadRequest(c, f.key+" must be a string")
			return
		}
	}

	profile, err := h.profileService.UpdateProfile(userID, input)
	if err != nil {
		h.log.Error().Err(err).Msg("profile update failed")
		apierrors.InternalError(c, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, dto.ToProfileDTO(*profile))
}

// ListUsers returns all community profiles, newest first. This endpoint
// is public.
func (h *ProfileHandler) ListUsers(c *gin.Context) {
	profiles, err := h.profileService.ListProfiles()
	if err != nil {
		h.log.Error().Err(err).Msg("profiles fetch failed")
		apierrors.InternalError(c, "Failed to fetch profiles")
		return
	}

	c.JSON(http.StatusOK, gin.H{"profiles": dto.ToProfileDTOs(profiles)})
}
