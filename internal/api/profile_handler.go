package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/conduit-api/internal/models"
	"github.com/conduit-api/internal/service"
)

// ProfileHandler handles profile and follow endpoints
type ProfileHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(services *service.Services, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		services: services,
		log:      log.With().Str("handler", "profile").Logger(),
	}
}

// Get handles GET /api/profiles/:username
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.services.Profile.GetProfile(c.Request.Context(), c.Param("username"), currentUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.ProfileResponse{Profile: *profile})
}

// Follow handles POST /api/profiles/:username/follow
func (h *ProfileHandler) Follow(c *gin.Context) {
	profile, err := h.services.Profile.Follow(c.Request.Context(), currentUserID(c), c.Param("username"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.ProfileResponse{Profile: *profile})
}

// Unfollow handles DELETE /api/profiles/:username/follow
func (h *ProfileHandler) Unfollow(c *gin.Context) {
	profile, err := h.services.Profile.Unfollow(c.Request.Context(), currentUserID(c), c.Param("username"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, models.ProfileResponse{Profile: *profile})
}
