package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/mcq-engine/internal/model"
	"github.com/stemsi/mcq-engine/internal/response"
	"github.com/stemsi/mcq-engine/internal/service"
	"github.com/stemsi/mcq-engine/internal/validator"
)

// LaunchHandler issues launch tokens to shells.
type LaunchHandler struct {
	authService *service.AuthService
	log         zerolog.Logger
}

// NewLaunchHandler creates a new LaunchHandler.
func NewLaunchHandler(authService *service.AuthService, log zerolog.Logger) *LaunchHandler {
	return &LaunchHandler{
		authService: authService,
		log:         log.With().Str("component", "launch_handler").Logger(),
	}
}

// Launch godoc
// POST /api/v1/launch
// Exchanges the shell key for a learner or author launch token.
func (h *LaunchHandler) Launch(c *gin.Context) {
	var req model.LaunchRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.authService.CheckShellKey(req.ShellKey); err != nil {
		if errors.Is(err, service.ErrShellKeyNotSet) {
			h.log.Error().Msg("SHELL_KEY_HASH is not configured, refusing launch")
			response.Fail(c, http.StatusServiceUnavailable, response.ErrShellKeyNotSet)
			return
		}
		h.log.Warn().Str("ip", c.ClientIP()).Msg("Launch with invalid shell key")
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidShellKey)
		return
	}

	token, expiresAt, err := h.authService.GenerateToken(service.TokenType(req.TokenType), req.UserID, req.ActivityID)
	if err != nil {
		h.log.Error().Err(err).Msg("Token generation failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, model.LaunchResponse{Token: token, ExpiresAt: expiresAt})
}
