package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/mcq-engine/internal/engine"
	"github.com/stemsi/mcq-engine/internal/middleware"
	"github.com/stemsi/mcq-engine/internal/model"
	"github.com/stemsi/mcq-engine/internal/repository"
	"github.com/stemsi/mcq-engine/internal/response"
	"github.com/stemsi/mcq-engine/internal/service"
)

var errMappings = response.ErrorMap{
	{repository.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrSessionNotFound, http.StatusNotFound, response.ErrSessionNotFound},
	{service.ErrSessionForbidden, http.StatusForbidden, response.ErrForbidden},
	{service.ErrNotActivityAuthor, http.StatusForbidden, response.ErrNotActivityAuthor},
	{service.ErrNoSavedResult, http.StatusNotFound, response.ErrNoSavedResult},
	{service.ErrInvalidContent, http.StatusBadRequest, response.ErrInvalidContent},
	{model.ErrMalformedOption, http.StatusBadRequest, response.ErrInvalidContent},
	{model.ErrDuplicateOptionKey, http.StatusBadRequest, response.ErrInvalidContent},
	{engine.ErrUnknownLayout, http.StatusBadRequest, response.ErrUnknownLayout},
	{engine.ErrNotMounted, http.StatusConflict, response.ErrNotMounted},
	{engine.ErrNoQuestion, http.StatusConflict, response.ErrNoQuestion},
	{engine.ErrSelectionFrozen, http.StatusConflict, response.ErrSelectionFrozen},
	{engine.ErrUnknownOption, http.StatusBadRequest, response.ErrUnknownOption},
	{engine.ErrUnknownInteraction, http.StatusBadRequest, response.ErrOutOfRange},
	{engine.ErrUnknownQuestion, http.StatusBadRequest, response.ErrOutOfRange},
	{engine.ErrOutOfRange, http.StatusBadRequest, response.ErrOutOfRange},
	{context.DeadlineExceeded, http.StatusServiceUnavailable, response.ErrShellUnavailable},
}

// failFromError maps domain errors onto the response envelope.
func failFromError(c *gin.Context, err error) {
	response.FailFromError(c, err, errMappings)
}

func classify(err error) (int, response.ErrCode) {
	return errMappings.Classify(err)
}

// sessionParams parses :sid and the caller's user id. It writes the failure response itself.
func sessionParams(c *gin.Context) (uuid.UUID, *service.Claims, bool) {
	claims := claimsOrFail(c)
	if claims == nil {
		return uuid.Nil, nil, false
	}
	sid, err := uuid.Parse(c.Param("sid"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, nil, false
	}
	return sid, claims, true
}

func indexParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n < 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrOutOfRange)
		return 0, false
	}
	return n, true
}

func claimsOrFail(c *gin.Context) *service.Claims {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
	}
	return claims
}
