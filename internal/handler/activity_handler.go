package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/mcq-engine/internal/model"
	"github.com/stemsi/mcq-engine/internal/response"
	"github.com/stemsi/mcq-engine/internal/service"
	"github.com/stemsi/mcq-engine/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ActivityHandler handles authored activity endpoints.
type ActivityHandler struct {
	activityService *service.ActivityService
	exportService   *service.ExportService
	log             zerolog.Logger
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(activityService *service.ActivityService, exportService *service.ExportService, log zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		exportService:   exportService,
		log:             log.With().Str("component", "activity_handler").Logger(),
	}
}

// ListActivities godoc
// GET /api/v1/activities
// Lists the caller's activities with pagination.
func (h *ActivityHandler) ListActivities(c *gin.Context) {
	claims := claimsOrFail(c)
	if claims == nil {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	activities, pagination, err := h.activityService.List(c.Request.Context(), claims.UserID, page, perPage)
	if err != nil {
		h.log.Error().Err(err).Msg("List activities failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"activities": activities}, pagination)
}

// GetActivity godoc
// GET /api/v1/activities/:id
func (h *ActivityHandler) GetActivity(c *gin.Context) {
	claims := claimsOrFail(c)
	if claims == nil {
		return
	}
	id, ok := activityID(c)
	if !ok {
		return
	}

	activity, err := h.activityService.GetOwned(c.Request.Context(), id, claims.UserID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"activity": activity})
}

// CreateActivity godoc
// POST /api/v1/activities
func (h *ActivityHandler) CreateActivity(c *gin.Context) {
	claims := claimsOrFail(c)
	if claims == nil {
		return
	}

	var req model.CreateActivityRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	activity, err := h.activityService.Create(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"activity": activity})
}

// UpdateActivity godoc
// PUT /api/v1/activities/:id
func (h *ActivityHandler) UpdateActivity(c *gin.Context) {
	claims := claimsOrFail(c)
	if claims == nil {
		return
	}
	id, ok := activityID(c)
	if !ok {
		return
	}

	var req model.UpdateActivityRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	activity, err := h.activityService.Update(c.Request.Context(), id, claims.UserID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"activity": activity})
}

// DeleteActivity godoc
// DELETE /api/v1/activities/:id
func (h *ActivityHandler) DeleteActivity(c *gin.Context) {
	claims := claimsOrFail(c)
	if claims == nil {
		return
	}
	id, ok := activityID(c)
	if !ok {
		return
	}

	if err := h.activityService.Delete(c.Request.Context(), id, claims.UserID); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id})
}

// ExportResults godoc
// GET /api/v1/activities/:id/results.xlsx
// Downloads every learner result of the activity as a workbook.
func (h *ActivityHandler) ExportResults(c *gin.Context) {
	claims := claimsOrFail(c)
	if claims == nil {
		return
	}
	id, ok := activityID(c)
	if !ok {
		return
	}

	activity, err := h.activityService.GetOwned(c.Request.Context(), id, claims.UserID)
	if err != nil {
		failFromError(c, err)
		return
	}

	data, err := h.exportService.ExportResults(c.Request.Context(), activity)
	if err != nil {
		h.log.Error().Err(err).Str("activity_id", id.String()).Msg("Export failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="results-%s.xlsx"`, id))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func activityID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
