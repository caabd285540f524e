package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/mcq-engine/internal/engine"
	"github.com/stemsi/mcq-engine/internal/model"
	"github.com/stemsi/mcq-engine/internal/response"
	"github.com/stemsi/mcq-engine/internal/service"
	"github.com/stemsi/mcq-engine/internal/validator"
)

// RendererHandler exposes learner renderer sessions.
type RendererHandler struct {
	sessions *service.SessionService
}

// NewRendererHandler creates a new RendererHandler.
func NewRendererHandler(sessions *service.SessionService) *RendererHandler {
	return &RendererHandler{sessions: sessions}
}

type saveResult struct {
	Outcome engine.SaveOutcome  `json:"outcome"`
	View    engine.RendererView `json:"view"`
}

// Start godoc
// POST /api/v1/renderer/sessions
// Mounts a renderer on an activity for the calling learner.
func (h *RendererHandler) Start(c *gin.Context) {
	claims := claimsOrFail(c)
	if claims == nil {
		return
	}

	var req model.StartRendererRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if !claims.AllowsActivity(req.ActivityID) {
		response.Fail(c, http.StatusForbidden, response.ErrActivityNotAllowed)
		return
	}

	info, err := h.sessions.StartRenderer(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, info)
}

// Get godoc
// GET /api/v1/renderer/sessions/:sid
func (h *RendererHandler) Get(c *gin.Context) {
	sid, claims, ok := sessionParams(c)
	if !ok {
		return
	}
	info, err := h.sessions.RendererInfo(sid, claims.UserID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, info)
}

// Config godoc
// GET /api/v1/renderer/sessions/:sid/config
func (h *RendererHandler) Config(c *gin.Context) {
	h.read(c, func(r *engine.Renderer) any { return r.Config() })
}

// Status godoc
// GET /api/v1/renderer/sessions/:sid/status
// Reports whether any save has succeeded.
func (h *RendererHandler) Status(c *gin.Context) {
	h.read(c, func(r *engine.Renderer) any { return gin.H{"saved": r.Status()} })
}

// Report godoc
// GET /api/v1/renderer/sessions/:sid/report?skip=true
// Grading is withheld until the selection is frozen.
func (h *RendererHandler) Report(c *gin.Context) {
	skip := c.Query("skip") == "true"
	h.read(c, func(r *engine.Renderer) any {
		report := r.AnswerReport(skip)
		if !r.Frozen() {
			return report.WithoutGrading()
		}
		return report
	})
}

// Select godoc
// POST /api/v1/renderer/sessions/:sid/select
// Selects an option and sends a partial save.
func (h *RendererHandler) Select(c *gin.Context) {
	sid, claims, ok := sessionParams(c)
	if !ok {
		return
	}
	var req model.SelectOptionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	var res saveResult
	err := h.sessions.WithRenderer(sid, claims.UserID, func(r *engine.Renderer) error {
		outcome, err := r.Select(c.Request.Context(), req.OptionKey)
		if err != nil {
			return err
		}
		res = saveResult{Outcome: outcome, View: r.View()}
		return nil
	})
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// Submit godoc
// POST /api/v1/renderer/sessions/:sid/submit
// Sends the final report. The selection is frozen whatever the outcome.
func (h *RendererHandler) Submit(c *gin.Context) {
	sid, claims, ok := sessionParams(c)
	if !ok {
		return
	}

	var res saveResult
	err := h.sessions.WithRenderer(sid, claims.UserID, func(r *engine.Renderer) error {
		outcome, err := r.HandleSubmit(c.Request.Context())
		if err != nil {
			return err
		}
		res = saveResult{Outcome: outcome, View: r.View()}
		return nil
	})
	if err != nil {
		failFromError(c, err)
		return
	}
	if res.Outcome == engine.OutcomeAbandoned {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrSubmitAbandoned)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// ShowGrades godoc
// POST /api/v1/renderer/sessions/:sid/grades
// Restores the last saved report and reveals the correct answer.
func (h *RendererHandler) ShowGrades(c *gin.Context) {
	sid, claims, ok := sessionParams(c)
	if !ok {
		return
	}
	var req model.ShowGradesRequest
	if c.Request.ContentLength > 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	view, err := h.sessions.ShowGrades(c.Request.Context(), sid, claims.UserID, req.ReviewAttempt)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Close godoc
// DELETE /api/v1/renderer/sessions/:sid
func (h *RendererHandler) Close(c *gin.Context) {
	sid, claims, ok := sessionParams(c)
	if !ok {
		return
	}
	if err := h.sessions.CloseRenderer(sid, claims.UserID); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session_id": sid})
}

func (h *RendererHandler) read(c *gin.Context, fn func(r *engine.Renderer) any) {
	sid, claims, ok := sessionParams(c)
	if !ok {
		return
	}
	var out any
	err := h.sessions.WithRenderer(sid, claims.UserID, func(r *engine.Renderer) error {
		out = fn(r)
		return nil
	})
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}
