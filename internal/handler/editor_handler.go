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

// EditorHandler exposes author editor sessions.
type EditorHandler struct {
	sessions *service.SessionService
}

// NewEditorHandler creates a new EditorHandler.
func NewEditorHandler(sessions *service.SessionService) *EditorHandler {
	return &EditorHandler{sessions: sessions}
}

// Start godoc
// POST /api/v1/editor/sessions
func (h *EditorHandler) Start(c *gin.Context) {
	claims := claimsOrFail(c)
	if claims == nil {
		return
	}

	var req model.StartEditorRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if !claims.AllowsActivity(req.ActivityID) {
		response.Fail(c, http.StatusForbidden, response.ErrActivityNotAllowed)
		return
	}

	info, err := h.sessions.StartEditor(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, info)
}

// Get godoc
// GET /api/v1/editor/sessions/:sid
func (h *EditorHandler) Get(c *gin.Context) {
	sid, claims, ok := sessionParams(c)
	if !ok {
		return
	}
	info, err := h.sessions.EditorInfo(sid, claims.UserID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, info)
}

// Config godoc
// GET /api/v1/editor/sessions/:sid/config
func (h *EditorHandler) Config(c *gin.Context) {
	h.read(c, func(e *engine.Editor) (any, error) { return e.Config(), nil })
}

// Status godoc
// GET /api/v1/editor/sessions/:sid/status
// Reports whether there are unsaved changes.
func (h *EditorHandler) Status(c *gin.Context) {
	h.read(c, func(e *engine.Editor) (any, error) {
		return gin.H{"has_unsaved_changes": e.Status()}, nil
	})
}

// Document godoc
// GET /api/v1/editor/sessions/:sid/document
// Returns the working document re-serialised to its authored form.
func (h *EditorHandler) Document(c *gin.Context) {
	h.read(c, func(e *engine.Editor) (any, error) { return e.Transform() })
}

// AddOption godoc
// POST /api/v1/editor/sessions/:sid/interactions/:ii/options
func (h *EditorHandler) AddOption(c *gin.Context) {
	ii, ok := indexParam(c, "ii")
	if !ok {
		return
	}
	h.mutate(c, http.StatusCreated, func(e *engine.Editor) error {
		_, err := e.AddOption(c.Request.Context(), ii)
		return err
	})
}

// EditOption godoc
// PUT /api/v1/editor/sessions/:sid/interactions/:ii/options/:oi
// Replaces an option's text while it is being edited.
func (h *EditorHandler) EditOption(c *gin.Context) {
	ii, oi, ok := optionParams(c)
	if !ok {
		return
	}
	var req model.EditTextRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.mutate(c, http.StatusOK, func(e *engine.Editor) error {
		return e.EditOptionText(ii, oi, req.Text)
	})
}

// RemoveOption godoc
// DELETE /api/v1/editor/sessions/:sid/interactions/:ii/options/:oi
func (h *EditorHandler) RemoveOption(c *gin.Context) {
	ii, oi, ok := optionParams(c)
	if !ok {
		return
	}
	h.mutate(c, http.StatusOK, func(e *engine.Editor) error {
		return e.RemoveOption(c.Request.Context(), ii, oi)
	})
}

// ToggleOption godoc
// POST /api/v1/editor/sessions/:sid/interactions/:ii/options/:oi/toggle
func (h *EditorHandler) ToggleOption(c *gin.Context) {
	ii, oi, ok := optionParams(c)
	if !ok {
		return
	}
	h.mutate(c, http.StatusOK, func(e *engine.Editor) error {
		_, err := e.ToggleEditing(ii, oi)
		return err
	})
}

// BlurOption godoc
// POST /api/v1/editor/sessions/:sid/interactions/:ii/options/:oi/blur
func (h *EditorHandler) BlurOption(c *gin.Context) {
	ii, oi, ok := optionParams(c)
	if !ok {
		return
	}
	h.mutate(c, http.StatusOK, func(e *engine.Editor) error {
		return e.EndEditing(c.Request.Context(), ii, oi)
	})
}

// MoveOption godoc
// POST /api/v1/editor/sessions/:sid/interactions/:ii/move
func (h *EditorHandler) MoveOption(c *gin.Context) {
	ii, ok := indexParam(c, "ii")
	if !ok {
		return
	}
	var req model.MoveOptionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.mutate(c, http.StatusOK, func(e *engine.Editor) error {
		return e.MoveOption(c.Request.Context(), ii, *req.From, *req.To)
	})
}

// SetCorrect godoc
// PUT /api/v1/editor/sessions/:sid/interactions/:ii/correct
func (h *EditorHandler) SetCorrect(c *gin.Context) {
	ii, ok := indexParam(c, "ii")
	if !ok {
		return
	}
	var req model.SetCorrectRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.mutate(c, http.StatusOK, func(e *engine.Editor) error {
		return e.SetCorrect(c.Request.Context(), ii, req.OptionKey)
	})
}

// EditQuestion godoc
// PUT /api/v1/editor/sessions/:sid/questions/:qi
func (h *EditorHandler) EditQuestion(c *gin.Context) {
	qi, ok := indexParam(c, "qi")
	if !ok {
		return
	}
	var req model.EditTextRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	h.mutate(c, http.StatusOK, func(e *engine.Editor) error {
		return e.EditQuestionText(qi, req.Text)
	})
}

// ToggleQuestion godoc
// POST /api/v1/editor/sessions/:sid/questions/:qi/toggle
func (h *EditorHandler) ToggleQuestion(c *gin.Context) {
	qi, ok := indexParam(c, "qi")
	if !ok {
		return
	}
	h.mutate(c, http.StatusOK, func(e *engine.Editor) error {
		_, err := e.ToggleQuestionEditing(qi)
		return err
	})
}

// BlurQuestion godoc
// POST /api/v1/editor/sessions/:sid/questions/:qi/blur
func (h *EditorHandler) BlurQuestion(c *gin.Context) {
	qi, ok := indexParam(c, "qi")
	if !ok {
		return
	}
	h.mutate(c, http.StatusOK, func(e *engine.Editor) error {
		return e.EndQuestionEditing(c.Request.Context(), qi)
	})
}

// Save godoc
// POST /api/v1/editor/sessions/:sid/save
// Queues the working document for persistence.
func (h *EditorHandler) Save(c *gin.Context) {
	h.mutate(c, http.StatusAccepted, func(e *engine.Editor) error {
		return e.SaveItemInEditor(c.Request.Context())
	})
}

// Close godoc
// DELETE /api/v1/editor/sessions/:sid
func (h *EditorHandler) Close(c *gin.Context) {
	sid, claims, ok := sessionParams(c)
	if !ok {
		return
	}
	if err := h.sessions.CloseEditor(sid, claims.UserID); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session_id": sid})
}

func (h *EditorHandler) read(c *gin.Context, fn func(e *engine.Editor) (any, error)) {
	sid, claims, ok := sessionParams(c)
	if !ok {
		return
	}
	var out any
	err := h.sessions.WithEditor(sid, claims.UserID, func(e *engine.Editor) error {
		var err error
		out, err = fn(e)
		return err
	})
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// mutate applies fn and answers with the resulting editor view.
func (h *EditorHandler) mutate(c *gin.Context, status int, fn func(e *engine.Editor) error) {
	sid, claims, ok := sessionParams(c)
	if !ok {
		return
	}
	var view engine.EditorView
	err := h.sessions.WithEditor(sid, claims.UserID, func(e *engine.Editor) error {
		if err := fn(e); err != nil {
			return err
		}
		view = e.View()
		return nil
	})
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, status, view)
}

func optionParams(c *gin.Context) (int, int, bool) {
	ii, ok := indexParam(c, "ii")
	if !ok {
		return 0, 0, false
	}
	oi, ok := indexParam(c, "oi")
	if !ok {
		return 0, 0, false
	}
	return ii, oi, true
}
