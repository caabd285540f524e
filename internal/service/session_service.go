package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/mcq-engine/internal/config"
	"github.com/stemsi/mcq-engine/internal/engine"
	"github.com/stemsi/mcq-engine/internal/model"
	"github.com/stemsi/mcq-engine/internal/shell"
)

// Session errors
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionForbidden = errors.New("session belongs to another user")
)

const evictInterval = time.Minute

// DocumentLoader loads the content document of an activity.
type DocumentLoader interface {
	LoadDocument(ctx context.Context, id uuid.UUID) (*model.Document, error)
}

// ReportLoader loads a learner's last saved report.
type ReportLoader interface {
	LastReport(ctx context.Context, activityID uuid.UUID, userID string) (*model.SavedReport, error)
}

// AdaptorFactory builds the host adaptors handed to engines.
type AdaptorFactory interface {
	RendererAdaptor(b shell.Binding) engine.RendererAdaptor
	EditorAdaptor(b shell.Binding) engine.EditorAdaptor
}

type session struct {
	id         uuid.UUID
	activityID uuid.UUID
	userID     string

	mu       sync.Mutex
	lastSeen time.Time
}

type rendererSession struct {
	*session
	renderer *engine.Renderer
}

type editorSession struct {
	*session
	editor *engine.Editor
}

// SessionService keeps one engine instance per mounted session. Calls on the same
// session are serialized.
type SessionService struct {
	docs     DocumentLoader
	reports  ReportLoader
	adaptors AdaptorFactory
	cfg      *config.Config
	log      zerolog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	renderers map[uuid.UUID]*rendererSession
	editors   map[uuid.UUID]*editorSession
}

// NewSessionService creates a new SessionService.
func NewSessionService(docs DocumentLoader, reports ReportLoader, adaptors AdaptorFactory, cfg *config.Config, log zerolog.Logger) *SessionService {
	return &SessionService{
		docs:      docs,
		reports:   reports,
		adaptors:  adaptors,
		cfg:       cfg,
		log:       log.With().Str("component", "session_service").Logger(),
		now:       time.Now,
		renderers: make(map[uuid.UUID]*rendererSession),
		editors:   make(map[uuid.UUID]*editorSession),
	}
}

func (s *SessionService) engineOptions() []engine.Option {
	return []engine.Option{
		engine.WithLogger(s.log),
		engine.WithInteractionReference(s.cfg.InteractionReference),
		engine.WithMaxRetries(s.cfg.MaxSubmitRetries),
	}
}

func (s *SessionService) newSession(activityID uuid.UUID, userID string) *session {
	return &session{
		id:         uuid.New(),
		activityID: activityID,
		userID:     userID,
		lastSeen:   s.now(),
	}
}

func (s *SessionService) info(sess *session, mounted bool, view any) *model.SessionInfo {
	return &model.SessionInfo{
		SessionID:  sess.id,
		ActivityID: sess.activityID,
		Mounted:    mounted,
		ExpiresAt:  sess.lastSeen.Add(s.cfg.SessionIdleTimeout),
		View:       view,
	}
}

// ─── Renderer ──────────────────────────────────────────────────────

// StartRenderer mounts a renderer for a learner. A previously saved report is restored
// into the new session.
func (s *SessionService) StartRenderer(ctx context.Context, userID string, req *model.StartRendererRequest) (*model.SessionInfo, error) {
	doc, err := s.docs.LoadDocument(ctx, req.ActivityID)
	if err != nil {
		return nil, err
	}

	layout := req.Layout
	if layout == "" {
		layout = model.LayoutMCQ
	}
	displaySubmit := true
	if req.DisplaySubmit != nil {
		displaySubmit = *req.DisplaySubmit
	}

	sess := s.newSession(req.ActivityID, userID)
	adaptor := s.adaptors.RendererAdaptor(shell.Binding{
		ActivityID:    req.ActivityID.String(),
		UserID:        userID,
		SessionID:     sess.id.String(),
		DisplaySubmit: displaySubmit,
		ShowAnswers:   req.ShowAnswers,
	})
	params := model.EngineParams{
		EngineType:            req.EngineType,
		QuestionMediaBasePath: s.cfg.MediaBasePath,
		ActivityRef:           req.ActivityRef,
	}

	r := engine.NewRenderer(s.engineOptions()...)
	if err := r.Init(params, adaptor, layout, doc); err != nil {
		return nil, err
	}

	if r.Mounted() {
		last, err := s.reports.LastReport(ctx, req.ActivityID, userID)
		switch {
		case err == nil:
			if err := r.UpdateLastSavedResults(last.Report); err != nil {
				return nil, err
			}
			if last.Final {
				if err := r.Freeze(); err != nil {
					return nil, err
				}
			}
		case !errors.Is(err, ErrNoSavedResult):
			s.log.Warn().Err(err).Str("user_id", userID).Msg("Could not restore last saved result")
		}
	}

	rs := &rendererSession{session: sess, renderer: r}
	s.mu.Lock()
	s.renderers[rs.id] = rs
	s.mu.Unlock()

	s.log.Info().
		Str("session_id", rs.id.String()).
		Str("activity_id", req.ActivityID.String()).
		Str("user_id", userID).
		Bool("mounted", r.Mounted()).
		Msg("Renderer session started")
	return s.info(rs.session, r.Mounted(), r.View()), nil
}

// WithRenderer runs fn on the session's renderer while holding the session lock.
func (s *SessionService) WithRenderer(sid uuid.UUID, userID string, fn func(r *engine.Renderer) error) error {
	return s.withRendererSession(sid, userID, func(rs *rendererSession) error {
		return fn(rs.renderer)
	})
}

func (s *SessionService) withRendererSession(sid uuid.UUID, userID string, fn func(rs *rendererSession) error) error {
	s.mu.RLock()
	rs, ok := s.renderers[sid]
	s.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}
	if rs.userID != userID {
		return ErrSessionForbidden
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.lastSeen = s.now()
	return fn(rs)
}

// RendererInfo describes a renderer session and its current view.
func (s *SessionService) RendererInfo(sid uuid.UUID, userID string) (*model.SessionInfo, error) {
	var info *model.SessionInfo
	err := s.withRendererSession(sid, userID, func(rs *rendererSession) error {
		info = s.info(rs.session, rs.renderer.Mounted(), rs.renderer.View())
		return nil
	})
	return info, err
}

// ShowGrades restores the learner's last saved report into the session and reveals answers.
func (s *SessionService) ShowGrades(ctx context.Context, sid uuid.UUID, userID string, reviewAttempt bool) (engine.RendererView, error) {
	var view engine.RendererView
	err := s.withRendererSession(sid, userID, func(rs *rendererSession) error {
		last, err := s.reports.LastReport(ctx, rs.activityID, userID)
		if err != nil {
			return err
		}
		if err := rs.renderer.ShowGrades(last.Report, reviewAttempt); err != nil {
			return err
		}
		view = rs.renderer.View()
		return nil
	})
	return view, err
}

// CloseRenderer unmounts a renderer session.
func (s *SessionService) CloseRenderer(sid uuid.UUID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.renderers[sid]
	if !ok {
		return ErrSessionNotFound
	}
	if rs.userID != userID {
		return ErrSessionForbidden
	}
	delete(s.renderers, sid)
	return nil
}

// ─── Editor ────────────────────────────────────────────────────────

// StartEditor mounts an editor for an author.
func (s *SessionService) StartEditor(ctx context.Context, userID string, req *model.StartEditorRequest) (*model.SessionInfo, error) {
	doc, err := s.docs.LoadDocument(ctx, req.ActivityID)
	if err != nil {
		return nil, err
	}

	layout := req.Layout
	if layout == "" {
		layout = model.LayoutMCQEditor
	}

	sess := s.newSession(req.ActivityID, userID)
	adaptor := s.adaptors.EditorAdaptor(shell.Binding{
		ActivityID: req.ActivityID.String(),
		UserID:     userID,
		SessionID:  sess.id.String(),
	})
	params := model.EngineParams{
		EngineType:            model.LayoutMCQ,
		QuestionMediaBasePath: s.cfg.MediaBasePath,
	}

	e := engine.NewEditor(s.engineOptions()...)
	if err := e.Init(params, adaptor, layout, doc); err != nil {
		return nil, err
	}

	es := &editorSession{session: sess, editor: e}
	s.mu.Lock()
	s.editors[es.id] = es
	s.mu.Unlock()

	s.log.Info().
		Str("session_id", es.id.String()).
		Str("activity_id", req.ActivityID.String()).
		Str("user_id", userID).
		Msg("Editor session started")
	return s.info(es.session, e.Mounted(), e.View()), nil
}

// WithEditor runs fn on the session's editor while holding the session lock.
func (s *SessionService) WithEditor(sid uuid.UUID, userID string, fn func(e *engine.Editor) error) error {
	s.mu.RLock()
	es, ok := s.editors[sid]
	s.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}
	if es.userID != userID {
		return ErrSessionForbidden
	}

	es.mu.Lock()
	defer es.mu.Unlock()
	es.lastSeen = s.now()
	return fn(es.editor)
}

// EditorInfo describes an editor session and its current view.
func (s *SessionService) EditorInfo(sid uuid.UUID, userID string) (*model.SessionInfo, error) {
	s.mu.RLock()
	es, ok := s.editors[sid]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	var info *model.SessionInfo
	err := s.WithEditor(sid, userID, func(e *engine.Editor) error {
		info = s.info(es.session, e.Mounted(), e.View())
		return nil
	})
	return info, err
}

// CloseEditor unmounts an editor session. Unsaved changes remain in the draft.
func (s *SessionService) CloseEditor(sid uuid.UUID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	es, ok := s.editors[sid]
	if !ok {
		return ErrSessionNotFound
	}
	if es.userID != userID {
		return ErrSessionForbidden
	}
	delete(s.editors, sid)
	return nil
}

// ─── Eviction ──────────────────────────────────────────────────────

// Run evicts idle sessions until ctx is cancelled. Call in a goroutine.
func (s *SessionService) Run(ctx context.Context) {
	ticker := time.NewTicker(evictInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(); n > 0 {
				s.log.Info().Int("count", n).Msg("Idle sessions evicted")
			}
		}
	}
}

// EvictIdle drops every session untouched for longer than the idle timeout.
func (s *SessionService) EvictIdle() int {
	cutoff := s.now().Add(-s.cfg.SessionIdleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, rs := range s.renderers {
		if rs.idleSince(cutoff) {
			delete(s.renderers, id)
			evicted++
		}
	}
	for id, es := range s.editors {
		if es.idleSince(cutoff) {
			delete(s.editors, id)
			evicted++
		}
	}
	return evicted
}

// Count returns the number of live renderer and editor sessions.
func (s *SessionService) Count() (renderers, editors int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.renderers), len(s.editors)
}

func (ss *session) idleSince(cutoff time.Time) bool {
	if !ss.mu.TryLock() {
		return false // in use
	}
	defer ss.mu.Unlock()
	return ss.lastSeen.Before(cutoff)
}
