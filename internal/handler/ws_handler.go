package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/mcq-engine/internal/config"
	"github.com/stemsi/mcq-engine/internal/engine"
	"github.com/stemsi/mcq-engine/internal/response"
	"github.com/stemsi/mcq-engine/internal/service"
	"github.com/stemsi/mcq-engine/internal/shell"
	ws "github.com/stemsi/mcq-engine/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams renderer actions over a WebSocket.
type WSHandler struct {
	rdb      *redis.Client
	sessions *service.SessionService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler. rdb may be nil, in which case shell events are
// not forwarded.
func NewWSHandler(rdb *redis.Client, sessions *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:      rdb,
		sessions: sessions,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// RendererStream godoc
// WS /ws/v1/renderer/sessions/:sid/stream
// Upgrades to WebSocket for select/submit actions on a renderer session.
func (h *WSHandler) RendererStream(c *gin.Context) {
	sid, claims, ok := sessionParams(c)
	if !ok {
		return
	}

	// The session must exist and belong to the caller before upgrading.
	info, err := h.sessions.RendererInfo(sid, claims.UserID)
	if err != nil {
		failFromError(c, err)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wsLog := h.log.With().
		Str("user_id", claims.UserID).
		Str("session_id", sid.String()).
		Logger()
	wsLog.Info().Msg("Learner connected")

	if h.rdb != nil {
		sub := h.rdb.Subscribe(ctx, config.CacheKey.ActivityEventsChannel(info.ActivityID.String()))
		defer sub.Close()
		go h.forwardShellEvents(sub, conn, claims.UserID, sid.String())
	}

	for {
		var msg ws.RequestPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionSelect:
			h.handleSave(conn, sid, claims.UserID, ws.EventSelected, func(r *engine.Renderer) (engine.SaveOutcome, error) {
				return r.Select(ctx, msg.OptionKey)
			})
		case ws.ActionSubmit:
			h.handleSave(conn, sid, claims.UserID, ws.EventSubmitted, func(r *engine.Renderer) (engine.SaveOutcome, error) {
				return r.HandleSubmit(ctx)
			})
		case ws.ActionPing:
			conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			conn.WriteError(string(response.ErrInvalidPayload), "unknown action: "+string(msg.Action))
		}
	}
}

func (h *WSHandler) handleSave(
	conn *ws.Conn,
	sid uuid.UUID,
	userID string,
	event ws.Event,
	save func(r *engine.Renderer) (engine.SaveOutcome, error),
) {
	var res ws.SaveResponse
	err := h.sessions.WithRenderer(sid, userID, func(r *engine.Renderer) error {
		outcome, err := save(r)
		if err != nil {
			return err
		}
		res = ws.SaveResponse{Event: event, Outcome: outcome, View: r.View()}
		return nil
	})
	if err != nil {
		_, code := classify(err)
		conn.WriteError(string(code), response.GetMessage(code))
		return
	}
	if res.Outcome == engine.OutcomeAbandoned {
		conn.WriteError(string(response.ErrSubmitAbandoned), response.GetMessage(response.ErrSubmitAbandoned))
		return
	}
	conn.WriteTyped(res)
}

// forwardShellEvents relays the notifications of the learner's own session until the
// subscription is closed.
func (h *WSHandler) forwardShellEvents(sub *redis.PubSub, conn *ws.Conn, userID, sessionID string) {
	for msg := range sub.Channel() {
		var event shell.Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			h.log.Warn().Err(err).Msg("Malformed shell event")
			continue
		}
		if !event.Concerns(userID, sessionID) {
			continue
		}
		if err := conn.WriteTyped(ws.ShellResponse{Event: ws.EventShell, Payload: json.RawMessage(msg.Payload)}); err != nil {
			return
		}
	}
}
