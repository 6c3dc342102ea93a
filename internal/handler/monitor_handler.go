package handler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-assessment/internal/events"
	"github.com/stemsi/exstem-assessment/internal/model"
	"github.com/stemsi/exstem-assessment/internal/response"
	ws "github.com/stemsi/exstem-assessment/internal/websocket"
)

const refreshTimeout = 5 * time.Second // keep a slow results query from stalling the loop

// MonitorHandler streams a live view of a session to its teacher.
type MonitorHandler struct {
	results  ResultsReader
	rdb      *redis.Client
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler. A nil rdb serves snapshots
// only, without live updates.
func NewMonitorHandler(results ResultsReader, rdb *redis.Client, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		results:  results,
		rdb:      rdb,
		log:      log.With().Str("component", "monitor_handler").Logger(),
		upgrader: ws.NewUpgrader(allowedOrigins),
	}
}

// MonitorSession godoc
// WS /ws/v1/teacher/sessions/:session_id/monitor
// Sends a results snapshot, then forwards every attempt event of the session.
// Clients may send {"action":"refresh"} for a fresh snapshot or {"action":"ping"}.
func (h *MonitorHandler) MonitorSession(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	sessionID, ok := paramID(c, "session_id")
	if !ok {
		return
	}

	// Authorization happens here, before the upgrade, so failures are plain HTTP errors.
	summary, err := h.results.GetSessionResults(c.Request.Context(), actor, sessionID)
	if err != nil {
		response.FailError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("session_id", sessionID.String()).
		Str("user_id", actor.UserID.String()).
		Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var updates <-chan *redis.Message
	if h.rdb != nil {
		pubsub := events.Subscribe(ctx, h.rdb, sessionID)
		defer pubsub.Close()
		updates = pubsub.Channel()
	}

	if err := ws.WriteTyped(conn, ws.SnapshotResponse{Event: ws.EventSnapshot, Data: summary}); err != nil {
		return
	}
	wsLog.Info().Msg("Teacher attached to session monitor")

	ws.PrepareRead(conn)
	actions := make(chan ws.Action)
	closed := make(chan struct{})
	go readActions(ctx, conn, actions, closed, wsLog)

	pingTicker := time.NewTicker(ws.PingPeriod)
	defer pingTicker.Stop()

	for {
		var err error
		select {
		case <-closed:
			wsLog.Info().Msg("Teacher detached from session monitor")
			return

		case msg, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			// Forward the published JSON as-is.
			err = ws.WriteTyped(conn, ws.UpdateResponse{Event: ws.EventUpdate, Data: json.RawMessage(msg.Payload)})

		case action := <-actions:
			err = h.handleAction(ctx, conn, actor, sessionID, action)

		case <-pingTicker.C:
			err = ws.WritePing(conn)
		}
		if err != nil {
			wsLog.Debug().Err(err).Msg("Monitor write failed")
			return
		}
	}
}

func (h *MonitorHandler) handleAction(ctx context.Context, conn *websocket.Conn, actor model.Actor, sessionID uuid.UUID, action ws.Action) error {
	switch action {
	case ws.ActionPing:
		return ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
	case ws.ActionRefresh:
		ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
		defer cancel()
		summary, err := h.results.GetSessionResults(ctx, actor, sessionID)
		if err != nil {
			h.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Monitor refresh failed")
			return ws.WriteError(conn, "refresh failed")
		}
		return ws.WriteTyped(conn, ws.SnapshotResponse{Event: ws.EventSnapshot, Data: summary})
	default:
		return ws.WriteError(conn, "unknown action: "+string(action))
	}
}

// readActions owns the read side of conn. It closes closed once the peer goes
// away; malformed messages are passed on as an empty action.
func readActions(ctx context.Context, conn *websocket.Conn, actions chan<- ws.Action, closed chan<- struct{}, log zerolog.Logger) {
	defer close(closed)
	for {
		var msg ws.RequestEnvelope
		err := ws.ReadJSON(conn, &msg)
		if err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &syntaxErr) && !errors.As(err, &typeErr) {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			msg.Action = ""
		}

		select {
		case actions <- msg.Action:
		case <-ctx.Done():
			return
		}
	}
}
