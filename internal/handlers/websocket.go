package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/marminbh/location-svc/internal/lifecycle"
	"github.com/marminbh/location-svc/internal/location"
	"github.com/marminbh/location-svc/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin enforcement happens at the gateway in front of this
		// service.
		return true
	},
}

// ClientMessage is a frame from a connected client.
type ClientMessage struct {
	Type string  `json:"type"` // "heartbeat" or "location"
	Lat  float64 `json:"lat,omitempty"`
	Lng  float64 `json:"lng,omitempty"`
}

type serverError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// WSHandler bridges websocket connections to the lifecycle controller and
// the location orchestrator. The websocket framing itself is the library's
// concern; this handler only translates frames into presence and location
// semantics.
type WSHandler struct {
	controller   *lifecycle.Controller
	orchestrator *location.Orchestrator
	logger       *zap.Logger
}

// NewWSHandler creates a WSHandler.
func NewWSHandler(controller *lifecycle.Controller, orchestrator *location.Orchestrator, logger *zap.Logger) *WSHandler {
	return &WSHandler{controller: controller, orchestrator: orchestrator, logger: logger}
}

// ServeHTTP upgrades the connection for GET /ws and drives the session. The
// identity assertion comes from the X-Identity header set by the gateway.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	credentials := r.Header.Get("X-Identity")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	socketID := uuid.NewString()
	ctx := context.Background()

	session, err := h.controller.Connect(ctx, socketID, credentials)
	if err != nil {
		h.logger.Warn("Rejected connection",
			zap.String("socket_id", socketID),
			zap.Error(err),
		)
		h.writeError(conn, "connection rejected")
		return
	}
	defer func() {
		if err := h.controller.Disconnect(ctx, session); err != nil {
			h.logger.Error("Error disconnecting session",
				zap.String("socket_id", socketID),
				zap.Error(err),
			)
		}
	}()

	// The read loop serializes all events for this connection.
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("Websocket closed unexpectedly",
					zap.String("socket_id", socketID),
					zap.Error(err),
				)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.writeError(conn, "malformed message")
			continue
		}

		switch msg.Type {
		case "heartbeat":
			h.controller.Activity(ctx, session)
		case "location":
			h.controller.Activity(ctx, session)
			err := h.orchestrator.ReportLocation(ctx,
				session.Identity.Kind, session.Identity.EntityID, msg.Lat, msg.Lng)
			if err != nil {
				if models.IsValidation(err) {
					h.writeError(conn, err.Error())
					continue
				}
				h.logger.Error("Failed to process location report",
					zap.String("socket_id", socketID),
					zap.String("entity_id", session.Identity.EntityID),
					zap.Error(err),
				)
				h.writeError(conn, "location report failed")
			}
		default:
			h.writeError(conn, "unknown message type")
		}
	}
}

func (h *WSHandler) writeError(conn *websocket.Conn, msg string) {
	payload, err := json.Marshal(serverError{Type: "error", Error: msg})
	if err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		h.logger.Debug("Failed to write error frame", zap.Error(err))
	}
}
