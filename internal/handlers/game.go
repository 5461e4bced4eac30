package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"tap-race-backend/internal/game"
	"tap-race-backend/internal/matchmaking"
	"tap-race-backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// GameHandler is the event gateway: it owns the websocket endpoint, parses
// inbound frames once at the boundary and dispatches them to matchmaker
// operations. It does not authenticate; userId is trusted from the upstream
// auth layer.
type GameHandler struct {
	matchmaker *matchmaking.Matchmaker
	upgrader   websocket.Upgrader
}

func NewGameHandler(matchmaker *matchmaking.Matchmaker) *GameHandler {
	return &GameHandler{
		matchmaker: matchmaker,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // TODO: Add proper origin checking for production
			},
		},
	}
}

func (h *GameHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	connID := uuid.New()
	log.Printf("New WebSocket connection %s from %s", connID, r.RemoteAddr)

	// Side table: this connection's player, set on a successful join.
	var userID string

	for {
		var msg models.WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("WebSocket unexpected close: %v", err)
			}
			break
		}

		switch msg.Type {
		case models.MsgJoinQueue:
			if joined := h.handleJoinQueue(conn, connID, msg.Payload); joined != "" {
				userID = joined
			}

		case models.MsgLeaveQueue:
			h.handleLeaveQueue(conn, msg.Payload)

		case models.MsgPlayerReady:
			h.handlePlayerReady(conn, msg.Payload)

		case models.MsgTap:
			h.handleTap(conn, msg.Payload)

		default:
			h.sendError(conn, "UNKNOWN_MESSAGE", "Unknown message type")
		}
	}

	// Transport disconnect is normal cleanup, not an error.
	if userID != "" {
		h.matchmaker.Disconnect(userID)
		log.Printf("Player %s disconnected", userID)
	} else {
		log.Printf("WebSocket connection %s closed", connID)
	}
}

func (h *GameHandler) handleJoinQueue(conn *websocket.Conn, connID uuid.UUID, payload interface{}) string {
	var join models.JoinQueuePayload
	if err := h.parsePayload(payload, &join); err != nil || join.UserID == "" || join.Username == "" {
		h.sendError(conn, "BAD_PAYLOAD", "bad payload")
		return ""
	}

	if err := h.matchmaker.JoinQueue(join.UserID, join.Username, connID, conn); err != nil {
		h.sendOperationError(conn, err)
		return ""
	}
	return join.UserID
}

func (h *GameHandler) handleLeaveQueue(conn *websocket.Conn, payload interface{}) {
	var leave models.LeaveQueuePayload
	if err := h.parsePayload(payload, &leave); err != nil || leave.UserID == "" {
		h.sendError(conn, "BAD_PAYLOAD", "bad payload")
		return
	}

	if err := h.matchmaker.LeaveQueue(leave.UserID); err != nil {
		h.sendOperationError(conn, err)
	}
}

func (h *GameHandler) handlePlayerReady(conn *websocket.Conn, payload interface{}) {
	var ready models.PlayerReadyPayload
	if err := h.parsePayload(payload, &ready); err != nil || ready.UserID == "" || ready.MatchID == uuid.Nil {
		h.sendError(conn, "BAD_PAYLOAD", "bad payload")
		return
	}

	if err := h.matchmaker.MarkReady(ready.UserID, ready.MatchID); err != nil {
		h.sendOperationError(conn, err)
	}
}

func (h *GameHandler) handleTap(conn *websocket.Conn, payload interface{}) {
	var tap models.TapPayload
	if err := h.parsePayload(payload, &tap); err != nil || tap.UserID == "" || tap.MatchID == uuid.Nil {
		h.sendError(conn, "BAD_PAYLOAD", "bad payload")
		return
	}

	if err := h.matchmaker.SubmitTap(tap.UserID, tap.MatchID, tap.Timestamp); err != nil {
		h.sendOperationError(conn, err)
	}
}

// sendOperationError maps a matchmaker error onto the single error event the
// offending connection receives. Errors are never broadcast.
func (h *GameHandler) sendOperationError(conn *websocket.Conn, err error) {
	var code string
	switch err {
	case matchmaking.ErrAlreadyQueued:
		code = "ALREADY_QUEUED"
	case matchmaking.ErrAlreadyInMatch:
		code = "ALREADY_IN_MATCH"
	case matchmaking.ErrNotQueued:
		code = "NOT_QUEUED"
	case matchmaking.ErrMatchNotFound:
		code = "MATCH_NOT_FOUND"
	case matchmaking.ErrNotInMatch:
		code = "NOT_IN_MATCH"
	case matchmaking.ErrMatchNotActive:
		code = "MATCH_NOT_ACTIVE"
	case game.ErrClockSkew, game.ErrRateLimited:
		code = "INVALID_TAP"
	default:
		code = "INTERNAL_ERROR"
	}
	h.sendError(conn, code, err.Error())
}

func (h *GameHandler) sendError(conn *websocket.Conn, code, message string) {
	conn.WriteJSON(models.NewWSMessage(models.MsgError, models.ErrorPayload{
		Code:    code,
		Message: message,
	}))
}

func (h *GameHandler) parsePayload(payload interface{}, target interface{}) error {
	// Convert payload to JSON and back to parse into target struct
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(jsonData, target)
}
