package models

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	// Client messages
	MsgJoinQueue   MessageType = "join_queue"
	MsgLeaveQueue  MessageType = "leave_queue"
	MsgPlayerReady MessageType = "player_ready"
	MsgTap         MessageType = "tap"

	// Server messages
	MsgQueueJoined        MessageType = "queue_joined"
	MsgQueueLeft          MessageType = "queue_left"
	MsgMatchFound         MessageType = "match_found"
	MsgMatchStarted       MessageType = "match_started"
	MsgPlayerTapped       MessageType = "player_tapped"
	MsgTapConfirmed       MessageType = "tap_confirmed"
	MsgPlayerDisconnected MessageType = "player_disconnected"
	MsgMatchEnded         MessageType = "match_ended"
	MsgError              MessageType = "error"
)

type WSMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	MessageID string      `json:"message_id"`
}

// Payload structs for client messages
type JoinQueuePayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type LeaveQueuePayload struct {
	UserID string `json:"userId"`
}

type PlayerReadyPayload struct {
	UserID  string    `json:"userId"`
	MatchID uuid.UUID `json:"matchId"`
}

type TapPayload struct {
	UserID    string    `json:"userId"`
	MatchID   uuid.UUID `json:"matchId"`
	Timestamp int64     `json:"timestamp"` // client wall clock, unix ms
}

// Payload structs for server messages
type QueueJoinedPayload struct {
	Position int `json:"position"`
}

type QueueLeftPayload struct{}

type RosterEntry struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type MatchFoundPayload struct {
	MatchID uuid.UUID     `json:"matchId"`
	Players []RosterEntry `json:"players"`
}

type MatchStartedPayload struct {
	MatchID   uuid.UUID `json:"matchId"`
	Duration  int64     `json:"duration"`  // ms
	StartTime int64     `json:"startTime"` // unix ms
}

type PlayerTappedPayload struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	TapCount int    `json:"tapCount"`
}

type TapConfirmedPayload struct {
	TapCount int `json:"tapCount"`
}

type PlayerDisconnectedPayload struct {
	PlayerID string `json:"playerId"`
}

type MatchEndedPayload struct {
	MatchID  uuid.UUID      `json:"matchId"`
	Results  []PlayerResult `json:"results"`
	WinnerID *string        `json:"winnerId"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Helper to create WebSocket messages
func NewWSMessage(msgType MessageType, payload interface{}) WSMessage {
	return WSMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
		MessageID: uuid.New().String(),
	}
}
