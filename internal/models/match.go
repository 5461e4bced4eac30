package models

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus int

const (
	MatchWaiting MatchStatus = iota
	MatchStarting
	MatchActive
	MatchFinished
)

func (s MatchStatus) String() string {
	switch s {
	case MatchWaiting:
		return "waiting"
	case MatchStarting:
		return "starting"
	case MatchActive:
		return "active"
	case MatchFinished:
		return "finished"
	}
	return "unknown"
}

// Player is the per-match record for one participant. IDs come from the
// upstream auth layer; the server never generates them.
type Player struct {
	ID            string    `json:"id"`
	ConnectionID  uuid.UUID `json:"connection_id"`
	Name          string    `json:"name"`
	ValidatedTaps int       `json:"validated_taps"`
	LastTapAt     int64     `json:"last_tap_at"` // unix ms of the last accepted tap, 0 before the first
	Ready         bool      `json:"ready"`
	JoinedAt      time.Time `json:"joined_at"`
}

// Match holds the authoritative state of one tap race.
type Match struct {
	ID         uuid.UUID          `json:"id"`
	Status     MatchStatus        `json:"status"`
	Players    map[string]*Player `json:"players"`
	Order      []string           `json:"order"` // queue insertion order, drives tie-breaks
	Duration   time.Duration      `json:"duration"`
	CreatedAt  time.Time          `json:"created_at"`
	StartedAt  *time.Time         `json:"started_at,omitempty"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
	WinnerID   *string            `json:"winner_id,omitempty"`
}

// PlayerResult is one row of the final standings.
type PlayerResult struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Taps     int    `json:"taps"`
	IsWinner bool   `json:"is_winner"`
}

// AllReady reports whether every rostered player has marked ready.
func (m *Match) AllReady() bool {
	for _, p := range m.Players {
		if !p.Ready {
			return false
		}
	}
	return len(m.Players) > 0
}
