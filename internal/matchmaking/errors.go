package matchmaking

import "errors"

var (
	// Queue errors
	ErrAlreadyQueued  = errors.New("player is already in the queue")
	ErrAlreadyInMatch = errors.New("player is already in a match")
	ErrNotQueued      = errors.New("player is not in the queue")

	// Match errors
	ErrMatchNotFound  = errors.New("match not found")
	ErrNotInMatch     = errors.New("player is not in this match")
	ErrMatchNotActive = errors.New("match is not active")
)
