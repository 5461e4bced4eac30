package matchmaking

import (
	"time"

	"tap-race-backend/internal/models"
)

// QueueEntry represents a player waiting to be paired.
type QueueEntry struct {
	Player   *models.Player
	Conn     WSConnection
	JoinedAt time.Time
}

// queue is an insertion-ordered waiting list. It is not safe for concurrent
// use; the Matchmaker's mutex guards every call.
type queue struct {
	entries []*QueueEntry
}

func (q *queue) push(entry *QueueEntry) int {
	q.entries = append(q.entries, entry)
	return len(q.entries)
}

// popFront removes and returns the first n entries in insertion order.
func (q *queue) popFront(n int) []*QueueEntry {
	if n > len(q.entries) {
		n = len(q.entries)
	}
	front := q.entries[:n]
	q.entries = q.entries[n:]
	return front
}

// remove drops the entry for playerID, preserving the order of the rest.
func (q *queue) remove(playerID string) (*QueueEntry, bool) {
	for i, entry := range q.entries {
		if entry.Player.ID == playerID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return entry, true
		}
	}
	return nil, false
}

func (q *queue) size() int {
	return len(q.entries)
}
