package kafka

import (
	"sync"
	"time"
)

// Aggregator folds the event stream into running analytics counters. It is
// the consumer's in-memory state; the metrics server and the optional
// database flush both read snapshots from it.
type Aggregator struct {
	mu sync.RWMutex

	queueJoins      int64
	queueLeaves     int64
	matchesCreated  int64
	matchesStarted  int64
	matchesFinished int64
	tapsRejected    map[string]int64 // reason -> count
	disconnects     int64
	totalDurationMs int64
	durationSamples int64
	lastEventAt     time.Time
}

// AggregateSnapshot is a consistent copy of the aggregator state.
type AggregateSnapshot struct {
	QueueJoins        int64            `json:"queue_joins"`
	QueueLeaves       int64            `json:"queue_leaves"`
	MatchesCreated    int64            `json:"matches_created"`
	MatchesStarted    int64            `json:"matches_started"`
	MatchesFinished   int64            `json:"matches_finished"`
	TapsRejected      map[string]int64 `json:"taps_rejected"`
	Disconnects       int64            `json:"disconnects"`
	AverageDurationMs int64            `json:"average_duration_ms"`
	LastEventAt       time.Time        `json:"last_event_at"`
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		tapsRejected: make(map[string]int64),
	}
}

// Record folds one event into the counters.
func (a *Aggregator) Record(event GameEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.lastEventAt = event.Timestamp

	switch event.EventType {
	case EventPlayerJoinedQueue:
		a.queueJoins++
	case EventPlayerLeftQueue:
		a.queueLeaves++
	case EventMatchCreated:
		a.matchesCreated++
	case EventMatchStarted:
		a.matchesStarted++
	case EventTapRejected:
		reason, _ := event.Data["reason"].(string)
		if reason == "" {
			reason = "unknown"
		}
		a.tapsRejected[reason]++
	case EventPlayerDisconnected:
		a.disconnects++
	case EventMatchEnded:
		a.matchesFinished++
		if ms, ok := event.Data["duration_ms"].(float64); ok {
			a.totalDurationMs += int64(ms)
			a.durationSamples++
		}
	}
}

// Snapshot returns a copy safe to serve or persist.
func (a *Aggregator) Snapshot() AggregateSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	rejected := make(map[string]int64, len(a.tapsRejected))
	for reason, count := range a.tapsRejected {
		rejected[reason] = count
	}

	snapshot := AggregateSnapshot{
		QueueJoins:      a.queueJoins,
		QueueLeaves:     a.queueLeaves,
		MatchesCreated:  a.matchesCreated,
		MatchesStarted:  a.matchesStarted,
		MatchesFinished: a.matchesFinished,
		TapsRejected:    rejected,
		Disconnects:     a.disconnects,
		LastEventAt:     a.lastEventAt,
	}
	if a.durationSamples > 0 {
		snapshot.AverageDurationMs = a.totalDurationMs / a.durationSamples
	}
	return snapshot
}
