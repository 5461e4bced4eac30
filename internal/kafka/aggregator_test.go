package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func event(eventType EventType, data map[string]interface{}) GameEvent {
	return GameEvent{
		EventType: eventType,
		EventID:   "test",
		Timestamp: time.Now(),
		Data:      data,
	}
}

func TestAggregatorCounters(t *testing.T) {
	a := NewAggregator()

	a.Record(event(EventPlayerJoinedQueue, nil))
	a.Record(event(EventPlayerJoinedQueue, nil))
	a.Record(event(EventPlayerLeftQueue, nil))
	a.Record(event(EventMatchCreated, nil))
	a.Record(event(EventMatchStarted, nil))
	a.Record(event(EventPlayerDisconnected, nil))

	snapshot := a.Snapshot()
	assert.Equal(t, int64(2), snapshot.QueueJoins)
	assert.Equal(t, int64(1), snapshot.QueueLeaves)
	assert.Equal(t, int64(1), snapshot.MatchesCreated)
	assert.Equal(t, int64(1), snapshot.MatchesStarted)
	assert.Equal(t, int64(1), snapshot.Disconnects)
	assert.False(t, snapshot.LastEventAt.IsZero())
}

func TestAggregatorRejectionReasons(t *testing.T) {
	a := NewAggregator()

	a.Record(event(EventTapRejected, map[string]interface{}{"reason": "rate_limited"}))
	a.Record(event(EventTapRejected, map[string]interface{}{"reason": "rate_limited"}))
	a.Record(event(EventTapRejected, map[string]interface{}{"reason": "clock_skew"}))
	a.Record(event(EventTapRejected, nil))

	snapshot := a.Snapshot()
	assert.Equal(t, int64(2), snapshot.TapsRejected["rate_limited"])
	assert.Equal(t, int64(1), snapshot.TapsRejected["clock_skew"])
	assert.Equal(t, int64(1), snapshot.TapsRejected["unknown"])
}

func TestAggregatorAverageDuration(t *testing.T) {
	a := NewAggregator()

	// JSON numbers decode as float64.
	a.Record(event(EventMatchEnded, map[string]interface{}{"duration_ms": float64(30000)}))
	a.Record(event(EventMatchEnded, map[string]interface{}{"duration_ms": float64(10000)}))
	a.Record(event(EventMatchEnded, nil)) // no duration recorded

	snapshot := a.Snapshot()
	assert.Equal(t, int64(3), snapshot.MatchesFinished)
	assert.Equal(t, int64(20000), snapshot.AverageDurationMs)
}

func TestSnapshotIsACopy(t *testing.T) {
	a := NewAggregator()
	a.Record(event(EventTapRejected, map[string]interface{}{"reason": "rate_limited"}))

	snapshot := a.Snapshot()
	snapshot.TapsRejected["rate_limited"] = 99

	assert.Equal(t, int64(1), a.Snapshot().TapsRejected["rate_limited"])
}
