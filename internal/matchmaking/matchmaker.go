package matchmaking

import (
	"sort"
	"sync"
	"time"

	"tap-race-backend/internal/game"
	"tap-race-backend/internal/models"

	"github.com/google/uuid"
)

// WSConnection is the subset of a websocket connection the matchmaker needs.
type WSConnection interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Analytics receives fire-and-forget game events. Satisfied by
// kafka.AnalyticsService; may be nil.
type Analytics interface {
	SendEvent(eventType string, data map[string]interface{})
}

// Config holds the process-wide match constants.
type Config struct {
	MatchSize        int
	MatchDuration    time.Duration
	StartDelay       time.Duration
	CleanupDelay     time.Duration
	MaxTapsPerSecond int
	ClockSkewWindow  time.Duration
}

func DefaultConfig() Config {
	return Config{
		MatchSize:        2,
		MatchDuration:    30 * time.Second,
		StartDelay:       2 * time.Second,
		CleanupDelay:     5 * time.Second,
		MaxTapsPerSecond: 10,
		ClockSkewWindow:  100 * time.Millisecond,
	}
}

// Stats is a read-only snapshot of matchmaker counters.
type Stats struct {
	QueueSize       int   `json:"queue_size"`
	ActiveMatches   int   `json:"active_matches"`
	TotalJoined     int64 `json:"total_joined"`
	TotalLeft       int64 `json:"total_left"`
	MatchesCreated  int64 `json:"matches_created"`
	MatchesFinished int64 `json:"matches_finished"`
	TapsValidated   int64 `json:"taps_validated"`
	TapsRejected    int64 `json:"taps_rejected"`
}

// liveMatch pairs the match record with its connections and the one
// cancellable timer (the pending deferred start).
type liveMatch struct {
	match      *models.Match
	conns      map[string]WSConnection
	startTimer *time.Timer
}

// Matchmaker owns the queue, every live match and the player indices. A
// single mutex serializes every mutation; scheduled transitions re-acquire
// it from their timer goroutine, so all state changes and the outbound
// events they produce observe one total order.
type Matchmaker struct {
	cfg       Config
	limits    game.TapLimits
	analytics Analytics

	mu            sync.Mutex
	queue         queue
	matches       map[uuid.UUID]*liveMatch
	playerToMatch map[string]uuid.UUID
	playerToQueue map[string]struct{}
	stats         Stats
}

func NewMatchmaker(cfg Config, analytics Analytics) *Matchmaker {
	return &Matchmaker{
		cfg:           cfg,
		limits:        game.NewTapLimits(cfg.MaxTapsPerSecond, cfg.ClockSkewWindow.Milliseconds()),
		analytics:     analytics,
		matches:       make(map[uuid.UUID]*liveMatch),
		playerToMatch: make(map[string]uuid.UUID),
		playerToQueue: make(map[string]struct{}),
	}
}

// JoinQueue appends the player to the waiting list and pairs a match as soon
// as enough players are queued.
func (m *Matchmaker) JoinQueue(userID, username string, connID uuid.UUID, conn WSConnection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, queued := m.playerToQueue[userID]; queued {
		return ErrAlreadyQueued
	}
	if _, inMatch := m.playerToMatch[userID]; inMatch {
		return ErrAlreadyInMatch
	}

	player := &models.Player{
		ID:           userID,
		ConnectionID: connID,
		Name:         username,
		JoinedAt:     time.Now(),
	}

	position := m.queue.push(&QueueEntry{
		Player:   player,
		Conn:     conn,
		JoinedAt: player.JoinedAt,
	})
	m.playerToQueue[userID] = struct{}{}
	m.stats.TotalJoined++

	conn.WriteJSON(models.NewWSMessage(models.MsgQueueJoined, models.QueueJoinedPayload{
		Position: position,
	}))

	m.emit("player_joined_queue", map[string]interface{}{
		"player_id":   userID,
		"player_name": username,
		"queue_size":  m.queue.size(),
	})

	for m.queue.size() >= m.cfg.MatchSize {
		m.createMatchLocked()
	}
	return nil
}

// LeaveQueue removes a waiting player.
func (m *Matchmaker) LeaveQueue(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, queued := m.playerToQueue[userID]; !queued {
		return ErrNotQueued
	}

	entry := m.removeFromQueueLocked(userID)
	if entry != nil {
		entry.Conn.WriteJSON(models.NewWSMessage(models.MsgQueueLeft, models.QueueLeftPayload{}))
	}

	m.emit("player_left_queue", map[string]interface{}{
		"player_id": userID,
	})
	return nil
}

// MarkReady flags the player during the waiting window. When the whole
// roster is ready the deferred start is cancelled and the match starts now.
func (m *Matchmaker) MarkReady(userID string, matchID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lm, ok := m.matches[matchID]
	if !ok {
		return ErrMatchNotFound
	}
	player, ok := lm.match.Players[userID]
	if !ok {
		return ErrNotInMatch
	}

	player.Ready = true
	if lm.match.Status == models.MatchWaiting && lm.match.AllReady() {
		m.startMatchLocked(lm)
	}
	return nil
}

// SubmitTap validates one tap against the server clock and, if accepted,
// increments the player's count and fans the new total out to the match.
func (m *Matchmaker) SubmitTap(userID string, matchID uuid.UUID, clientTimestampMs int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lm, ok := m.matches[matchID]
	if !ok {
		return ErrMatchNotFound
	}
	player, ok := lm.match.Players[userID]
	if !ok {
		return ErrNotInMatch
	}
	if lm.match.Status != models.MatchActive {
		return ErrMatchNotActive
	}

	now := time.Now().UnixMilli()
	if err := m.limits.Validate(player.LastTapAt, now, clientTimestampMs); err != nil {
		m.stats.TapsRejected++
		m.emit("tap_rejected", map[string]interface{}{
			"match_id":  matchID.String(),
			"player_id": userID,
			"reason":    rejectReason(err),
		})
		return err
	}

	player.ValidatedTaps++
	player.LastTapAt = now
	m.stats.TapsValidated++

	m.broadcastLocked(lm, models.NewWSMessage(models.MsgPlayerTapped, models.PlayerTappedPayload{
		PlayerID: userID,
		Username: player.Name,
		TapCount: player.ValidatedTaps,
	}))
	if conn, ok := lm.conns[userID]; ok {
		conn.WriteJSON(models.NewWSMessage(models.MsgTapConfirmed, models.TapConfirmedPayload{
			TapCount: player.ValidatedTaps,
		}))
	}
	return nil
}

// Disconnect is the idempotent cleanup for a dropped connection. Unknown
// players are a no-op. A match only ends early when its roster empties;
// survivors run out the clock.
func (m *Matchmaker) Disconnect(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, queued := m.playerToQueue[userID]; queued {
		m.removeFromQueueLocked(userID)
		return
	}

	matchID, inMatch := m.playerToMatch[userID]
	if !inMatch {
		return
	}
	delete(m.playerToMatch, userID)

	lm, ok := m.matches[matchID]
	if !ok {
		return
	}
	delete(lm.match.Players, userID)
	delete(lm.conns, userID)

	m.broadcastLocked(lm, models.NewWSMessage(models.MsgPlayerDisconnected, models.PlayerDisconnectedPayload{
		PlayerID: userID,
	}))
	m.emit("player_disconnected", map[string]interface{}{
		"match_id":  matchID.String(),
		"player_id": userID,
	})

	if len(lm.match.Players) == 0 {
		m.endMatchLocked(lm)
	}
}

// Stats returns a consistent snapshot of the matchmaker counters.
func (m *Matchmaker) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.stats
	stats.QueueSize = m.queue.size()
	for _, lm := range m.matches {
		if lm.match.Status != models.MatchFinished {
			stats.ActiveMatches++
		}
	}
	return stats
}

// GetMatch returns the live match record, if any.
func (m *Matchmaker) GetMatch(matchID uuid.UUID) (*models.Match, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lm, ok := m.matches[matchID]
	if !ok {
		return nil, false
	}
	return lm.match, true
}

// createMatchLocked pairs the first MatchSize queued players into a new
// waiting match and schedules its deferred start.
func (m *Matchmaker) createMatchLocked() {
	entries := m.queue.popFront(m.cfg.MatchSize)

	match := &models.Match{
		ID:        uuid.New(),
		Status:    models.MatchWaiting,
		Players:   make(map[string]*models.Player, len(entries)),
		Order:     make([]string, 0, len(entries)),
		Duration:  m.cfg.MatchDuration,
		CreatedAt: time.Now(),
	}
	lm := &liveMatch{
		match: match,
		conns: make(map[string]WSConnection, len(entries)),
	}

	roster := make([]models.RosterEntry, 0, len(entries))
	for _, entry := range entries {
		delete(m.playerToQueue, entry.Player.ID)
		m.playerToMatch[entry.Player.ID] = match.ID
		match.Players[entry.Player.ID] = entry.Player
		match.Order = append(match.Order, entry.Player.ID)
		lm.conns[entry.Player.ID] = entry.Conn
		roster = append(roster, models.RosterEntry{ID: entry.Player.ID, Username: entry.Player.Name})
	}
	m.matches[match.ID] = lm
	m.stats.MatchesCreated++

	// match_found is unicast because the room is being established here.
	found := models.NewWSMessage(models.MsgMatchFound, models.MatchFoundPayload{
		MatchID: match.ID,
		Players: roster,
	})
	for _, entry := range entries {
		entry.Conn.WriteJSON(found)
	}

	matchID := match.ID
	lm.startTimer = time.AfterFunc(m.cfg.StartDelay, func() {
		m.startMatch(matchID)
	})

	m.emit("match_created", map[string]interface{}{
		"match_id": match.ID.String(),
		"players":  match.Order,
	})
}

// startMatch is the deferred-start timer target.
func (m *Matchmaker) startMatch(matchID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lm, ok := m.matches[matchID]
	if !ok {
		return
	}
	m.startMatchLocked(lm)
}

// startMatchLocked transitions waiting → active. Idempotent: the all-ready
// early start and a late deferred-start timer may both land here.
func (m *Matchmaker) startMatchLocked(lm *liveMatch) {
	match := lm.match
	if match.Status != models.MatchWaiting && match.Status != models.MatchStarting {
		return
	}
	if lm.startTimer != nil {
		lm.startTimer.Stop()
		lm.startTimer = nil
	}

	match.Status = models.MatchStarting
	now := time.Now()
	match.StartedAt = &now
	match.Status = models.MatchActive

	m.broadcastLocked(lm, models.NewWSMessage(models.MsgMatchStarted, models.MatchStartedPayload{
		MatchID:   match.ID,
		Duration:  match.Duration.Milliseconds(),
		StartTime: now.UnixMilli(),
	}))

	matchID := match.ID
	time.AfterFunc(match.Duration, func() {
		m.endMatch(matchID)
	})

	m.emit("match_started", map[string]interface{}{
		"match_id": match.ID.String(),
	})
}

// endMatch is the duration timer target.
func (m *Matchmaker) endMatch(matchID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lm, ok := m.matches[matchID]
	if !ok {
		return
	}
	m.endMatchLocked(lm)
}

// endMatchLocked transitions the match to finished, settles the winner and
// schedules cleanup. Idempotent; redundant timer fires are safe.
func (m *Matchmaker) endMatchLocked(lm *liveMatch) {
	match := lm.match
	if match.Status == models.MatchFinished {
		return
	}
	if lm.startTimer != nil {
		lm.startTimer.Stop()
		lm.startTimer = nil
	}

	match.Status = models.MatchFinished
	now := time.Now()
	match.FinishedAt = &now
	m.stats.MatchesFinished++

	results := m.resultsLocked(match)
	if len(results) > 0 && results[0].Taps > 0 {
		winnerID := results[0].ID
		match.WinnerID = &winnerID
		results[0].IsWinner = true
	}

	m.broadcastLocked(lm, models.NewWSMessage(models.MsgMatchEnded, models.MatchEndedPayload{
		MatchID:  match.ID,
		Results:  results,
		WinnerID: match.WinnerID,
	}))

	matchID := match.ID
	time.AfterFunc(m.cfg.CleanupDelay, func() {
		m.cleanupMatch(matchID)
	})

	data := map[string]interface{}{
		"match_id": match.ID.String(),
		"results":  results,
	}
	if match.WinnerID != nil {
		data["winner_id"] = *match.WinnerID
	}
	if match.StartedAt != nil {
		data["duration_ms"] = now.Sub(*match.StartedAt).Milliseconds()
	}
	m.emit("match_ended", data)
}

// resultsLocked builds the standings for the players still on the roster,
// ordered by taps descending with queue insertion order breaking ties.
func (m *Matchmaker) resultsLocked(match *models.Match) []models.PlayerResult {
	results := make([]models.PlayerResult, 0, len(match.Players))
	for _, id := range match.Order {
		player, ok := match.Players[id]
		if !ok {
			continue // disconnected mid-match
		}
		results = append(results, models.PlayerResult{
			ID:       player.ID,
			Username: player.Name,
			Taps:     player.ValidatedTaps,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Taps > results[j].Taps
	})
	return results
}

// cleanupMatch is the cleanup timer target: it drops the match and clears
// every roster index. Safe to call more than once.
func (m *Matchmaker) cleanupMatch(matchID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lm, ok := m.matches[matchID]
	if !ok {
		return
	}
	for playerID := range lm.match.Players {
		if m.playerToMatch[playerID] == matchID {
			delete(m.playerToMatch, playerID)
		}
	}
	delete(m.matches, matchID)
}

func (m *Matchmaker) removeFromQueueLocked(userID string) *QueueEntry {
	entry, ok := m.queue.remove(userID)
	delete(m.playerToQueue, userID)
	if ok {
		m.stats.TotalLeft++
	}
	return entry
}

// broadcastLocked writes to every connection on the roster. The match id is
// the room; membership is just the live conns map.
func (m *Matchmaker) broadcastLocked(lm *liveMatch, message models.WSMessage) {
	for _, conn := range lm.conns {
		conn.WriteJSON(message)
	}
}

func (m *Matchmaker) emit(eventType string, data map[string]interface{}) {
	if m.analytics != nil {
		m.analytics.SendEvent(eventType, data)
	}
}

func rejectReason(err error) string {
	switch err {
	case game.ErrClockSkew:
		return "clock_skew"
	case game.ErrRateLimited:
		return "rate_limited"
	}
	return "unknown"
}
