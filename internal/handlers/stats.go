package handlers

import (
	"encoding/json"
	"net/http"

	"tap-race-backend/internal/kafka"
	"tap-race-backend/internal/matchmaking"
)

// StatsHandler serves the in-memory operational snapshot.
type StatsHandler struct {
	matchmaker *matchmaking.Matchmaker
	producer   *kafka.Producer
}

func NewStatsHandler(matchmaker *matchmaking.Matchmaker, producer *kafka.Producer) *StatsHandler {
	return &StatsHandler{
		matchmaker: matchmaker,
		producer:   producer,
	}
}

func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"matchmaker": h.matchmaker.Stats(),
	}
	if h.producer != nil {
		response["kafka_producer"] = h.producer.GetStats()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
