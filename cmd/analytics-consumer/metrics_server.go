package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"tap-race-backend/internal/kafka"

	"github.com/gorilla/mux"
)

// MetricsServer exposes the consumer's aggregate counters over HTTP.
type MetricsServer struct {
	httpServer *http.Server
	consumer   *kafka.Consumer
	aggregator *kafka.Aggregator
}

func NewMetricsServer(consumer *kafka.Consumer, aggregator *kafka.Aggregator, addr string) *MetricsServer {
	s := &MetricsServer{
		consumer:   consumer,
		aggregator: aggregator,
	}

	router := mux.NewRouter()
	router.HandleFunc("/metrics", s.getMetrics).Methods("GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *MetricsServer) Start() error {
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *MetricsServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *MetricsServer) getMetrics(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"aggregates": s.aggregator.Snapshot(),
		"consumer":   s.consumer.GetStats(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
