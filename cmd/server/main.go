package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tap-race-backend/internal/config"
	"tap-race-backend/internal/handlers"
	"tap-race-backend/internal/kafka"
	"tap-race-backend/internal/matchmaking"
	"tap-race-backend/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Load()

	// Initialize Kafka producer
	kafkaConfig := kafka.DefaultProducerConfig(cfg.KafkaBrokers)
	kafkaProducer, err := kafka.NewProducer(kafkaConfig)
	if err != nil {
		log.Fatal("Failed to create Kafka producer:", err)
	}
	defer kafkaProducer.Close()

	// Initialize services
	analyticsService := kafka.NewAnalyticsService(kafkaProducer, cfg.AnalyticsEnabled)
	matchmaker := matchmaking.NewMatchmaker(cfg.Matchmaking(), analyticsService)

	// Initialize handlers
	gameHandler := handlers.NewGameHandler(matchmaker)
	statsHandler := handlers.NewStatsHandler(matchmaker, kafkaProducer)

	// Initialize server
	srv := server.NewServer(cfg, gameHandler, statsHandler)

	// Start server
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start:", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
