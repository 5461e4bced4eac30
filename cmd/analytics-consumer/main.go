package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tap-race-backend/internal/database"
	"tap-race-backend/internal/kafka"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Command line flags
	var (
		brokers       = flag.String("brokers", getEnv("KAFKA_BROKERS", "localhost:9092"), "Kafka broker addresses")
		topic         = flag.String("topic", getEnv("KAFKA_TOPIC", "tap-race-events"), "Kafka topic to consume")
		groupID       = flag.String("group", getEnv("KAFKA_GROUP_ID", "analytics-processor"), "Kafka consumer group ID")
		dbURL         = flag.String("db", getEnv("DATABASE_URL", ""), "Postgres URL for snapshot persistence (empty disables)")
		metricsAddr   = flag.String("metrics", getEnv("METRICS_ADDR", ":8082"), "Metrics API listen address")
		flushInterval = flag.Duration("flush", 30*time.Second, "Snapshot flush interval")
	)
	flag.Parse()

	log.Printf("Starting Tap Race Analytics Consumer")
	log.Printf("Brokers: %s", *brokers)
	log.Printf("Topic: %s", *topic)
	log.Printf("Group ID: %s", *groupID)

	// Optional database connection for aggregate snapshots
	var db *database.PostgresDB
	if *dbURL != "" {
		var err error
		db, err = database.NewPostgresDB(*dbURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		log.Printf("Database connection established")
	}

	// Setup Kafka consumer
	aggregator := kafka.NewAggregator()
	consumerConfig := kafka.DefaultConsumerConfig(strings.Split(*brokers, ","))
	consumerConfig.Topic = *topic
	consumerConfig.GroupID = *groupID
	consumer := kafka.NewConsumer(consumerConfig, aggregator)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := consumer.Start(ctx); err != nil {
		log.Fatalf("Failed to start consumer: %v", err)
	}
	log.Printf("Analytics consumer started")

	// Periodically flush the aggregate snapshot to Postgres
	if db != nil {
		go func() {
			ticker := time.NewTicker(*flushInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := db.SaveSnapshot(*groupID, aggregator.Snapshot()); err != nil {
						log.Printf("Snapshot flush failed: %v", err)
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Metrics API server
	metricsServer := NewMetricsServer(consumer, aggregator, *metricsAddr)
	go func() {
		if err := metricsServer.Start(); err != nil {
			log.Printf("Metrics server error: %v", err)
		}
	}()
	log.Printf("Metrics API server started on %s", *metricsAddr)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Printf("Shutdown signal received, stopping consumer...")

	cancel()
	if err := metricsServer.Stop(); err != nil {
		log.Printf("Error stopping metrics server: %v", err)
	}
	if err := consumer.Stop(); err != nil {
		log.Printf("Error stopping consumer: %v", err)
	}

	log.Printf("Analytics consumer shutdown complete")
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
