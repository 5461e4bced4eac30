package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// EventType represents the type of game event published to the topic.
type EventType string

const (
	EventPlayerJoinedQueue  EventType = "player_joined_queue"
	EventPlayerLeftQueue    EventType = "player_left_queue"
	EventMatchCreated       EventType = "match_created"
	EventMatchStarted       EventType = "match_started"
	EventTapRejected        EventType = "tap_rejected"
	EventPlayerDisconnected EventType = "player_disconnected"
	EventMatchEnded         EventType = "match_ended"
)

// GameEvent is the wire envelope for every analytics event.
type GameEvent struct {
	EventType EventType              `json:"event_type"`
	EventID   string                 `json:"event_id"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Producer handles Kafka message production with async capabilities
type Producer struct {
	writer    *kafka.Writer
	isRunning bool
	mu        sync.RWMutex
	stats     ProducerStats
}

// ProducerStats tracks producer performance metrics
type ProducerStats struct {
	MessagesSent    int64     `json:"messages_sent"`
	MessagesErrored int64     `json:"messages_errored"`
	LastMessageTime time.Time `json:"last_message_time"`
	LastErrorTime   time.Time `json:"last_error_time"`
	LastError       string    `json:"last_error"`
}

// ProducerConfig holds configuration for the Kafka producer
type ProducerConfig struct {
	Brokers      []string      `json:"brokers"`
	Topic        string        `json:"topic"`
	RequiredAcks int           `json:"required_acks"`
	BatchSize    int           `json:"batch_size"`
	BatchTimeout time.Duration `json:"batch_timeout"`
	Retries      int           `json:"retries"`
}

// DefaultProducerConfig returns a production-ready configuration
func DefaultProducerConfig(brokers []string) ProducerConfig {
	return ProducerConfig{
		Brokers:      brokers,
		Topic:        "tap-race-events",
		RequiredAcks: 1, // Wait for leader acknowledgment
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		Retries:      3,
	}
}

// NewProducer creates a new async Kafka producer
func NewProducer(config ProducerConfig) (*Producer, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{}, // consistent partitioning per match
		RequiredAcks: kafka.RequiredAcks(config.RequiredAcks),
		Async:        true,
		BatchSize:    config.BatchSize,
		BatchTimeout: config.BatchTimeout,
		Compression:  kafka.Snappy,
		MaxAttempts:  config.Retries,
		ErrorLogger:  kafka.LoggerFunc(log.Printf),
	}

	return &Producer{
		writer:    writer,
		isRunning: true,
	}, nil
}

// Close gracefully shuts down the producer
func (p *Producer) Close() error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	p.mu.Unlock()

	return p.writer.Close()
}

// SendMessage sends a message to Kafka asynchronously
func (p *Producer) SendMessage(key string, value []byte) error {
	p.mu.RLock()
	if !p.isRunning {
		p.mu.RUnlock()
		return fmt.Errorf("producer is not running")
	}
	p.mu.RUnlock()

	message := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}

	err := p.writer.WriteMessages(context.Background(), message)

	p.mu.Lock()
	if err != nil {
		p.stats.MessagesErrored++
		p.stats.LastErrorTime = time.Now()
		p.stats.LastError = err.Error()
	} else {
		p.stats.MessagesSent++
		p.stats.LastMessageTime = time.Now()
	}
	p.mu.Unlock()

	return err
}

// GetStats returns current producer statistics
func (p *Producer) GetStats() ProducerStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stats
}

// AnalyticsService provides high-level game event emission
type AnalyticsService struct {
	producer *Producer
	enabled  bool
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(producer *Producer, enabled bool) *AnalyticsService {
	return &AnalyticsService{
		producer: producer,
		enabled:  enabled,
	}
}

// IsEnabled returns whether analytics is enabled
func (a *AnalyticsService) IsEnabled() bool {
	return a.enabled
}

// SendEvent publishes one game event, keyed by match id when present so a
// match's events land on one partition in order.
func (a *AnalyticsService) SendEvent(eventType string, data map[string]interface{}) {
	if !a.enabled || a.producer == nil {
		return
	}

	event := GameEvent{
		EventType: EventType(eventType),
		EventID:   uuid.New().String(),
		Timestamp: time.Now(),
		Data:      data,
	}

	value, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal analytics event %s: %v", eventType, err)
		return
	}

	key := eventType
	if matchID, ok := data["match_id"].(string); ok {
		key = matchID
	}

	if err := a.producer.SendMessage(key, value); err != nil {
		log.Printf("Failed to send analytics event %s: %v", eventType, err)
	}
}
