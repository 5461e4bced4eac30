package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Consumer handles Kafka message consumption and analytics aggregation
type Consumer struct {
	reader     *kafka.Reader
	aggregator *Aggregator
	wg         sync.WaitGroup
	isRunning  bool
	mu         sync.RWMutex
	stats      ConsumerStats
}

// ConsumerStats tracks consumer performance metrics
type ConsumerStats struct {
	MessagesProcessed int64     `json:"messages_processed"`
	MessagesErrored   int64     `json:"messages_errored"`
	LastMessageTime   time.Time `json:"last_message_time"`
	LastError         string    `json:"last_error"`
	StartTime         time.Time `json:"start_time"`
}

// ConsumerConfig holds configuration for the Kafka consumer
type ConsumerConfig struct {
	Brokers        []string      `json:"brokers"`
	Topic          string        `json:"topic"`
	GroupID        string        `json:"group_id"`
	MinBytes       int           `json:"min_bytes"`
	MaxBytes       int           `json:"max_bytes"`
	MaxWait        time.Duration `json:"max_wait"`
	CommitInterval time.Duration `json:"commit_interval"`
}

// DefaultConsumerConfig returns a production-ready consumer configuration
func DefaultConsumerConfig(brokers []string) ConsumerConfig {
	return ConsumerConfig{
		Brokers:        brokers,
		Topic:          "tap-race-events",
		GroupID:        "analytics-processor",
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: 1 * time.Second,
	}
}

// NewConsumer creates a new Kafka consumer feeding the aggregator
func NewConsumer(config ConsumerConfig, aggregator *Aggregator) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.GroupID,
		MinBytes:       config.MinBytes,
		MaxBytes:       config.MaxBytes,
		MaxWait:        config.MaxWait,
		CommitInterval: config.CommitInterval,
		ErrorLogger:    kafka.LoggerFunc(log.Printf),
	})

	return &Consumer{
		reader:     reader,
		aggregator: aggregator,
		stats: ConsumerStats{
			StartTime: time.Now(),
		},
	}
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return fmt.Errorf("consumer is already running")
	}
	c.isRunning = true
	c.mu.Unlock()

	log.Printf("Starting Kafka consumer for topic: %s", c.reader.Config().Topic)

	c.wg.Add(1)
	go c.processMessages(ctx)
	return nil
}

// Stop closes the reader and waits for the processing loop to drain.
func (c *Consumer) Stop() error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	err := c.reader.Close()
	c.wg.Wait()
	return err
}

// GetStats returns current consumer statistics
func (c *Consumer) GetStats() ConsumerStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

func (c *Consumer) processMessages(ctx context.Context) {
	defer c.wg.Done()

	for {
		message, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.mu.Lock()
			running := c.isRunning
			c.stats.MessagesErrored++
			c.stats.LastError = err.Error()
			c.mu.Unlock()
			if !running {
				return
			}
			log.Printf("Kafka read error: %v", err)
			continue
		}

		var event GameEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			c.mu.Lock()
			c.stats.MessagesErrored++
			c.stats.LastError = err.Error()
			c.mu.Unlock()
			log.Printf("Failed to decode event at offset %d: %v", message.Offset, err)
			continue
		}

		c.aggregator.Record(event)

		c.mu.Lock()
		c.stats.MessagesProcessed++
		c.stats.LastMessageTime = time.Now()
		c.mu.Unlock()
	}
}
