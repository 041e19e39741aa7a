package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/kafka"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/logger"
)

// Producer publishes outbox messages to the broker
type Producer interface {
	Produce(ctx context.Context, msg *kafka.Message) error
}

// RelayConfig contains configuration for the outbox relay
type RelayConfig struct {
	// PollInterval is the interval between polls for pending messages
	PollInterval time.Duration
	// BatchSize is the number of messages fetched per poll
	BatchSize int
	// RetryInterval is the interval between retries of failed messages
	RetryInterval time.Duration
	// CleanupInterval is the interval between cleanups of delivered messages
	CleanupInterval time.Duration
	// CleanupRetentionDays is how long delivered messages are retained
	CleanupRetentionDays int
}

// DefaultRelayConfig returns default configuration
func DefaultRelayConfig() *RelayConfig {
	return &RelayConfig{
		PollInterval:         100 * time.Millisecond,
		BatchSize:            100,
		RetryInterval:        5 * time.Second,
		CleanupInterval:      time.Hour,
		CleanupRetentionDays: 7,
	}
}

// Relay polls the outbox table and delivers messages to the broker with
// at-least-once semantics: a crash between publish and MarkPublished means
// the message is sent again on the next poll
type Relay struct {
	repo     Repository
	producer Producer
	config   *RelayConfig
	log      *logger.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// NewRelay creates a new outbox relay
func NewRelay(repo Repository, producer Producer, config *RelayConfig) *Relay {
	if config == nil {
		config = DefaultRelayConfig()
	}

	return &Relay{
		repo:     repo,
		producer: producer,
		config:   config,
		log:      logger.Get(),
		stopCh:   make(chan struct{}),
	}
}

// Start starts the relay goroutines
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("outbox relay already running")
	}
	r.running = true
	r.mu.Unlock()

	r.log.Info("Starting outbox relay")

	r.wg.Add(3)
	go r.pollPending(ctx)
	go r.retryFailed(ctx)
	go r.cleanup(ctx)

	return nil
}

// Stop stops the relay and waits for in-flight deliveries
func (r *Relay) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopCh)
	r.wg.Wait()
	r.log.Info("Outbox relay stopped")
}

func (r *Relay) pollPending(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.deliverBatch(ctx, r.repo.GetPending)
		}
	}
}

func (r *Relay) retryFailed(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.deliverBatch(ctx, r.repo.GetFailed)
		}
	}
}

func (r *Relay) cleanup(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			deleted, err := r.repo.DeletePublished(ctx, r.config.CleanupRetentionDays)
			if err != nil {
				r.log.Error("Failed to clean up delivered messages", "error", err)
			} else if deleted > 0 {
				r.log.Info("Cleaned up delivered outbox messages", "count", deleted)
			}
		}
	}
}

type fetchFunc func(ctx context.Context, limit int) ([]*Message, error)

// deliverBatch fetches one batch and publishes each message, recording the
// outcome per message so a single bad message never blocks the rest
func (r *Relay) deliverBatch(ctx context.Context, fetch fetchFunc) {
	messages, err := fetch(ctx, r.config.BatchSize)
	if err != nil {
		r.log.Error("Failed to fetch outbox messages", "error", err)
		return
	}

	for _, msg := range messages {
		if err := r.publish(ctx, msg); err != nil {
			r.log.Error("Failed to deliver outbox message",
				"message_id", msg.ID,
				"message_type", msg.MessageType,
				"attempt", msg.RetryCount+1,
				"error", err)
			if markErr := r.repo.MarkFailed(ctx, msg.ID, err.Error()); markErr != nil {
				r.log.Error("Failed to mark message as failed", "message_id", msg.ID, "error", markErr)
			}
			continue
		}

		if markErr := r.repo.MarkPublished(ctx, msg.ID); markErr != nil {
			// Delivery succeeded but the bookkeeping write failed; the message
			// will be sent again, which consumers tolerate
			r.log.Error("Failed to mark message as published", "message_id", msg.ID, "error", markErr)
		}
	}
}

func (r *Relay) publish(ctx context.Context, msg *Message) error {
	return r.producer.Produce(ctx, &kafka.Message{
		Topic: msg.Topic,
		Key:   []byte(msg.PartitionKey),
		Value: msg.Payload,
		Headers: map[string]string{
			"message_id":   msg.ID,
			"message_type": msg.MessageType,
			"aggregate_id": msg.AggregateID,
			"content_type": "application/json",
		},
		Timestamp: time.Now(),
	})
}
