package integration

import (
	"context"
	"time"

	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/kafka"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/logger"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/retry"
)

// pause between polls after a fetch error, so a broken broker connection
// does not spin the loop
const defaultPollBackoff = time.Second

// HandlerFunc processes one delivered record. Handlers must be idempotent by
// entity id: the relay delivers at least once and the runner redelivers on
// commit failure
type HandlerFunc func(ctx context.Context, record *kafka.Record) error

// RecordSource is the consumer side of pkg/kafka, narrowed for the runner
type RecordSource interface {
	Poll(ctx context.Context) ([]*kafka.Record, error)
	CommitRecords(ctx context.Context, records []*kafka.Record) error
}

// Runner polls a consumer group and routes records to per-topic handlers.
// A failing handler is retried twice, at 500ms then 1000ms; after that the
// delivery is logged as failed and the offset is committed anyway
type Runner struct {
	name        string
	source      RecordSource
	handlers    map[string]HandlerFunc
	retrier     *retry.Retrier
	pollBackoff time.Duration
	log         *logger.Logger
}

// NewRunner creates a consumer runner routing topics to handlers
func NewRunner(name string, source RecordSource, handlers map[string]HandlerFunc) *Runner {
	return &Runner{
		name:        name,
		source:      source,
		handlers:    handlers,
		retrier:     retry.New(retry.ConsumerConfig()),
		pollBackoff: defaultPollBackoff,
		log:         logger.Get().With("consumer", name),
	}
}

// Run polls until the context is cancelled
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("Consumer started")

	for {
		records, err := r.source.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				r.log.Info("Consumer stopped")
				return nil
			}
			r.log.Error("Poll failed", "error", err)
			select {
			case <-ctx.Done():
				r.log.Info("Consumer stopped")
				return nil
			case <-time.After(r.pollBackoff):
			}
			continue
		}

		r.processBatch(ctx, records)

		if len(records) > 0 {
			if err := r.source.CommitRecords(ctx, records); err != nil {
				// redelivery after a commit failure is absorbed by handler idempotency
				r.log.Error("Offset commit failed", "error", err)
			}
		}
	}
}

func (r *Runner) processBatch(ctx context.Context, records []*kafka.Record) {
	for _, record := range records {
		handler, ok := r.handlers[record.Topic]
		if !ok {
			r.log.Warn("No handler for topic", "topic", record.Topic)
			continue
		}

		result := r.retrier.Do(ctx, func(ctx context.Context) error {
			return handler(ctx, record)
		})
		if result.Err != nil {
			r.log.Error("Delivery failed, dropping message",
				"topic", record.Topic,
				"key", string(record.Key),
				"attempts", result.Attempts,
				"error", result.LastError)
		}
	}
}
