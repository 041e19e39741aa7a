package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/integration"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/tickets/domain"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/kafka"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/retry"
)

// EventProjector is the slice of the projection service this consumer needs
type EventProjector interface {
	ApplyEventUpserted(ctx context.Context, msg integration.EventUpserted) error
}

// EventConsumer applies event announcements from the Events module
type EventConsumer struct {
	projections EventProjector
}

// NewEventConsumer creates a new event announcement consumer
func NewEventConsumer(projections EventProjector) *EventConsumer {
	return &EventConsumer{projections: projections}
}

// Handlers returns the topic routing for this consumer
func (c *EventConsumer) Handlers() map[string]integration.HandlerFunc {
	return map[string]integration.HandlerFunc{
		integration.TopicEventUpserted: c.handleEventUpserted,
	}
}

func (c *EventConsumer) handleEventUpserted(ctx context.Context, record *kafka.Record) error {
	var msg integration.EventUpserted
	if err := json.Unmarshal(record.Value, &msg); err != nil {
		return retry.Permanent(fmt.Errorf("malformed EventUpserted payload: %w", err))
	}
	if msg.ID == "" {
		return retry.Permanent(fmt.Errorf("EventUpserted payload is missing Id"))
	}

	if err := c.projections.ApplyEventUpserted(ctx, msg); err != nil {
		if errors.Is(err, domain.ErrUnknownVenue) {
			// the catalogue is fixed; retrying cannot resolve the venue
			return retry.Permanent(err)
		}
		return err
	}
	return nil
}
