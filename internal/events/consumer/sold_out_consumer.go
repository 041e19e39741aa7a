package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/events/domain"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/integration"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/kafka"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/retry"
)

// EventMarker is the slice of the event service the consumer needs
type EventMarker interface {
	MarkSoldOut(ctx context.Context, id string) error
}

// SoldOutConsumer applies EventSoldOut notifications from the Tickets module
type SoldOutConsumer struct {
	events EventMarker
}

// NewSoldOutConsumer creates a new sold-out consumer
func NewSoldOutConsumer(events EventMarker) *SoldOutConsumer {
	return &SoldOutConsumer{events: events}
}

// Handlers returns the topic routing for this consumer
func (c *SoldOutConsumer) Handlers() map[string]integration.HandlerFunc {
	return map[string]integration.HandlerFunc{
		integration.TopicEventSoldOut: c.handleEventSoldOut,
	}
}

func (c *SoldOutConsumer) handleEventSoldOut(ctx context.Context, record *kafka.Record) error {
	var msg integration.EventSoldOut
	if err := json.Unmarshal(record.Value, &msg); err != nil {
		return retry.Permanent(fmt.Errorf("malformed EventSoldOut payload: %w", err))
	}
	if msg.EventID == "" {
		return retry.Permanent(fmt.Errorf("EventSoldOut payload is missing EventId"))
	}

	if err := c.events.MarkSoldOut(ctx, msg.EventID); err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			// the event was never announced here; retrying cannot help
			return retry.Permanent(err)
		}
		return err
	}
	return nil
}
