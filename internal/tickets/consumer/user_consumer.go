package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/integration"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/tickets/domain"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/kafka"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/retry"
)

// UserProjector is the slice of the projection service this consumer needs
type UserProjector interface {
	UpsertUser(ctx context.Context, user *domain.User) error
}

// UserConsumer keeps the local user projection current from identity messages
type UserConsumer struct {
	projections UserProjector
}

// NewUserConsumer creates a new user projection consumer
func NewUserConsumer(projections UserProjector) *UserConsumer {
	return &UserConsumer{projections: projections}
}

// Handlers returns the topic routing for this consumer
func (c *UserConsumer) Handlers() map[string]integration.HandlerFunc {
	return map[string]integration.HandlerFunc{
		integration.TopicUserUpserted:   c.handleUserUpserted,
		integration.TopicUserRegistered: c.handleUserRegistered,
	}
}

func (c *UserConsumer) handleUserUpserted(ctx context.Context, record *kafka.Record) error {
	var msg integration.UserUpserted
	if err := json.Unmarshal(record.Value, &msg); err != nil {
		return retry.Permanent(fmt.Errorf("malformed UserUpserted payload: %w", err))
	}
	if msg.ID == "" {
		return retry.Permanent(fmt.Errorf("UserUpserted payload is missing Id"))
	}

	return c.projections.UpsertUser(ctx, &domain.User{
		ID:       msg.ID,
		FullName: msg.FullName,
		Email:    msg.Email,
	})
}

func (c *UserConsumer) handleUserRegistered(ctx context.Context, record *kafka.Record) error {
	var msg integration.UserRegistered
	if err := json.Unmarshal(record.Value, &msg); err != nil {
		return retry.Permanent(fmt.Errorf("malformed UserRegistered payload: %w", err))
	}
	if msg.UserID == "" {
		return retry.Permanent(fmt.Errorf("UserRegistered payload is missing UserId"))
	}

	// registration carries raw attributes from the identity source
	return c.projections.UpsertUser(ctx, &domain.User{
		ID:       msg.UserID,
		FullName: msg.Details["FullName"],
		Email:    msg.Details["Email"],
	})
}
