package domainevent

import (
	"context"
	"fmt"
)

// Handler processes one domain event inside the unit of work that raised it.
// Handlers may write through the unit of work's transaction and track further
// aggregates; anything they change commits atomically with the original change
type Handler func(ctx context.Context, uow *UnitOfWork, e Event) error

// Dispatcher routes domain events to their registered handlers. The routing
// table is built at construction time; a missing registration surfaces as an
// error when dispatching, aborting the whole unit of work
type Dispatcher struct {
	handlers map[string]Handler
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

// Register binds an event name to its handler. Registering the same event
// name twice is a configuration error
func (d *Dispatcher) Register(eventName string, h Handler) error {
	if eventName == "" {
		return fmt.Errorf("event name must not be empty")
	}
	if h == nil {
		return fmt.Errorf("handler for %s must not be nil", eventName)
	}
	if _, exists := d.handlers[eventName]; exists {
		return fmt.Errorf("handler for %s already registered", eventName)
	}
	d.handlers[eventName] = h
	return nil
}

// MustRegister is Register but panics on error, for wiring at startup
func (d *Dispatcher) MustRegister(eventName string, h Handler) {
	if err := d.Register(eventName, h); err != nil {
		panic(err)
	}
}

// Dispatch routes a single event to its handler
func (d *Dispatcher) Dispatch(ctx context.Context, uow *UnitOfWork, e Event) error {
	h, ok := d.handlers[e.EventName()]
	if !ok {
		return fmt.Errorf("no handler registered for domain event %s", e.EventName())
	}
	if err := h(ctx, uow, e); err != nil {
		return fmt.Errorf("handler for %s failed: %w", e.EventName(), err)
	}
	return nil
}
