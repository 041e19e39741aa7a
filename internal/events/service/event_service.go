package service

import (
	"context"
	"fmt"
	"time"

	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/events/domain"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/events/repository"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/integration"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/outbox"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/venues"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/domainevent"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/logger"
)

// EventService owns event scheduling. Every mutation runs in a unit of work;
// the EventUpserted handler records the announcement in the outbox inside the
// same transaction, so an event change and its broadcast commit or roll back
// together
type EventService struct {
	db         domainevent.Beginner
	events     repository.EventRepository
	outbox     outbox.Repository
	dispatcher *domainevent.Dispatcher
	log        *logger.Logger
}

// NewEventService creates the service and registers its domain event handlers
// on the given dispatcher
func NewEventService(
	db domainevent.Beginner,
	events repository.EventRepository,
	outboxRepo outbox.Repository,
	dispatcher *domainevent.Dispatcher,
) (*EventService, error) {
	s := &EventService{
		db:         db,
		events:     events,
		outbox:     outboxRepo,
		dispatcher: dispatcher,
		log:        logger.Get(),
	}

	if err := dispatcher.Register(domain.Upserted{}.EventName(), s.onEventUpserted); err != nil {
		return nil, err
	}
	return s, nil
}

// CreateEvent schedules a new event and returns its id
func (s *EventService) CreateEvent(ctx context.Context, name string, start, end time.Time, venueID string, price float64) (string, error) {
	if _, ok := venues.Get(venueID); !ok {
		return "", domain.ErrVenueNotFound
	}

	if err := s.ensureVenueAvailable(ctx, venueID, "", start, end); err != nil {
		return "", err
	}

	event, err := domain.NewEvent(name, start, end, venueID, price)
	if err != nil {
		return "", err
	}

	uow, err := domainevent.Begin(ctx, s.db, s.dispatcher)
	if err != nil {
		return "", err
	}
	defer uow.Rollback(ctx)

	uow.Track(event)
	if err := s.events.CreateTx(ctx, uow.Tx(), event); err != nil {
		return "", err
	}
	if err := uow.Commit(ctx); err != nil {
		return "", err
	}

	s.log.Info("Event created", "event_id", event.ID, "venue_id", venueID)
	return event.ID, nil
}

// UpdateEvent changes an event's name, schedule and price
func (s *EventService) UpdateEvent(ctx context.Context, id, name string, start, end time.Time, price float64) error {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.ensureVenueAvailable(ctx, event.VenueID, event.ID, start, end); err != nil {
		return err
	}

	if err := event.Update(name, start, end, price); err != nil {
		return err
	}

	return s.persist(ctx, event)
}

// UpdateEventVenue moves an event to another venue
func (s *EventService) UpdateEventVenue(ctx context.Context, id, venueID string) error {
	if _, ok := venues.Get(venueID); !ok {
		return domain.ErrVenueNotFound
	}

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.ensureVenueAvailable(ctx, venueID, event.ID, event.StartDate, event.EndDate); err != nil {
		return err
	}

	event.UpdateVenue(venueID)
	return s.persist(ctx, event)
}

// MarkSoldOut flips an event's sold-out flag. Called by the EventSoldOut
// consumer; idempotent on redelivery
func (s *EventService) MarkSoldOut(ctx context.Context, id string) error {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if event.SoldOut {
		return nil
	}

	event.MarkSoldOut()
	if err := s.persist(ctx, event); err != nil {
		return err
	}

	s.log.Info("Event marked sold out", "event_id", id)
	return nil
}

// GetEvent gets a single event by id
func (s *EventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	return s.events.GetByID(ctx, id)
}

// ListUpcomingEvents gets future events, earliest first
func (s *EventService) ListUpcomingEvents(ctx context.Context) ([]*domain.Event, error) {
	return s.events.ListUpcoming(ctx, time.Now())
}

func (s *EventService) persist(ctx context.Context, event *domain.Event) error {
	uow, err := domainevent.Begin(ctx, s.db, s.dispatcher)
	if err != nil {
		return err
	}
	defer uow.Rollback(ctx)

	uow.Track(event)
	if err := s.events.UpdateTx(ctx, uow.Tx(), event); err != nil {
		return err
	}
	return uow.Commit(ctx)
}

// ensureVenueAvailable rejects a schedule that collides with any other event
// at the same venue. Boundaries count as collisions on both ends
func (s *EventService) ensureVenueAvailable(ctx context.Context, venueID, selfID string, start, end time.Time) error {
	existing, err := s.events.ListByVenue(ctx, venueID)
	if err != nil {
		return fmt.Errorf("failed to check venue availability: %w", err)
	}

	for _, other := range existing {
		if other.ID == selfID {
			continue
		}
		if other.Overlaps(start, end) {
			return domain.ErrVenueUnavailable
		}
	}
	return nil
}

// onEventUpserted records the cross-module announcement in the outbox within
// the unit of work that changed the event
func (s *EventService) onEventUpserted(ctx context.Context, uow *domainevent.UnitOfWork, e domainevent.Event) error {
	upserted, ok := e.(domain.Upserted)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", e, e.EventName())
	}
	event := upserted.Event

	msg, err := outbox.NewMessage(
		integration.TypeEventUpserted,
		event.ID,
		integration.TopicEventUpserted,
		integration.EventUpserted{
			ID:        event.ID,
			EventName: event.Name,
			StartDate: event.StartDate,
			EndDate:   event.EndDate,
			Venue:     event.VenueID,
			Price:     event.Price,
		},
	)
	if err != nil {
		return err
	}

	return s.outbox.CreateTx(ctx, uow.Tx(), msg)
}
