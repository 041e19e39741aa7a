package service

import (
	"context"
	"errors"

	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/integration"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/tickets/domain"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/tickets/repository"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/venues"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/domainevent"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/logger"
)

// ProjectionService rebuilds the Tickets module's local projections from
// integration messages. Every apply is idempotent by entity id
type ProjectionService struct {
	db         domainevent.Beginner
	events     repository.EventRepository
	users      repository.UserRepository
	dispatcher *domainevent.Dispatcher
	log        *logger.Logger
}

// NewProjectionService creates a new projection service
func NewProjectionService(
	db domainevent.Beginner,
	events repository.EventRepository,
	users repository.UserRepository,
	dispatcher *domainevent.Dispatcher,
) *ProjectionService {
	return &ProjectionService{
		db:         db,
		events:     events,
		users:      users,
		dispatcher: dispatcher,
		log:        logger.Get(),
	}
}

// ApplyEventUpserted upserts the event projection. A first announcement
// releases the venue's full seat inventory; a re-announcement updates the
// projection and reprices only the seats still for sale
func (s *ProjectionService) ApplyEventUpserted(ctx context.Context, msg integration.EventUpserted) error {
	venue, ok := venues.Get(msg.Venue)
	if !ok {
		return domain.ErrUnknownVenue
	}

	existing, err := s.events.GetByID(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return s.createProjection(ctx, msg, venue)
		}
		return err
	}

	return s.updateProjection(ctx, existing, msg, venue)
}

func (s *ProjectionService) createProjection(ctx context.Context, msg integration.EventUpserted, venue venues.Venue) error {
	event := domain.NewEvent(msg.ID, msg.EventName, msg.StartDate, msg.EndDate,
		venue.ID, venue.Name, venue.Capacity, msg.Price)
	if err := event.ReleaseSeats(); err != nil {
		return err
	}

	uow, err := domainevent.Begin(ctx, s.db, s.dispatcher)
	if err != nil {
		return err
	}
	defer uow.Rollback(ctx)

	uow.Track(event)
	if err := s.events.CreateTx(ctx, uow.Tx(), event); err != nil {
		return err
	}
	if err := uow.Commit(ctx); err != nil {
		return err
	}

	s.log.Info("Event projected, seats released",
		"event_id", event.ID, "venue_id", venue.ID, "seats", venue.Capacity)
	return nil
}

func (s *ProjectionService) updateProjection(ctx context.Context, event *domain.Event, msg integration.EventUpserted, venue venues.Venue) error {
	event.ApplyUpdate(msg.EventName, msg.StartDate, msg.EndDate,
		venue.ID, venue.Name, venue.Capacity, msg.Price)

	touched, err := event.RepriceUnsoldSeats()
	if err != nil {
		return err
	}

	touchedSet := make(map[string]bool, len(touched))
	for _, id := range touched {
		touchedSet[id] = true
	}
	dirty := make([]*domain.Ticket, 0, len(touched))
	for _, ticket := range event.Tickets {
		if touchedSet[ticket.ID] {
			dirty = append(dirty, ticket)
		}
	}

	uow, err := domainevent.Begin(ctx, s.db, s.dispatcher)
	if err != nil {
		return err
	}
	defer uow.Rollback(ctx)

	uow.Track(event)
	if err := s.events.UpdateTx(ctx, uow.Tx(), event); err != nil {
		return err
	}
	if len(dirty) > 0 {
		if err := s.events.UpdateTicketsTx(ctx, uow.Tx(), dirty); err != nil {
			return err
		}
	}
	if err := uow.Commit(ctx); err != nil {
		return err
	}

	s.log.Info("Event projection updated", "event_id", event.ID, "repriced_seats", len(dirty))
	return nil
}

// UpsertUser overwrites the user projection by id
func (s *ProjectionService) UpsertUser(ctx context.Context, user *domain.User) error {
	return s.users.Upsert(ctx, user)
}
