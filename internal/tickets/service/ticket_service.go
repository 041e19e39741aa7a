package service

import (
	"context"
	"fmt"

	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/integration"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/outbox"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/tickets/domain"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/tickets/repository"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/domainevent"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/logger"
)

// SeatView is one seat in a listing, with its live reservation state
type SeatView struct {
	TicketID   string  `json:"ticketId"`
	SeatNumber int     `json:"seatNumber"`
	Price      float64 `json:"price"`
	Purchased  bool    `json:"purchased"`
	Reserved   bool    `json:"reserved"`
}

// TicketService arbitrates concurrent seat claims and executes purchases.
// Reservations are best-effort cache claims; the purchase transaction is the
// authoritative state
type TicketService struct {
	db           domainevent.Beginner
	events       repository.EventRepository
	reservations repository.ReservationRepository
	outbox       outbox.Repository
	dispatcher   *domainevent.Dispatcher
	log          *logger.Logger
}

// NewTicketService creates the service and registers its domain event
// handlers on the given dispatcher
func NewTicketService(
	db domainevent.Beginner,
	events repository.EventRepository,
	reservations repository.ReservationRepository,
	outboxRepo outbox.Repository,
	dispatcher *domainevent.Dispatcher,
) (*TicketService, error) {
	s := &TicketService{
		db:           db,
		events:       events,
		reservations: reservations,
		outbox:       outboxRepo,
		dispatcher:   dispatcher,
		log:          logger.Get(),
	}

	if err := dispatcher.Register(domain.AllTicketsSold{}.EventName(), s.onAllTicketsSold); err != nil {
		return nil, err
	}
	return s, nil
}

// Reserve claims a 15-minute hold on each requested seat for the user.
// The first seat held by someone else fails the request; claims already
// taken are left to expire
func (s *TicketService) Reserve(ctx context.Context, eventID, userID string, ticketIDs []string) error {
	for _, ticketID := range ticketIDs {
		if err := s.reservations.Claim(ctx, eventID, ticketID, userID); err != nil {
			return err
		}
	}

	s.log.Debug("Seats reserved", "event_id", eventID, "user_id", userID, "seats", len(ticketIDs))
	return nil
}

// Purchase transfers the requested seats to the user. The reservation check
// and the ownership check both happen against freshly read state; the store
// serializes concurrent commits on the same seat
func (s *TicketService) Purchase(ctx context.Context, eventID, userID string, ticketIDs []string) error {
	for _, ticketID := range ticketIDs {
		holder, err := s.reservations.Owner(ctx, eventID, ticketID)
		if err != nil {
			return err
		}
		if holder != "" && holder != userID {
			return domain.ErrTicketsAlreadyReserved
		}
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}

	if err := event.PurchaseSeats(userID, ticketIDs); err != nil {
		return err
	}

	uow, err := domainevent.Begin(ctx, s.db, s.dispatcher)
	if err != nil {
		return err
	}
	defer uow.Rollback(ctx)

	uow.Track(event)

	purchased := make([]*domain.Ticket, 0, len(ticketIDs))
	wanted := make(map[string]bool, len(ticketIDs))
	for _, id := range ticketIDs {
		wanted[id] = true
	}
	for _, ticket := range event.Tickets {
		if wanted[ticket.ID] {
			purchased = append(purchased, ticket)
		}
	}
	if err := s.events.UpdateTicketsTx(ctx, uow.Tx(), purchased); err != nil {
		return err
	}

	if err := uow.Commit(ctx); err != nil {
		return err
	}

	// the reservation keys are not deleted; they expire on their own and
	// are irrelevant once purchased_at is set
	s.log.Info("Seats purchased", "event_id", eventID, "user_id", userID, "seats", len(ticketIDs))
	return nil
}

// ListEventTickets gets the seat inventory for an event with live
// purchased/reserved flags
func (s *TicketService) ListEventTickets(ctx context.Context, eventID string) ([]SeatView, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	views := make([]SeatView, 0, len(event.Tickets))
	for _, ticket := range event.Tickets {
		view := SeatView{
			TicketID:   ticket.ID,
			SeatNumber: ticket.SeatNumber,
			Price:      ticket.Price,
			Purchased:  ticket.IsPurchased(),
		}
		if !view.Purchased {
			holder, err := s.reservations.Owner(ctx, eventID, ticket.ID)
			if err != nil {
				return nil, err
			}
			view.Reserved = holder != ""
		}
		views = append(views, view)
	}
	return views, nil
}

// ListUserTickets gets a user's purchased seats
func (s *TicketService) ListUserTickets(ctx context.Context, userID string) ([]*domain.Ticket, error) {
	return s.events.ListTicketsByOwner(ctx, userID)
}

// onAllTicketsSold records the sold-out notification in the outbox within
// the purchase transaction
func (s *TicketService) onAllTicketsSold(ctx context.Context, uow *domainevent.UnitOfWork, e domainevent.Event) error {
	soldOut, ok := e.(domain.AllTicketsSold)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", e, e.EventName())
	}

	msg, err := outbox.NewMessage(
		integration.TypeEventSoldOut,
		soldOut.EventID,
		integration.TopicEventSoldOut,
		integration.EventSoldOut{EventID: soldOut.EventID},
	)
	if err != nil {
		return err
	}

	return s.outbox.CreateTx(ctx, uow.Tx(), msg)
}
