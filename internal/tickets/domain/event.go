package domain

import (
	"time"

	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/domainevent"
)

// AllTicketsSold is raised when a purchase takes the last unowned seat.
// It travels back to the Events module as a sold-out notification
type AllTicketsSold struct {
	EventID string
}

// EventName implements domainevent.Event
func (AllTicketsSold) EventName() string { return "AllTicketsSold" }

// Event is the Tickets module's projection of an announced event, plus the
// seat inventory it owns. It is created and updated only by integration
// messages from the Events module
type Event struct {
	domainevent.Buffer

	ID        string
	Name      string
	StartDate time.Time
	EndDate   time.Time
	VenueID   string
	VenueName string
	Capacity  int
	Price     float64
	Tickets   []*Ticket
}

// NewEvent creates a projection from an announcement
func NewEvent(id, name string, start, end time.Time, venueID, venueName string, capacity int, price float64) *Event {
	return &Event{
		ID:        id,
		Name:      name,
		StartDate: start,
		EndDate:   end,
		VenueID:   venueID,
		VenueName: venueName,
		Capacity:  capacity,
		Price:     price,
	}
}

// ApplyUpdate overwrites the projection with re-announced details. Seat
// pricing is handled separately by RepriceUnsoldSeats
func (e *Event) ApplyUpdate(name string, start, end time.Time, venueID, venueName string, capacity int, price float64) {
	e.Name = name
	e.StartDate = start
	e.EndDate = end
	e.VenueID = venueID
	e.VenueName = venueName
	e.Capacity = capacity
	e.Price = price
}

// ReleaseSeats creates one unowned ticket per venue seat at the event's
// current price. Guarded against duplicate release
func (e *Event) ReleaseSeats() error {
	if len(e.Tickets) > 0 {
		return ErrSeatsAlreadyReleased
	}

	e.Tickets = make([]*Ticket, 0, e.Capacity)
	for seat := 1; seat <= e.Capacity; seat++ {
		e.Tickets = append(e.Tickets, NewTicket(e.ID, seat, e.Price))
	}
	return nil
}

// RepriceUnsoldSeats applies the event's current price to every unowned seat
// and returns the ids of the seats it changed. Purchased seats keep the price
// they were sold at
func (e *Event) RepriceUnsoldSeats() ([]string, error) {
	if len(e.Tickets) == 0 {
		return nil, ErrNoSeatsReleased
	}

	var touched []string
	for _, ticket := range e.Tickets {
		if ticket.UpdatePrice(e.Price) {
			touched = append(touched, ticket.ID)
		}
	}
	return touched, nil
}

// PurchaseSeats transfers the requested seats to the owner, all or nothing.
// Taking the last unowned seat raises AllTicketsSold
func (e *Event) PurchaseSeats(ownerID string, ticketIDs []string) error {
	wanted := make(map[string]bool, len(ticketIDs))
	for _, id := range ticketIDs {
		wanted[id] = true
	}

	requested := make([]*Ticket, 0, len(ticketIDs))
	for _, ticket := range e.Tickets {
		if wanted[ticket.ID] {
			requested = append(requested, ticket)
		}
	}
	// duplicates in the request fall out here too
	if len(requested) != len(ticketIDs) {
		return ErrTicketsDoNotExist
	}

	for _, ticket := range requested {
		if ticket.IsPurchased() {
			return ErrTicketsNotAvailable
		}
	}

	for _, ticket := range requested {
		if err := ticket.Purchase(ownerID); err != nil {
			return err
		}
	}

	if e.UnownedSeats() == 0 {
		e.Raise(AllTicketsSold{EventID: e.ID})
	}
	return nil
}

// UnownedSeats counts the seats still for sale
func (e *Event) UnownedSeats() int {
	count := 0
	for _, ticket := range e.Tickets {
		if !ticket.IsPurchased() {
			count++
		}
	}
	return count
}
