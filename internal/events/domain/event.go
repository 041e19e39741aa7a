package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/domainevent"
)

// Upserted is raised whenever an event is created or its details change.
// It carries the aggregate so the handler can build the announcement payload
type Upserted struct {
	Event *Event
}

// EventName implements domainevent.Event
func (Upserted) EventName() string { return "EventUpserted" }

// Event is the scheduling aggregate. It owns identity, schedule, venue and
// price; seat inventory lives in the Tickets module and is only reached
// through integration messages
type Event struct {
	domainevent.Buffer

	ID        string
	Name      string
	StartDate time.Time
	EndDate   time.Time
	VenueID   string
	Price     float64
	SoldOut   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewEvent creates a new event and raises Upserted
func NewEvent(name string, start, end time.Time, venueID string, price float64) (*Event, error) {
	if err := validateSchedule(name, start, end, price); err != nil {
		return nil, err
	}

	now := time.Now()
	event := &Event{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		StartDate: start,
		EndDate:   end,
		VenueID:   venueID,
		Price:     price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	event.Raise(Upserted{Event: event})
	return event, nil
}

// Update changes the event's details and raises Upserted. Schedule rules
// apply the same as on creation
func (e *Event) Update(name string, start, end time.Time, price float64) error {
	if err := validateSchedule(name, start, end, price); err != nil {
		return err
	}

	e.Name = strings.TrimSpace(name)
	e.StartDate = start
	e.EndDate = end
	e.Price = price
	e.UpdatedAt = time.Now()
	e.Raise(Upserted{Event: e})
	return nil
}

// UpdateVenue moves the event to another venue and raises Upserted so the
// Tickets module re-announces the event at the new location
func (e *Event) UpdateVenue(venueID string) {
	if e.VenueID == venueID {
		return
	}
	e.VenueID = venueID
	e.UpdatedAt = time.Now()
	e.Raise(Upserted{Event: e})
}

// MarkSoldOut flips the sold-out flag. Idempotent, safe on redelivery
func (e *Event) MarkSoldOut() {
	if e.SoldOut {
		return
	}
	e.SoldOut = true
	e.UpdatedAt = time.Now()
}

// Overlaps reports whether the given window collides with this event's.
// Boundaries count as overlap on both ends
func (e *Event) Overlaps(start, end time.Time) bool {
	startInRange := !start.Before(e.StartDate) && !start.After(e.EndDate)
	endInRange := !end.Before(e.StartDate) && !end.After(e.EndDate)
	containing := start.Before(e.StartDate) && end.After(e.EndDate)
	return startInRange || endInRange || containing
}

func validateSchedule(name string, start, end time.Time, price float64) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	if price < 0 {
		return ErrInvalidPrice
	}
	if end.Before(start) {
		return ErrEndBeforeStart
	}
	now := time.Now()
	if start.Before(now) || end.Before(now) {
		return ErrDateInPast
	}
	return nil
}
