package domain

import (
	"time"

	"github.com/google/uuid"
)

// Ticket is one sellable seat. Persisted state only distinguishes unowned
// from owned; "reserved" lives in the cache, never here. Once purchased,
// owner and price are frozen
type Ticket struct {
	ID          string
	EventID     string
	SeatNumber  int
	Price       float64
	OwnerID     *string
	PurchasedAt *time.Time
}

// NewTicket creates an unowned seat
func NewTicket(eventID string, seatNumber int, price float64) *Ticket {
	return &Ticket{
		ID:         uuid.New().String(),
		EventID:    eventID,
		SeatNumber: seatNumber,
		Price:      price,
	}
}

// IsPurchased reports whether the seat has an owner
func (t *Ticket) IsPurchased() bool {
	return t.OwnerID != nil
}

// Purchase transfers the seat to the given owner. Fails if any owner exists,
// including the requester themselves
func (t *Ticket) Purchase(ownerID string) error {
	if t.IsPurchased() {
		return ErrTicketsNotAvailable
	}
	now := time.Now()
	t.OwnerID = &ownerID
	t.PurchasedAt = &now
	return nil
}

// UpdatePrice sets a new price on an unowned seat. A purchased seat keeps
// the price it was sold at; returns whether the price changed
func (t *Ticket) UpdatePrice(price float64) bool {
	if t.IsPurchased() || t.Price == price {
		return false
	}
	t.Price = price
	return true
}
