// Package integration defines the wire contracts exchanged between the
// Events and Tickets modules through the message broker. Payload field
// names are part of the published contract and must not change shape.
package integration

import "time"

// Topics, one queue per message type. Partitioning by aggregate id keeps
// delivery FIFO per destination queue; nothing is guaranteed across topics.
const (
	TopicEventUpserted  = "events.event-upserted"
	TopicEventSoldOut   = "tickets.event-sold-out"
	TopicUserUpserted   = "users.user-upserted"
	TopicUserRegistered = "users.user-registered"
)

// Message type names carried in outbox rows and broker headers
const (
	TypeEventUpserted  = "EventUpserted"
	TypeEventSoldOut   = "EventSoldOut"
	TypeUserUpserted   = "UserUpserted"
	TypeUserRegistered = "UserRegistered"
)

// EventUpserted announces an event create or update from the Events module
type EventUpserted struct {
	ID        string    `json:"Id"`
	EventName string    `json:"EventName"`
	StartDate time.Time `json:"StartDate"`
	EndDate   time.Time `json:"EndDate"`
	Venue     string    `json:"Venue"`
	Price     float64   `json:"Price"`
}

// EventSoldOut announces that every seat of an event has been purchased
type EventSoldOut struct {
	EventID string `json:"EventId"`
}

// UserUpserted announces a user create or update
type UserUpserted struct {
	ID       string `json:"Id"`
	FullName string `json:"FullName"`
	Email    string `json:"Email"`
}

// UserRegistered carries raw attributes from an external identity source
type UserRegistered struct {
	UserID  string            `json:"UserId"`
	Details map[string]string `json:"Details"`
}
