package domain

import "errors"

// Client-facing errors. The message text is part of the API contract;
// handlers return it verbatim
var (
	ErrTicketsAlreadyReserved = errors.New("Tickets already reserved")
	ErrEventNotFound          = errors.New("Event does not exist")
	ErrTicketsDoNotExist      = errors.New("One or more tickets do not exist")
	ErrTicketsNotAvailable    = errors.New("Tickets are not available")
)

// Internal consistency guards
var (
	ErrSeatsAlreadyReleased = errors.New("seats have already been released for this event")
	ErrNoSeatsReleased      = errors.New("no seats have been released for this event")
	ErrUnknownVenue         = errors.New("event references an unknown venue")
)
