package domain

import "errors"

// Client-facing validation errors. The message text is part of the API
// contract; handlers return it verbatim
var (
	ErrEventNotFound    = errors.New("Event does not exist")
	ErrVenueNotFound    = errors.New("Venue does not exist")
	ErrVenueUnavailable = errors.New("Venue is not available at the selected time")
	ErrEndBeforeStart   = errors.New("Event end date must not be before the start date")
	ErrDateInPast       = errors.New("Event dates must not be in the past")
	ErrNameRequired     = errors.New("Event name is required")
	ErrInvalidPrice     = errors.New("Event price must not be negative")
)
