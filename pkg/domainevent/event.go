package domainevent

// Event is an in-process notification raised by an aggregate during a unit
// of work and consumed before that unit of work commits
type Event interface {
	EventName() string
}

// Raiser is implemented by aggregates that buffer domain events
type Raiser interface {
	PendingEvents() []Event
	ClearEvents()
}

// Buffer is an append-only domain event buffer, embedded by aggregates
type Buffer struct {
	pending []Event
}

// Raise appends an event to the buffer
func (b *Buffer) Raise(e Event) {
	b.pending = append(b.pending, e)
}

// PendingEvents returns the buffered events in raise order
func (b *Buffer) PendingEvents() []Event {
	return b.pending
}

// ClearEvents empties the buffer
func (b *Buffer) ClearEvents() {
	b.pending = nil
}
