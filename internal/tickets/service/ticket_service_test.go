package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/integration"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/outbox"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/tickets/domain"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/domainevent"
)

type fakeTx struct {
	pgx.Tx
	committed bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	return nil
}

type fakeDB struct {
	tx *fakeTx
}

func (d *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	d.tx = &fakeTx{}
	return d.tx, nil
}

// memEventRepository stores aggregates in a map. With loadSnapshots set,
// GetByID returns an independent copy per call the way a row read does, and
// UpdateTicketsTx writes seat state back to the stored aggregate; beforeUpdate
// runs once just before a write lands so tests can interleave a second buyer
type memEventRepository struct {
	events         map[string]*domain.Event
	updatedTickets [][]*domain.Ticket
	loadSnapshots  bool
	beforeUpdate   func()
}

func newMemEventRepository(events ...*domain.Event) *memEventRepository {
	m := &memEventRepository{events: make(map[string]*domain.Event)}
	for _, e := range events {
		m.events[e.ID] = e
	}
	return m
}

func (m *memEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	event, ok := m.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	if m.loadSnapshots {
		return copyEvent(event), nil
	}
	return event, nil
}

func copyEvent(event *domain.Event) *domain.Event {
	clone := *event
	clone.Buffer = domainevent.Buffer{}
	clone.Tickets = make([]*domain.Ticket, len(event.Tickets))
	for i, ticket := range event.Tickets {
		seat := *ticket
		clone.Tickets[i] = &seat
	}
	return &clone
}

func (m *memEventRepository) CreateTx(ctx context.Context, tx pgx.Tx, event *domain.Event) error {
	m.events[event.ID] = event
	return nil
}

func (m *memEventRepository) UpdateTx(ctx context.Context, tx pgx.Tx, event *domain.Event) error {
	m.events[event.ID] = event
	return nil
}

func (m *memEventRepository) UpdateTicketsTx(ctx context.Context, tx pgx.Tx, tickets []*domain.Ticket) error {
	if m.beforeUpdate != nil {
		hook := m.beforeUpdate
		m.beforeUpdate = nil
		hook()
	}
	if m.loadSnapshots {
		for _, ticket := range tickets {
			for _, row := range m.events[ticket.EventID].Tickets {
				if row.ID == ticket.ID {
					row.OwnerID = ticket.OwnerID
					row.PurchasedAt = ticket.PurchasedAt
					row.Price = ticket.Price
				}
			}
		}
	}
	m.updatedTickets = append(m.updatedTickets, tickets)
	return nil
}

func (m *memEventRepository) ListTicketsByOwner(ctx context.Context, ownerID string) ([]*domain.Ticket, error) {
	var out []*domain.Ticket
	for _, event := range m.events {
		for _, ticket := range event.Tickets {
			if ticket.OwnerID != nil && *ticket.OwnerID == ownerID {
				out = append(out, ticket)
			}
		}
	}
	return out, nil
}

// memReservations mirrors the cache repository's read-then-write behavior.
// beforeWrite, when set, runs once between the read and the write so tests
// can interleave a second claimer into the gap
type memReservations struct {
	owners      map[string]string
	beforeWrite func()
}

func newMemReservations() *memReservations {
	return &memReservations{owners: make(map[string]string)}
}

func (m *memReservations) key(eventID, ticketID string) string {
	return fmt.Sprintf("event:%s:ticket:%s:reservation", eventID, ticketID)
}

func (m *memReservations) Claim(ctx context.Context, eventID, ticketID, userID string) error {
	key := m.key(eventID, ticketID)
	if holder, ok := m.owners[key]; ok && holder != userID {
		return domain.ErrTicketsAlreadyReserved
	}
	if m.beforeWrite != nil {
		hook := m.beforeWrite
		m.beforeWrite = nil
		hook()
	}
	m.owners[key] = userID
	return nil
}

func (m *memReservations) Owner(ctx context.Context, eventID, ticketID string) (string, error) {
	return m.owners[m.key(eventID, ticketID)], nil
}

func (m *memReservations) TTL(ctx context.Context, eventID, ticketID string) (time.Duration, error) {
	if _, ok := m.owners[m.key(eventID, ticketID)]; ok {
		return 15 * time.Minute, nil
	}
	return 0, nil
}

type memOutbox struct {
	outbox.Repository
	messages []*outbox.Message
}

func (m *memOutbox) CreateTx(ctx context.Context, tx pgx.Tx, msg *outbox.Message) error {
	m.messages = append(m.messages, msg)
	return nil
}

func releasedEvent(t *testing.T, id string, capacity int, price float64) *domain.Event {
	t.Helper()
	start := time.Now().Add(24 * time.Hour)
	event := domain.NewEvent(id, "Gig", start, start.Add(3*time.Hour), "leadmill-sheffield", "The Leadmill", capacity, price)
	require.NoError(t, event.ReleaseSeats())
	return event
}

func newTicketService(t *testing.T, events *memEventRepository, reservations *memReservations) (*TicketService, *fakeDB, *memOutbox) {
	t.Helper()
	db := &fakeDB{}
	outboxRepo := &memOutbox{}
	svc, err := NewTicketService(db, events, reservations, outboxRepo, domainevent.NewDispatcher())
	require.NoError(t, err)
	return svc, db, outboxRepo
}

func TestTicketService_Reserve(t *testing.T) {
	event := releasedEvent(t, "event-1", 3, 10)
	reservations := newMemReservations()
	svc, _, _ := newTicketService(t, newMemEventRepository(event), reservations)

	ids := []string{event.Tickets[0].ID, event.Tickets[1].ID}
	require.NoError(t, svc.Reserve(context.Background(), "event-1", "user-a", ids))

	for _, id := range ids {
		holder, _ := reservations.Owner(context.Background(), "event-1", id)
		assert.Equal(t, "user-a", holder)
	}
}

func TestTicketService_Reserve_ConflictFailsRequest(t *testing.T) {
	event := releasedEvent(t, "event-1", 3, 10)
	reservations := newMemReservations()
	svc, _, _ := newTicketService(t, newMemEventRepository(event), reservations)

	held := event.Tickets[1].ID
	require.NoError(t, svc.Reserve(context.Background(), "event-1", "user-b", []string{held}))

	err := svc.Reserve(context.Background(), "event-1", "user-a", []string{event.Tickets[0].ID, held})
	assert.ErrorIs(t, err, domain.ErrTicketsAlreadyReserved)

	// the claim made before the conflict stays and is left to expire
	holder, _ := reservations.Owner(context.Background(), "event-1", event.Tickets[0].ID)
	assert.Equal(t, "user-a", holder)
}

func TestTicketService_Reserve_SameUserExtends(t *testing.T) {
	event := releasedEvent(t, "event-1", 1, 10)
	reservations := newMemReservations()
	svc, _, _ := newTicketService(t, newMemEventRepository(event), reservations)

	id := event.Tickets[0].ID
	require.NoError(t, svc.Reserve(context.Background(), "event-1", "user-a", []string{id}))
	require.NoError(t, svc.Reserve(context.Background(), "event-1", "user-a", []string{id}))
}

func TestTicketService_Purchase(t *testing.T) {
	event := releasedEvent(t, "event-1", 3, 10)
	events := newMemEventRepository(event)
	svc, db, outboxRepo := newTicketService(t, events, newMemReservations())

	ids := []string{event.Tickets[0].ID}
	require.NoError(t, svc.Purchase(context.Background(), "event-1", "user-a", ids))

	assert.True(t, event.Tickets[0].IsPurchased())
	assert.Equal(t, "user-a", *event.Tickets[0].OwnerID)
	assert.True(t, db.tx.committed)

	require.Len(t, events.updatedTickets, 1)
	assert.Len(t, events.updatedTickets[0], 1)

	// two seats remain, no sold-out notification
	assert.Empty(t, outboxRepo.messages)
}

func TestTicketService_Purchase_OwnReservationAllowed(t *testing.T) {
	event := releasedEvent(t, "event-1", 2, 10)
	reservations := newMemReservations()
	svc, _, _ := newTicketService(t, newMemEventRepository(event), reservations)

	id := event.Tickets[0].ID
	require.NoError(t, svc.Reserve(context.Background(), "event-1", "user-a", []string{id}))
	require.NoError(t, svc.Purchase(context.Background(), "event-1", "user-a", []string{id}))
}

func TestTicketService_Purchase_ForeignReservationRejected(t *testing.T) {
	event := releasedEvent(t, "event-1", 2, 10)
	reservations := newMemReservations()
	svc, _, _ := newTicketService(t, newMemEventRepository(event), reservations)

	id := event.Tickets[0].ID
	require.NoError(t, svc.Reserve(context.Background(), "event-1", "user-b", []string{id}))

	err := svc.Purchase(context.Background(), "event-1", "user-a", []string{id})
	assert.ErrorIs(t, err, domain.ErrTicketsAlreadyReserved)
	assert.False(t, event.Tickets[0].IsPurchased())
}

func TestTicketService_Purchase_UnknownEvent(t *testing.T) {
	svc, _, _ := newTicketService(t, newMemEventRepository(), newMemReservations())

	err := svc.Purchase(context.Background(), "missing", "user-a", []string{"ticket-1"})
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestTicketService_Purchase_UnknownSeat(t *testing.T) {
	event := releasedEvent(t, "event-1", 2, 10)
	events := newMemEventRepository(event)
	svc, _, _ := newTicketService(t, events, newMemReservations())

	err := svc.Purchase(context.Background(), "event-1", "user-a", []string{event.Tickets[0].ID, "not-a-seat"})
	assert.ErrorIs(t, err, domain.ErrTicketsDoNotExist)
	assert.Empty(t, events.updatedTickets)
}

func TestTicketService_Purchase_OwnedSeatRejected(t *testing.T) {
	event := releasedEvent(t, "event-1", 2, 10)
	require.NoError(t, event.Tickets[0].Purchase("user-b"))
	svc, _, _ := newTicketService(t, newMemEventRepository(event), newMemReservations())

	err := svc.Purchase(context.Background(), "event-1", "user-a", []string{event.Tickets[0].ID})
	assert.ErrorIs(t, err, domain.ErrTicketsNotAvailable)
}

func TestTicketService_Purchase_LastSeatEmitsSoldOut(t *testing.T) {
	event := releasedEvent(t, "event-1", 2, 10)
	svc, _, outboxRepo := newTicketService(t, newMemEventRepository(event), newMemReservations())

	require.NoError(t, svc.Purchase(context.Background(), "event-1", "user-a", []string{event.Tickets[0].ID}))
	assert.Empty(t, outboxRepo.messages)

	require.NoError(t, svc.Purchase(context.Background(), "event-1", "user-b", []string{event.Tickets[1].ID}))

	require.Len(t, outboxRepo.messages, 1)
	msg := outboxRepo.messages[0]
	assert.Equal(t, integration.TypeEventSoldOut, msg.MessageType)
	assert.Equal(t, integration.TopicEventSoldOut, msg.Topic)

	var payload integration.EventSoldOut
	require.NoError(t, msg.GetPayload(&payload))
	assert.Equal(t, "event-1", payload.EventID)
}

// One-seat event end to end: A reserves, B is rejected, A purchases, the
// event is sold out and the notification is queued
func TestTicketService_SingleSeatContention(t *testing.T) {
	event := releasedEvent(t, "event-1", 1, 10)
	reservations := newMemReservations()
	svc, _, outboxRepo := newTicketService(t, newMemEventRepository(event), reservations)
	ctx := context.Background()
	seat := event.Tickets[0].ID

	require.NoError(t, svc.Reserve(ctx, "event-1", "user-a", []string{seat}))

	err := svc.Reserve(ctx, "event-1", "user-b", []string{seat})
	assert.ErrorIs(t, err, domain.ErrTicketsAlreadyReserved)

	err = svc.Purchase(ctx, "event-1", "user-b", []string{seat})
	assert.ErrorIs(t, err, domain.ErrTicketsAlreadyReserved)

	require.NoError(t, svc.Purchase(ctx, "event-1", "user-a", []string{seat}))

	assert.Equal(t, 0, event.UnownedSeats())
	require.Len(t, outboxRepo.messages, 1)
	assert.Equal(t, integration.TypeEventSoldOut, outboxRepo.messages[0].MessageType)

	// purchase does not delete the reservation key
	holder, _ := reservations.Owner(ctx, "event-1", seat)
	assert.Equal(t, "user-a", holder)
}

// The claim is a read followed by a write with nothing atomic between them.
// Two claimers can both read the key as absent before either writes; neither
// request fails and the later write holds the seat
func TestTicketService_Reserve_OverlappingClaimsLastWriterWins(t *testing.T) {
	event := releasedEvent(t, "event-1", 1, 10)
	reservations := newMemReservations()
	svc, _, _ := newTicketService(t, newMemEventRepository(event), reservations)
	ctx := context.Background()
	seat := event.Tickets[0].ID

	// user-b claims the seat in the gap between user-a's read and write
	reservations.beforeWrite = func() {
		require.NoError(t, svc.Reserve(ctx, "event-1", "user-b", []string{seat}))
	}

	require.NoError(t, svc.Reserve(ctx, "event-1", "user-a", []string{seat}))

	holder, _ := reservations.Owner(ctx, "event-1", seat)
	assert.Equal(t, "user-a", holder)
}

// Purchase validates against seat state read before the write. A buyer whose
// read lands before a competing commit passes validation too; both commits
// succeed and the later write owns the seat
func TestTicketService_Purchase_OverlappingReadsBothCommit(t *testing.T) {
	event := releasedEvent(t, "event-1", 2, 10)
	events := newMemEventRepository(event)
	events.loadSnapshots = true
	svc, _, _ := newTicketService(t, events, newMemReservations())
	ctx := context.Background()
	seat := event.Tickets[0].ID

	// user-b reads, validates, and commits while user-a's write is in flight
	events.beforeUpdate = func() {
		require.NoError(t, svc.Purchase(ctx, "event-1", "user-b", []string{seat}))
	}

	require.NoError(t, svc.Purchase(ctx, "event-1", "user-a", []string{seat}))

	// both purchases wrote the same seat
	require.Len(t, events.updatedTickets, 2)

	stored := events.events["event-1"].Tickets[0]
	require.True(t, stored.IsPurchased())
	assert.Equal(t, "user-a", *stored.OwnerID)
}

func TestTicketService_ListEventTickets(t *testing.T) {
	event := releasedEvent(t, "event-1", 3, 10)
	require.NoError(t, event.Tickets[0].Purchase("user-a"))
	reservations := newMemReservations()
	svc, _, _ := newTicketService(t, newMemEventRepository(event), reservations)

	require.NoError(t, svc.Reserve(context.Background(), "event-1", "user-b", []string{event.Tickets[1].ID}))

	views, err := svc.ListEventTickets(context.Background(), "event-1")
	require.NoError(t, err)
	require.Len(t, views, 3)

	assert.True(t, views[0].Purchased)
	assert.False(t, views[0].Reserved)

	assert.False(t, views[1].Purchased)
	assert.True(t, views[1].Reserved)

	assert.False(t, views[2].Purchased)
	assert.False(t, views[2].Reserved)
}

func TestTicketService_ListUserTickets(t *testing.T) {
	event := releasedEvent(t, "event-1", 3, 10)
	require.NoError(t, event.Tickets[0].Purchase("user-a"))
	require.NoError(t, event.Tickets[2].Purchase("user-a"))
	svc, _, _ := newTicketService(t, newMemEventRepository(event), newMemReservations())

	tickets, err := svc.ListUserTickets(context.Background(), "user-a")
	require.NoError(t, err)
	assert.Len(t, tickets, 2)
}
