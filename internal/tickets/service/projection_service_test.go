package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/integration"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/tickets/domain"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/domainevent"
)

type memUserRepository struct {
	users map[string]*domain.User
}

func newMemUserRepository() *memUserRepository {
	return &memUserRepository{users: make(map[string]*domain.User)}
}

func (m *memUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return m.users[id], nil
}

func (m *memUserRepository) Upsert(ctx context.Context, user *domain.User) error {
	m.users[user.ID] = user
	return nil
}

func newProjectionService(events *memEventRepository) *ProjectionService {
	return NewProjectionService(&fakeDB{}, events, newMemUserRepository(), domainevent.NewDispatcher())
}

func upsertedMessage(price float64) integration.EventUpserted {
	start := time.Now().Add(24 * time.Hour)
	return integration.EventUpserted{
		ID:        "event-1",
		EventName: "Gig",
		StartDate: start,
		EndDate:   start.Add(3 * time.Hour),
		Venue:     "brudenell-social-club",
		Price:     price,
	}
}

func TestProjectionService_FirstAnnouncementReleasesSeats(t *testing.T) {
	events := newMemEventRepository()
	svc := newProjectionService(events)

	require.NoError(t, svc.ApplyEventUpserted(context.Background(), upsertedMessage(25)))

	event, err := events.GetByID(context.Background(), "event-1")
	require.NoError(t, err)

	assert.Equal(t, "Gig", event.Name)
	assert.Equal(t, "Brudenell Social Club", event.VenueName)
	// one seat per venue seat, all unowned, all at the announced price
	require.Len(t, event.Tickets, 400)
	for _, ticket := range event.Tickets {
		assert.False(t, ticket.IsPurchased())
		assert.Equal(t, 25.0, ticket.Price)
	}
}

func TestProjectionService_ReannouncementRepricesUnsoldSeats(t *testing.T) {
	events := newMemEventRepository()
	svc := newProjectionService(events)

	require.NoError(t, svc.ApplyEventUpserted(context.Background(), upsertedMessage(25)))
	event, _ := events.GetByID(context.Background(), "event-1")
	require.NoError(t, event.Tickets[0].Purchase("user-a"))
	events.updatedTickets = nil

	require.NoError(t, svc.ApplyEventUpserted(context.Background(), upsertedMessage(40)))

	assert.Equal(t, 25.0, event.Tickets[0].Price)
	assert.Equal(t, 40.0, event.Tickets[1].Price)

	// only the repriced seats are written back
	require.Len(t, events.updatedTickets, 1)
	assert.Len(t, events.updatedTickets[0], 399)
}

func TestProjectionService_RedeliveryIsNoOp(t *testing.T) {
	events := newMemEventRepository()
	svc := newProjectionService(events)
	msg := upsertedMessage(25)

	require.NoError(t, svc.ApplyEventUpserted(context.Background(), msg))
	events.updatedTickets = nil

	require.NoError(t, svc.ApplyEventUpserted(context.Background(), msg))

	event, _ := events.GetByID(context.Background(), "event-1")
	assert.Len(t, event.Tickets, 400)
	// same price on redelivery touches no seats
	assert.Empty(t, events.updatedTickets)
}

func TestProjectionService_UnknownVenue(t *testing.T) {
	svc := newProjectionService(newMemEventRepository())

	msg := upsertedMessage(25)
	msg.Venue = "nowhere"

	err := svc.ApplyEventUpserted(context.Background(), msg)
	assert.ErrorIs(t, err, domain.ErrUnknownVenue)
}

func TestProjectionService_UpsertUser(t *testing.T) {
	users := newMemUserRepository()
	svc := NewProjectionService(&fakeDB{}, newMemEventRepository(), users, domainevent.NewDispatcher())

	require.NoError(t, svc.UpsertUser(context.Background(), &domain.User{ID: "user-1", FullName: "Ada Lovelace", Email: "ada@example.com"}))
	require.NoError(t, svc.UpsertUser(context.Background(), &domain.User{ID: "user-1", FullName: "Ada King", Email: "ada@example.com"}))

	stored, err := users.GetByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada King", stored.FullName)
}
