package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/tickets/domain"
)

// EventRepository persists the Tickets module's event projections and their
// seat inventory
type EventRepository interface {
	// GetByID loads a projection with its full seat inventory,
	// domain.ErrEventNotFound if absent
	GetByID(ctx context.Context, id string) (*domain.Event, error)

	// CreateTx inserts a projection and all of its seats within a transaction
	CreateTx(ctx context.Context, tx pgx.Tx, event *domain.Event) error

	// UpdateTx updates the projection row within a transaction
	UpdateTx(ctx context.Context, tx pgx.Tx, event *domain.Event) error

	// UpdateTicketsTx writes price and ownership for the given seats within
	// a transaction
	UpdateTicketsTx(ctx context.Context, tx pgx.Tx, tickets []*domain.Ticket) error

	// ListTicketsByOwner gets a user's purchased seats across all events
	ListTicketsByOwner(ctx context.Context, ownerID string) ([]*domain.Ticket, error)
}

// PostgresEventRepository implements EventRepository using PostgreSQL
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgreSQL projection repository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

// GetByID loads a projection with its full seat inventory
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, name, start_date, end_date, venue_id, venue_name, capacity, price
		FROM events WHERE id = $1
	`

	var event domain.Event
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&event.ID, &event.Name, &event.StartDate, &event.EndDate,
		&event.VenueID, &event.VenueName, &event.Capacity, &event.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event projection %s: %w", id, err)
	}

	tickets, err := r.listTicketsByEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	event.Tickets = tickets
	return &event, nil
}

// CreateTx inserts a projection and all of its seats
func (r *PostgresEventRepository) CreateTx(ctx context.Context, tx pgx.Tx, event *domain.Event) error {
	query := `
		INSERT INTO events (id, name, start_date, end_date, venue_id, venue_name, capacity, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.Exec(ctx, query,
		event.ID, event.Name, event.StartDate, event.EndDate,
		event.VenueID, event.VenueName, event.Capacity, event.Price)
	if err != nil {
		return fmt.Errorf("failed to create event projection %s: %w", event.ID, err)
	}

	if len(event.Tickets) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(event.Tickets))
	for _, ticket := range event.Tickets {
		rows = append(rows, []interface{}{
			ticket.ID, ticket.EventID, ticket.SeatNumber, ticket.Price, ticket.OwnerID, ticket.PurchasedAt,
		})
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"tickets"},
		[]string{"id", "event_id", "seat_number", "price", "owner_id", "purchased_at"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to insert seats for event %s: %w", event.ID, err)
	}
	return nil
}

// UpdateTx updates the projection row
func (r *PostgresEventRepository) UpdateTx(ctx context.Context, tx pgx.Tx, event *domain.Event) error {
	query := `
		UPDATE events
		SET name = $2, start_date = $3, end_date = $4, venue_id = $5,
		    venue_name = $6, capacity = $7, price = $8
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query,
		event.ID, event.Name, event.StartDate, event.EndDate,
		event.VenueID, event.VenueName, event.Capacity, event.Price)
	if err != nil {
		return fmt.Errorf("failed to update event projection %s: %w", event.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// UpdateTicketsTx writes price and ownership for the given seats
func (r *PostgresEventRepository) UpdateTicketsTx(ctx context.Context, tx pgx.Tx, tickets []*domain.Ticket) error {
	query := `
		UPDATE tickets
		SET price = $2, owner_id = $3, purchased_at = $4
		WHERE id = $1
	`

	for _, ticket := range tickets {
		tag, err := tx.Exec(ctx, query, ticket.ID, ticket.Price, ticket.OwnerID, ticket.PurchasedAt)
		if err != nil {
			return fmt.Errorf("failed to update seat %s: %w", ticket.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrTicketsDoNotExist
		}
	}
	return nil
}

// ListTicketsByOwner gets a user's purchased seats across all events
func (r *PostgresEventRepository) ListTicketsByOwner(ctx context.Context, ownerID string) ([]*domain.Ticket, error) {
	query := `
		SELECT id, event_id, seat_number, price, owner_id, purchased_at
		FROM tickets
		WHERE owner_id = $1
		ORDER BY purchased_at DESC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seats for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	return scanTickets(rows)
}

func (r *PostgresEventRepository) listTicketsByEvent(ctx context.Context, eventID string) ([]*domain.Ticket, error) {
	query := `
		SELECT id, event_id, seat_number, price, owner_id, purchased_at
		FROM tickets
		WHERE event_id = $1
		ORDER BY seat_number ASC
	`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seats for event %s: %w", eventID, err)
	}
	defer rows.Close()

	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]*domain.Ticket, error) {
	var tickets []*domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		err := rows.Scan(&ticket.ID, &ticket.EventID, &ticket.SeatNumber,
			&ticket.Price, &ticket.OwnerID, &ticket.PurchasedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan seat: %w", err)
		}
		tickets = append(tickets, &ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read seats: %w", err)
	}
	return tickets, nil
}

var _ EventRepository = (*PostgresEventRepository)(nil)
