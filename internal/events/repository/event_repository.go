package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/events/domain"
)

// EventRepository defines event persistence for the Events module
type EventRepository interface {
	// GetByID gets an event by id, domain.ErrEventNotFound if absent
	GetByID(ctx context.Context, id string) (*domain.Event, error)

	// ListByVenue gets every event scheduled at a venue
	ListByVenue(ctx context.Context, venueID string) ([]*domain.Event, error)

	// ListUpcoming gets events starting after the given instant, earliest first
	ListUpcoming(ctx context.Context, after time.Time) ([]*domain.Event, error)

	// CreateTx inserts a new event within a transaction
	CreateTx(ctx context.Context, tx pgx.Tx, event *domain.Event) error

	// UpdateTx updates an existing event within a transaction
	UpdateTx(ctx context.Context, tx pgx.Tx, event *domain.Event) error
}

// PostgresEventRepository implements EventRepository using PostgreSQL
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgreSQL event repository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

const eventColumns = `id, name, start_date, end_date, venue_id, price, sold_out, created_at, updated_at`

// GetByID gets an event by id
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %s: %w", id, err)
	}
	return event, nil
}

// ListByVenue gets every event scheduled at a venue
func (r *PostgresEventRepository) ListByVenue(ctx context.Context, venueID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE venue_id = $1`

	rows, err := r.pool.Query(ctx, query, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for venue %s: %w", venueID, err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListUpcoming gets events starting after the given instant, earliest first
func (r *PostgresEventRepository) ListUpcoming(ctx context.Context, after time.Time) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE start_date > $1 ORDER BY start_date ASC`

	rows, err := r.pool.Query(ctx, query, after)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// CreateTx inserts a new event within a transaction
func (r *PostgresEventRepository) CreateTx(ctx context.Context, tx pgx.Tx, event *domain.Event) error {
	query := `
		INSERT INTO events (id, name, start_date, end_date, venue_id, price, sold_out, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.Exec(ctx, query,
		event.ID, event.Name, event.StartDate, event.EndDate,
		event.VenueID, event.Price, event.SoldOut, event.CreatedAt, event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event %s: %w", event.ID, err)
	}
	return nil
}

// UpdateTx updates an existing event within a transaction
func (r *PostgresEventRepository) UpdateTx(ctx context.Context, tx pgx.Tx, event *domain.Event) error {
	query := `
		UPDATE events
		SET name = $2, start_date = $3, end_date = $4, venue_id = $5,
		    price = $6, sold_out = $7, updated_at = $8
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query,
		event.ID, event.Name, event.StartDate, event.EndDate,
		event.VenueID, event.Price, event.SoldOut, event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update event %s: %w", event.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var event domain.Event
	err := row.Scan(
		&event.ID, &event.Name, &event.StartDate, &event.EndDate,
		&event.VenueID, &event.Price, &event.SoldOut, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func scanEvents(rows pgx.Rows) ([]*domain.Event, error) {
	var events []*domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	return events, nil
}

var _ EventRepository = (*PostgresEventRepository)(nil)
