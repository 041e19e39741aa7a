package domainevent

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// UnitOfWork scopes one business operation to one database transaction.
// Aggregates mutated during the operation are tracked on it; Commit drains
// their domain event buffers through the dispatcher before the single
// physical commit, so handler side effects are never lost and never
// partially applied
type UnitOfWork struct {
	tx         pgx.Tx
	dispatcher *Dispatcher
	tracked    []Raiser
}

// Beginner starts database transactions. *pgxpool.Pool satisfies it
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Begin starts a transaction and wraps it in a unit of work
func Begin(ctx context.Context, db Beginner, d *Dispatcher) (*UnitOfWork, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return NewUnitOfWork(tx, d), nil
}

// NewUnitOfWork wraps an existing transaction
func NewUnitOfWork(tx pgx.Tx, d *Dispatcher) *UnitOfWork {
	return &UnitOfWork{tx: tx, dispatcher: d}
}

// Tx returns the transaction all repositories in this unit of work write through
func (u *UnitOfWork) Tx() pgx.Tx {
	return u.tx
}

// Track registers an aggregate so its pending domain events are drained at commit
func (u *UnitOfWork) Track(r Raiser) {
	u.tracked = append(u.tracked, r)
}

// Flush drains pending domain events from every tracked aggregate and
// dispatches them. Handlers may track further aggregates or raise further
// events; draining repeats until no events remain
func (u *UnitOfWork) Flush(ctx context.Context) error {
	for {
		var events []Event
		for _, r := range u.tracked {
			pending := r.PendingEvents()
			if len(pending) == 0 {
				continue
			}
			events = append(events, pending...)
			r.ClearEvents()
		}
		if len(events) == 0 {
			return nil
		}

		for _, e := range events {
			if err := u.dispatcher.Dispatch(ctx, u, e); err != nil {
				return err
			}
		}
	}
}

// Commit flushes pending domain events then commits the transaction.
// A dispatch failure leaves the transaction uncommitted; the caller's
// deferred Rollback discards everything
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if err := u.Flush(ctx); err != nil {
		return err
	}
	if err := u.tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit unit of work: %w", err)
	}
	return nil
}

// Rollback aborts the transaction; safe to defer after Commit
func (u *UnitOfWork) Rollback(ctx context.Context) {
	_ = u.tx.Rollback(ctx)
}
