package outbox

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository defines outbox persistence. CreateTx is the only write path for
// new messages: a message row must share the transaction of the state change
// that produced it
type Repository interface {
	// CreateTx inserts a new outbox message within a transaction
	CreateTx(ctx context.Context, tx pgx.Tx, msg *Message) error

	// GetPending gets pending messages awaiting delivery
	GetPending(ctx context.Context, limit int) ([]*Message, error)

	// GetFailed gets failed messages with retry budget left
	GetFailed(ctx context.Context, limit int) ([]*Message, error)

	// MarkPublished marks a message as successfully delivered
	MarkPublished(ctx context.Context, id string) error

	// MarkFailed records a delivery failure and bumps the retry count
	MarkFailed(ctx context.Context, id string, errMsg string) error

	// DeletePublished deletes delivered messages older than the retention window
	DeletePublished(ctx context.Context, olderThanDays int) (int64, error)
}
