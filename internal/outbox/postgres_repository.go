package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// CreateTx inserts a new outbox message within a transaction
func (r *PostgresRepository) CreateTx(ctx context.Context, tx pgx.Tx, msg *Message) error {
	query := `
		INSERT INTO outbox (
			id, message_type, aggregate_id, payload, topic,
			partition_key, status, retry_count, max_retries, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
	`

	_, err := tx.Exec(ctx, query,
		msg.ID,
		msg.MessageType,
		msg.AggregateID,
		msg.Payload,
		msg.Topic,
		msg.PartitionKey,
		msg.Status.String(),
		msg.RetryCount,
		msg.MaxRetries,
		msg.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create outbox message: %w", err)
	}

	return nil
}

// GetPending gets pending messages awaiting delivery
func (r *PostgresRepository) GetPending(ctx context.Context, limit int) ([]*Message, error) {
	query := `
		SELECT
			id, message_type, aggregate_id, payload, topic,
			partition_key, status, retry_count, max_retries,
			last_error, created_at, published_at
		FROM outbox
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// GetFailed gets failed messages with retry budget left
func (r *PostgresRepository) GetFailed(ctx context.Context, limit int) ([]*Message, error) {
	query := `
		SELECT
			id, message_type, aggregate_id, payload, topic,
			partition_key, status, retry_count, max_retries,
			last_error, created_at, published_at
		FROM outbox
		WHERE status = 'failed' AND retry_count < max_retries
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get failed messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// MarkPublished marks a message as successfully delivered
func (r *PostgresRepository) MarkPublished(ctx context.Context, id string) error {
	query := `
		UPDATE outbox SET
			status = 'published',
			published_at = $2
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark message as published: %w", err)
	}

	if result.RowsAffected() == 0 {
		return errors.New("outbox message not found")
	}

	return nil
}

// MarkFailed records a delivery failure and bumps the retry count
func (r *PostgresRepository) MarkFailed(ctx context.Context, id string, errMsg string) error {
	query := `
		UPDATE outbox SET
			status = 'failed',
			last_error = $2,
			retry_count = retry_count + 1
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, errMsg)
	if err != nil {
		return fmt.Errorf("failed to mark message as failed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return errors.New("outbox message not found")
	}

	return nil
}

// DeletePublished deletes delivered messages older than the retention window
func (r *PostgresRepository) DeletePublished(ctx context.Context, olderThanDays int) (int64, error) {
	query := `
		DELETE FROM outbox
		WHERE status = 'published' AND published_at < $1
	`

	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	result, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete published messages: %w", err)
	}

	return result.RowsAffected(), nil
}

// scanMessages scans rows into a Message slice
func scanMessages(rows pgx.Rows) ([]*Message, error) {
	var messages []*Message

	for rows.Next() {
		msg := &Message{}
		var (
			status      string
			lastError   *string
			publishedAt *time.Time
		)

		err := rows.Scan(
			&msg.ID,
			&msg.MessageType,
			&msg.AggregateID,
			&msg.Payload,
			&msg.Topic,
			&msg.PartitionKey,
			&status,
			&msg.RetryCount,
			&msg.MaxRetries,
			&lastError,
			&msg.CreatedAt,
			&publishedAt,
		)

		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}

		msg.Status = Status(status)
		if lastError != nil {
			msg.LastError = *lastError
		}
		msg.PublishedAt = publishedAt

		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox messages: %w", err)
	}

	return messages, nil
}

// Ensure PostgresRepository implements Repository
var _ Repository = (*PostgresRepository)(nil)
