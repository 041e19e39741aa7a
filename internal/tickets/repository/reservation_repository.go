package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/internal/tickets/domain"
	"github.com/SeanMJennings/TicketBuddy-ModularMonolith-sub000/pkg/redis"
)

// DefaultReservationTTL is the sliding reservation window
const DefaultReservationTTL = 15 * time.Minute

// ReservationRepository records time-boxed seat claims in the shared cache.
// A reservation is best effort: it is not the authoritative purchase state
type ReservationRepository interface {
	// Claim takes or extends a reservation for the user. Fails with
	// domain.ErrTicketsAlreadyReserved if another user holds it
	Claim(ctx context.Context, eventID, ticketID, userID string) error

	// Owner gets the current holder, "" if the seat is unreserved
	Owner(ctx context.Context, eventID, ticketID string) (string, error)

	// TTL gets the remaining reservation window, 0 if unreserved
	TTL(ctx context.Context, eventID, ticketID string) (time.Duration, error)
}

// RedisReservationRepository implements ReservationRepository on Redis
type RedisReservationRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisReservationRepository creates a reservation repository. A zero ttl
// falls back to the default 15 minutes
func NewRedisReservationRepository(client *redis.Client, ttl time.Duration) *RedisReservationRepository {
	if ttl <= 0 {
		ttl = DefaultReservationTTL
	}
	return &RedisReservationRepository{client: client, ttl: ttl}
}

func reservationKey(eventID, ticketID string) string {
	return fmt.Sprintf("event:%s:ticket:%s:reservation", eventID, ticketID)
}

// Claim takes or extends a reservation. The read and the write are separate
// round trips: two first-time claimers racing on the same seat can both pass
// the read and the later write wins. This is an accepted best-effort lock,
// not a mutual-exclusion primitive; the purchase path is the authority
func (r *RedisReservationRepository) Claim(ctx context.Context, eventID, ticketID, userID string) error {
	key := reservationKey(eventID, ticketID)

	holder, err := r.client.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("failed to read reservation %s: %w", key, err)
	}

	if holder != "" && holder != userID {
		return domain.ErrTicketsAlreadyReserved
	}

	// claims and same-owner extends both reset the window
	if err := r.client.Set(ctx, key, userID, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write reservation %s: %w", key, err)
	}
	return nil
}

// Owner gets the current holder, "" if the seat is unreserved
func (r *RedisReservationRepository) Owner(ctx context.Context, eventID, ticketID string) (string, error) {
	holder, err := r.client.Get(ctx, reservationKey(eventID, ticketID)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read reservation owner: %w", err)
	}
	return holder, nil
}

// TTL gets the remaining reservation window, 0 if unreserved
func (r *RedisReservationRepository) TTL(ctx context.Context, eventID, ticketID string) (time.Duration, error) {
	ttl, err := r.client.TTL(ctx, reservationKey(eventID, ticketID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read reservation ttl: %w", err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

var _ ReservationRepository = (*RedisReservationRepository)(nil)
