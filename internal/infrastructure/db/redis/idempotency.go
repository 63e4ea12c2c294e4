package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/todoapp/todo-api/internal/core/ports"
)

const (
	// pendingValue marks a key whose create has not finished yet.
	pendingValue = "pending"

	pendingTTL   = 30 * time.Second
	completedTTL = 24 * time.Hour

	reserveAttempts = 3
)

// swapScript sets KEYS[1] to ARGV[2] with a PX of ARGV[3] only while it
// still holds ARGV[1].
var swapScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
	return 1
end
return 0
`)

// releaseScript deletes KEYS[1] only while it is still pending.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// IdempotencyStore implements ports.IdempotencyStore.
//
// Key format: idem:todo:<owner_id>:<key>. The value is "pending" while the
// create runs and the todo id afterwards.
type IdempotencyStore struct {
	client       *redis.Client
	pendingTTL   time.Duration
	completedTTL time.Duration
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client, pendingTTL: pendingTTL, completedTTL: completedTTL}
}

// Reserve claims key with SET NX. When another request holds it, the stored
// entry is returned instead.
func (s *IdempotencyStore) Reserve(ctx context.Context, ownerID int64, key string) (ports.IdempotencyReservation, error) {
	k := s.key(ownerID, key)

	for attempt := 0; attempt < reserveAttempts; attempt++ {
		ok, err := s.client.SetNX(ctx, k, pendingValue, s.pendingTTL).Result()
		if err != nil {
			return ports.IdempotencyReservation{}, fmt.Errorf("idempotency reserve: %w", err)
		}
		if ok {
			return ports.IdempotencyReservation{Reserved: true}, nil
		}

		val, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			// Expired between SET NX and GET.
			continue
		}
		if err != nil {
			return ports.IdempotencyReservation{}, fmt.Errorf("idempotency reserve: %w", err)
		}

		todoID, err := parseEntry(val)
		if err != nil {
			return ports.IdempotencyReservation{}, fmt.Errorf("idempotency reserve: %w", err)
		}
		return ports.IdempotencyReservation{TodoID: todoID}, nil
	}
	return ports.IdempotencyReservation{}, fmt.Errorf("idempotency reserve: key %q kept expiring", k)
}

// Reclaim turns an entry that still points at staleTodoID back into a
// pending reservation owned by the caller.
func (s *IdempotencyStore) Reclaim(ctx context.Context, ownerID int64, key string, staleTodoID int64) (bool, error) {
	n, err := swapScript.Run(ctx, s.client, []string{s.key(ownerID, key)},
		strconv.FormatInt(staleTodoID, 10), pendingValue, s.pendingTTL.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("idempotency reclaim: %w", err)
	}
	return n == 1, nil
}

// Complete records todoID under a reservation held by the caller.
func (s *IdempotencyStore) Complete(ctx context.Context, ownerID int64, key string, todoID int64) error {
	n, err := swapScript.Run(ctx, s.client, []string{s.key(ownerID, key)},
		pendingValue, strconv.FormatInt(todoID, 10), s.completedTTL.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("idempotency complete: reservation for %q expired", key)
	}
	return nil
}

// Release deletes a pending reservation so the client can retry.
func (s *IdempotencyStore) Release(ctx context.Context, ownerID int64, key string) error {
	if err := releaseScript.Run(ctx, s.client, []string{s.key(ownerID, key)}, pendingValue).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(ownerID int64, key string) string {
	return fmt.Sprintf("idem:todo:%d:%s", ownerID, key)
}

// parseEntry returns 0 for a pending entry and the todo id otherwise.
func parseEntry(val string) (int64, error) {
	if val == pendingValue {
		return 0, nil
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("corrupt entry %q", val)
	}
	return id, nil
}
