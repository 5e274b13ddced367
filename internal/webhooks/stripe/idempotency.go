package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/homeward/settlement-backend/pkg/redis"
)

// IdempotencyGuard remembers gateway event ids per franchise account so a
// redelivered event is acknowledged without being applied twice.
type IdempotencyGuard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	scope string
}

func NewIdempotencyGuard(store redis.IdempotencyStore, ttl time.Duration, scope string) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if scope == "" {
		return nil, errors.New("scope is required")
	}
	return &IdempotencyGuard{
		store: store,
		ttl:   ttl,
		scope: scope,
	}, nil
}

// CheckAndMark reports whether the event was already seen, marking it otherwise.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, franchiseID uuid.UUID, eventID string) (bool, error) {
	key, err := g.key(franchiseID, eventID)
	if err != nil {
		return false, err
	}
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set idempotency key: %w", err)
	}
	return !set, nil
}

// Release forgets the event so a failed delivery can be retried.
func (g *IdempotencyGuard) Release(ctx context.Context, franchiseID uuid.UUID, eventID string) error {
	key, err := g.key(franchiseID, eventID)
	if err != nil {
		return err
	}
	return g.store.Del(ctx, key)
}

func (g *IdempotencyGuard) key(franchiseID uuid.UUID, eventID string) (string, error) {
	if eventID == "" {
		return "", errors.New("event id is required")
	}
	return g.store.IdempotencyKey(g.scope, franchiseID.String()+":"+eventID), nil
}
