package cron

import (
	"context"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/homeward/settlement-backend/pkg/errors"
)

const defaultLockTTL = 55 * time.Minute

// Lock keeps cron cycles exclusive across worker replicas.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, expected string) (bool, error)
}

// RedisLock is a SETNX lease tagged with a per-acquire token. The TTL should
// stay below the cron interval so a crashed worker never blocks the next cycle.
type RedisLock struct {
	store lockStore
	key   string
	ttl   time.Duration
	token string
}

func NewRedisLock(store lockStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "lock store required")
	}
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "lock key required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, err
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

// Release deletes the key only while it still carries this holder's token.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	defer func() { l.token = "" }()
	if _, err := l.store.CompareAndDelete(ctx, l.key, l.token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release cron lock")
	}
	return nil
}
