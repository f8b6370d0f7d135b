package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/smartpos/smartpos-backend/pkg/redis"
)

const defaultLeaseTTL = 55 * time.Minute

type leaseStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// Lease keeps concurrent cron-worker replicas from sweeping at the same time.
// Each Hold call takes a fresh token so a late release never frees a lease
// that has since passed to another replica.
type Lease struct {
	store leaseStore
	key   string
	ttl   time.Duration
}

func NewLease(store leaseStore, key string, ttl time.Duration) (*Lease, error) {
	if store == nil {
		return nil, errors.New("lease store required")
	}
	if key == "" {
		return nil, errors.New("lease key required")
	}
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	return &Lease{store: store, key: key, ttl: ttl}, nil
}

// Hold runs fn while owning the lease. It reports false without calling fn
// when another holder has it.
func (l *Lease) Hold(ctx context.Context, fn func(context.Context) error) (held bool, err error) {
	token := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire lease %s: %w", l.key, err)
	}
	if !ok {
		return false, nil
	}
	defer func() {
		err = multierr.Append(err, l.release(context.WithoutCancel(ctx), token))
	}()
	return true, fn(ctx)
}

func (l *Lease) release(ctx context.Context, token string) error {
	current, err := l.store.Get(ctx, l.key)
	if redis.IsMiss(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read lease %s: %w", l.key, err)
	}
	if current != token {
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("release lease %s: %w", l.key, err)
	}
	return nil
}
