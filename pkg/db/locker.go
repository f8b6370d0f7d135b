package db

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// TupleLocker serialises writers that share a key for the lifetime of a
// transaction. The returned release func must be called once the enclosing
// transaction has finished.
type TupleLocker interface {
	Lock(ctx context.Context, tx *gorm.DB, key string) (release func(), err error)
}

// NewTupleLocker picks the locker that fits the connection's dialect.
func NewTupleLocker(conn *gorm.DB) TupleLocker {
	if conn != nil && conn.Dialector != nil && conn.Dialector.Name() == "postgres" {
		return AdvisoryLocker{}
	}
	return NewKeyedMutex()
}

// AdvisoryLocker takes a transaction scoped Postgres advisory lock. Postgres
// drops it on commit or rollback so release is a no-op.
type AdvisoryLocker struct{}

func (AdvisoryLocker) Lock(ctx context.Context, tx *gorm.DB, key string) (func(), error) {
	if tx == nil {
		return nil, fmt.Errorf("advisory lock %q: transaction required", key)
	}
	if err := tx.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", key).Error; err != nil {
		return nil, fmt.Errorf("advisory lock %q: %w", key, err)
	}
	return func() {}, nil
}

// KeyedMutex is an in-process lock table used for engines without advisory
// locks. It only serialises callers inside one process.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*keyedSlot
}

type keyedSlot struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*keyedSlot)}
}

func (k *KeyedMutex) Lock(ctx context.Context, _ *gorm.DB, key string) (func(), error) {
	k.mu.Lock()
	slot, ok := k.slots[key]
	if !ok {
		slot = &keyedSlot{ch: make(chan struct{}, 1)}
		k.slots[key] = slot
	}
	slot.refs++
	k.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		k.drop(key, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			k.drop(key, slot)
		})
	}, nil
}

func (k *KeyedMutex) drop(key string, slot *keyedSlot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(k.slots, key)
	}
}
