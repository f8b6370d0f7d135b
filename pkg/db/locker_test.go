package db

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/config"
)

func TestKeyedMutexSerialisesSameKey(t *testing.T) {
	locker := NewKeyedMutex()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Lock(ctx, nil, "b:br:p")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxSeen)
	}
	if len(locker.slots) != 0 {
		t.Fatalf("expected slots to be released, got %d", len(locker.slots))
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	locker := NewKeyedMutex()
	ctx := context.Background()

	releaseA, err := locker.Lock(ctx, nil, "a")
	if err != nil {
		t.Fatalf("lock a: %v", err)
	}
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB, err := locker.Lock(ctx, nil, "b")
		if err == nil {
			releaseB()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key should not block")
	}
}

func TestKeyedMutexHonoursCancellation(t *testing.T) {
	locker := NewKeyedMutex()
	release, err := locker.Lock(context.Background(), nil, "k")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, nil, "k"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	release()
	release()
	if len(locker.slots) != 0 {
		t.Fatalf("expected empty lock table, got %d", len(locker.slots))
	}
}

func TestAdvisoryLockerRequiresTransaction(t *testing.T) {
	if _, err := (AdvisoryLocker{}).Lock(context.Background(), nil, "k"); err == nil {
		t.Fatal("expected an error without a transaction")
	}
}

func TestNewTupleLockerPicksKeyedMutexForSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:locker_pick?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		if pool, err := conn.DB(); err == nil {
			_ = pool.Close()
		}
	})
	_, ok := NewTupleLocker(conn).(*KeyedMutex)
	assert.True(t, ok)
}

// Needs a reachable Postgres: TEST_POSTGRES_DSN.
func TestAdvisoryLockerBlocksUntilCommit(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	client, err := New(ctx, config.DBConfig{DSN: dsn, Driver: config.DriverPostgres, MaxOpenConns: 4}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	locker, ok := client.Locker().(AdvisoryLocker)
	require.True(t, ok)

	key := "test:" + uuid.NewString()
	holder := client.DB().WithContext(ctx).Begin()
	require.NoError(t, holder.Error)
	_, err = locker.Lock(ctx, holder, key)
	require.NoError(t, err)

	acquired := make(chan error, 1)
	go func() {
		waiter := client.DB().WithContext(ctx).Begin()
		if waiter.Error != nil {
			acquired <- waiter.Error
			return
		}
		defer waiter.Rollback()
		_, err := locker.Lock(ctx, waiter, key)
		acquired <- err
	}()

	otherKey := client.DB().WithContext(ctx).Begin()
	require.NoError(t, otherKey.Error)
	_, err = locker.Lock(ctx, otherKey, key+":other")
	require.NoError(t, err, "a different key must not wait")
	require.NoError(t, otherKey.Rollback().Error)

	select {
	case err := <-acquired:
		t.Fatalf("second holder got the lock before commit (err=%v)", err)
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, holder.Commit().Error)
	select {
	case err := <-acquired:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lock was not handed over after commit")
	}
}
