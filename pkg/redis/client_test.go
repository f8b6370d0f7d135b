package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryCmd keeps values in a map and records TTL calls.
type memoryCmd struct {
	values    map[string]string
	counters  map[string]int64
	ttls      map[string]time.Duration
	expireNXs int
}

func newMemoryCmd() *memoryCmd {
	return &memoryCmd{
		values:   map[string]string{},
		counters: map[string]int64{},
		ttls:     map[string]time.Duration{},
	}
}

func (m *memoryCmd) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *memoryCmd) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryCmd) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := m.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memoryCmd) SetNX(_ context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if _, ok := m.values[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (m *memoryCmd) Incr(_ context.Context, key string) *redis.IntCmd {
	m.counters[key]++
	return redis.NewIntResult(m.counters[key], nil)
}

func (m *memoryCmd) ExpireNX(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	m.expireNXs++
	if _, ok := m.ttls[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (m *memoryCmd) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := m.values[key]; ok {
			n++
		}
		delete(m.values, key)
		delete(m.counters, key)
		delete(m.ttls, key)
	}
	return redis.NewIntResult(n, nil)
}

func TestIncrWithTTLAlwaysAsksForExpiry(t *testing.T) {
	ctx := context.Background()
	cmd := newMemoryCmd()
	client := &Client{cmd: cmd}
	key := client.RateLimitKey("login:ip:10.0.0.1")

	for want := int64(1); want <= 3; want++ {
		got, err := client.IncrWithTTL(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 3, cmd.expireNXs)
	assert.Equal(t, time.Minute, cmd.ttls[key])
}

func TestSetGetDelRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := &Client{cmd: newMemoryCmd()}
	key := client.AccessSessionKey("access-1")

	require.NoError(t, client.Set(ctx, key, "digest", 10*time.Minute))
	value, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "digest", value)

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	assert.True(t, IsMiss(err))

	require.NoError(t, client.Del(ctx))
}

func TestSetNXReportsExistingKey(t *testing.T) {
	ctx := context.Background()
	client := &Client{cmd: newMemoryCmd()}
	key := client.IdempotencyKey("biz-1:POST:/api/v1/stock/issue", "abc")

	fresh, err := client.SetNX(ctx, key, "pending", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = client.SetNX(ctx, key, "pending", time.Hour)
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestZeroClientRefusesCommands(t *testing.T) {
	ctx := context.Background()
	var client *Client
	assert.ErrorIs(t, client.Ping(ctx), ErrNotInitialized)
	assert.NoError(t, client.Close())

	empty := &Client{}
	_, err := empty.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = empty.IncrWithTTL(ctx, "k", time.Second)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestKeyLayout(t *testing.T) {
	client := &Client{}
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "smartpos:idem:scope:key", client.IdempotencyKey("scope", "key"))
	assert.Equal(t, "smartpos:rl:login", client.RateLimitKey(" login "))
	assert.Equal(t, "smartpos:lock:cron-worker:prod", client.LockKey("cron-worker:prod"))
	assert.Equal(t, "smartpos:session:a1", client.AccessSessionKey("a1"))
	assert.Equal(t, "smartpos:idem:key", client.IdempotencyKey("", "key"))
	assert.Equal(t, "smartpos:reminder:biz:1772323200", client.ReminderKey("biz", end))
}
