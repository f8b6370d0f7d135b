package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartpos/smartpos-backend/pkg/config"
)

type memoryStore struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]string)}
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func newTestManager(t *testing.T, store *memoryStore) *Manager {
	t.Helper()
	m, err := NewManager(store, config.JWTConfig{ExpirationMinutes: 15, RefreshTokenTTLMinutes: 60})
	require.NoError(t, err)
	return m
}

func TestNewManagerValidatesTTL(t *testing.T) {
	_, err := NewManager(newMemoryStore(), config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 30})
	assert.Error(t, err)
	_, err = NewManager(nil, config.JWTConfig{ExpirationMinutes: 15, RefreshTokenTTLMinutes: 60})
	assert.Error(t, err)
}

func TestGenerateStoresDigestOnly(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(t, store)

	token, err := m.Generate(context.Background(), "jti-1")
	require.NoError(t, err)

	stored := store.data["sess:jti-1"]
	assert.NotEqual(t, token, stored)
	assert.Equal(t, digestOf(token), stored)

	_, err = m.Generate(context.Background(), " ")
	assert.Error(t, err)
}

func TestRotateIssuesNewSessionOnce(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(t, store)
	ctx := context.Background()

	token, err := m.Generate(ctx, "jti-1")
	require.NoError(t, err)

	_, _, err = m.Rotate(ctx, "jti-1", "wrong")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	newID, newToken, err := m.Rotate(ctx, "jti-1", token)
	require.NoError(t, err)
	assert.NotEqual(t, "jti-1", newID)
	assert.NotContains(t, store.data, "sess:jti-1")
	assert.Equal(t, digestOf(newToken), store.data["sess:"+newID])

	_, _, err = m.Rotate(ctx, "jti-1", token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRevokeEndsSession(t *testing.T) {
	store := newMemoryStore()
	m := newTestManager(t, store)
	ctx := context.Background()

	_, err := m.Generate(ctx, "jti-1")
	require.NoError(t, err)

	ok, err := m.HasSession(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.Revoke(ctx, "jti-1"))
	ok, err = m.HasSession(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasSessionSurfacesStoreErrors(t *testing.T) {
	store := newMemoryStore()
	store.getErr = errors.New("connection refused")
	m := newTestManager(t, store)

	_, err := m.HasSession(context.Background(), "jti-1")
	assert.Error(t, err)

	_, _, err = m.Rotate(context.Background(), "jti-1", "token")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidRefreshToken)
}
