package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestContextFieldsFollowTheRequest(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := New(Options{ServiceName: "api", Output: buf})

	ctx := logg.WithRequestID(context.Background(), "req-7")
	ctx = logg.WithBusinessID(ctx, "biz-1")
	ctx = logg.WithFields(ctx, map[string]any{"movement_type": "ISSUE"})
	logg.Error(ctx, "append failed", errors.New("insufficient stock"))

	entry := decodeLine(t, buf)
	assert.Equal(t, "api", entry["service"])
	assert.Equal(t, "req-7", entry["request_id"])
	assert.Equal(t, "biz-1", entry["business_id"])
	assert.Equal(t, "ISSUE", entry["movement_type"])
	assert.Equal(t, "insufficient stock", entry["error"])
	assert.NotEmpty(t, entry["stack"])
}

func TestFieldsDoNotLeakToParentContext(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := New(Options{ServiceName: "api", Output: buf})

	parent := logg.WithUserID(context.Background(), "u-1")
	_ = logg.WithActorRole(parent, "manager")
	logg.Info(parent, "hello")

	entry := decodeLine(t, buf)
	assert.Equal(t, "u-1", entry["user_id"])
	assert.NotContains(t, entry, "actor_role")
}

func TestWarnStackIsOptIn(t *testing.T) {
	buf := &bytes.Buffer{}
	New(Options{Output: buf}).Warn(context.Background(), "slow")
	assert.NotContains(t, decodeLine(t, buf), "stack")

	buf.Reset()
	New(Options{Output: buf, WarnStack: true}).Warn(context.Background(), "slow")
	assert.Contains(t, decodeLine(t, buf), "stack")
}

func TestLevelFiltersDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	New(Options{Output: buf}).Debug(context.Background(), "noise")
	assert.Zero(t, buf.Len())

	New(Options{Output: buf, Level: "debug"}).Debug(context.Background(), "noise")
	assert.NotZero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
		" DEBUG ": zerolog.DebugLevel,
		"warn":    zerolog.WarnLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}
