package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/smartpos/smartpos-backend/pkg/config"
	"github.com/smartpos/smartpos-backend/pkg/logger"
)

type widget struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

func openWidgets(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:db_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	pool, err := conn.DB()
	require.NoError(t, err)
	pool.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = pool.Close() })
	require.NoError(t, conn.AutoMigrate(&widget{}))
	return conn
}

func countWidgets(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&widget{}).Count(&n).Error)
	return n
}

func TestWithTxCommitsOrRollsBack(t *testing.T) {
	conn := openWidgets(t)
	client := FromGorm(conn)
	ctx := context.Background()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&widget{Name: "kept"}).Error
	}))
	assert.EqualValues(t, 1, countWidgets(t, conn))

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&widget{Name: "dropped"}).Error; err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")
	assert.EqualValues(t, 1, countWidgets(t, conn))

	assert.Panics(t, func() {
		_ = client.WithTx(ctx, func(tx *gorm.DB) error {
			tx.Create(&widget{Name: "panicked"})
			panic("bad")
		})
	})
	assert.EqualValues(t, 1, countWidgets(t, conn))
}

func TestNewOpensSQLite(t *testing.T) {
	client, err := New(context.Background(), config.DBConfig{
		Driver: config.DriverSQLite,
		DSN:    "file:new_" + uuid.NewString() + "?mode=memory&cache=shared",
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Ping(context.Background()))
	assert.IsType(t, &KeyedMutex{}, client.Locker())
	assert.Equal(t, "sqlite", client.DB().Dialector.Name())
}

func TestNewRequiresDSN(t *testing.T) {
	_, err := New(context.Background(), config.DBConfig{}, nil)
	assert.Error(t, err)
}

func TestIsUniqueViolation(t *testing.T) {
	conn := openWidgets(t)
	require.NoError(t, conn.Create(&widget{Name: "dup"}).Error)
	err := conn.Create(&widget{Name: "dup"}).Error
	require.Error(t, err)

	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "uq_widgets_name"))
	assert.False(t, IsUniqueViolation(errors.New("connection reset"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}

func TestQueryLoggerReportsFailuresAndSlowStatements(t *testing.T) {
	buf := &bytes.Buffer{}
	ql := newQueryLogger(logger.New(logger.Options{ServiceName: "test", Output: buf}), 10*time.Millisecond)
	ctx := context.Background()
	stmt := func() (string, int64) { return "SELECT 1", 1 }

	ql.Trace(ctx, time.Now(), stmt, gorm.ErrRecordNotFound)
	ql.Trace(ctx, time.Now(), stmt, nil)
	assert.Zero(t, buf.Len())

	ql.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	assert.Contains(t, buf.String(), "slow query")

	buf.Reset()
	ql.Trace(ctx, time.Now(), stmt, errors.New("syntax error"))
	assert.Contains(t, buf.String(), "query failed: syntax error")
	assert.Contains(t, buf.String(), `"sql":"SELECT 1"`)
}
