// Package dbtest opens throwaway databases for package tests: a private
// in-memory SQLite by default, or the Postgres named by TEST_POSTGRES_DSN.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/smartpos/smartpos-backend/pkg/config"
	"github.com/smartpos/smartpos-backend/pkg/db"
	"github.com/smartpos/smartpos-backend/pkg/db/models"
)

// Open returns a migrated client backed by a private in-memory database.
// The database disappears when the test finishes.
func Open(t testing.TB, name string) *db.Client {
	t.Helper()
	dsn := "file:" + name + "_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, conn.AutoMigrate(models.All()...))
	return db.FromGorm(conn)
}

// PostgresDSNEnv names the database used by tests that need real
// connection-level concurrency.
const PostgresDSNEnv = "TEST_POSTGRES_DSN"

// OpenPostgres connects to the database in TEST_POSTGRES_DSN with a pool
// wide enough for concurrent transactions. The test is skipped when the
// variable is unset. Tables are shared between runs, so callers should work
// on fresh ids.
func OpenPostgres(t testing.TB) *db.Client {
	t.Helper()
	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}
	client, err := db.New(context.Background(), config.DBConfig{
		DSN:          dsn,
		Driver:       config.DriverPostgres,
		MaxOpenConns: 16,
		MaxIdleConns: 16,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.DB().AutoMigrate(models.All()...))
	return client
}
