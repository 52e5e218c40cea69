// Package dbtest opens throwaway in-memory databases with the service schema.
package dbtest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"timer-service/database"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/umakantv/go-utils/logger"
)

var (
	seq        atomic.Int64
	loggerOnce sync.Once
)

// InitLogger initializes the service logger once per test binary.
func InitLogger() {
	loggerOnce.Do(func() {
		logger.Init(logger.LoggerConfig{
			CallerKey:  "file",
			TimeKey:    "timestamp",
			CallerSkip: 1,
		})
	})
}

// New returns a migrated in-memory SQLite database private to the test.
func New(t *testing.T) *sqlx.DB {
	t.Helper()
	InitLogger()

	dsn := database.SQLiteDSN(fmt.Sprintf("file:dbtest%d?mode=memory&cache=shared", seq.Add(1)))
	db, err := sqlx.Open("sqlite3", dsn)
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}
