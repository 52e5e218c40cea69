package database

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"timer-service/config"
	"timer-service/database/migrations"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/umakantv/go-utils/db"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// InitializeDatabase opens the configured database and brings its schema up
// to date. It exits the process when either step fails.
func InitializeDatabase(cfg config.DatabaseConfig) *sqlx.DB {
	dsn := cfg.DSN
	if cfg.Driver == "sqlite3" {
		dsn = SQLiteDSN(dsn)
	}
	dbConn := db.GetDBConnection(db.DatabaseConfig{
		DRIVER: cfg.Driver,
		DB:     dsn,
	})

	if err := Migrate(context.Background(), dbConn); err != nil {
		logger.Error("Error while running migration", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Database initialized successfully")
	return dbConn
}

// SQLiteDSN turns on foreign key enforcement in a go-sqlite3 DSN unless it
// already sets it. The pragma is per connection, so it has to ride on the DSN
// for every pooled connection to cascade deletes.
func SQLiteDSN(dsn string) string {
	if dsn == "" {
		dsn = ":memory:"
	}
	base, query, _ := strings.Cut(dsn, "?")
	params, err := url.ParseQuery(query)
	if err == nil && (params.Has("_foreign_keys") || params.Has("_fk")) {
		return dsn
	}
	if query == "" {
		return base + "?_foreign_keys=on"
	}
	return dsn + "&_foreign_keys=on"
}

// Migrate applies every embedded migration that has not run yet.
func Migrate(ctx context.Context, dbConn *sqlx.DB) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{})

	if err := goose.SetDialect(dbConn.DriverName()); err != nil {
		return fmt.Errorf("migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, dbConn.DB, "."); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// CreateMigration writes an empty SQL migration named name into dir.
func CreateMigration(dir, name string) error {
	if name == "" {
		return fmt.Errorf("migration name is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return goose.Create(nil, dir, name, "sql")
}

// gooseLogger routes goose output through the service logger.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	logger.Debug(fmt.Sprintf(format, v...), zap.String("component", "migrations"))
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	logger.Error(fmt.Sprintf(format, v...), zap.String("component", "migrations"))
	os.Exit(1)
}
