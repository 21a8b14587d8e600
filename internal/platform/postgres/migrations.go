package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

// MigrationTableName is the name of the table used by goose to track migrations.
const MigrationTableName = "schema_migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// slogGooseLogger adapts the goose logger interface to use slog
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements the goose.Logger Printf method by forwarding messages to slog.Info
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements the goose.Logger Fatalf method by forwarding error messages to slog.Error.
// Unlike the standard Fatalf behavior, this does NOT call os.Exit; the
// error is returned to the caller instead.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

// Migrate runs a goose command against the embedded migrations.
// Supported commands are up, down, status and version.
func Migrate(ctx context.Context, db *sql.DB, logger *slog.Logger, command string) error {
	if logger == nil {
		logger = slog.Default()
	}
	migrationLogger := logger.With("component", "migrations", "command", command)

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(&slogGooseLogger{logger: migrationLogger})
	goose.SetTableName(MigrationTableName)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	var err error
	switch command {
	case "up":
		err = goose.UpContext(ctx, db, "migrations")
	case "down":
		err = goose.DownContext(ctx, db, "migrations")
	case "status":
		err = goose.StatusContext(ctx, db, "migrations")
	case "version":
		err = goose.VersionContext(ctx, db, "migrations")
	default:
		return fmt.Errorf("unknown migration command: %s (expected up, down, status, or version)", command)
	}

	if err != nil {
		migrationLogger.Error("Migration command failed", "error", err)
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	migrationLogger.Info("Migration command completed")
	return nil
}
