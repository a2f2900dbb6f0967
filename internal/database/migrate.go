package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies pending schema migrations.
func (db *DB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{db.logger})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db.DB, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// SchemaVersion returns the latest applied migration version.
func (db *DB) SchemaVersion(ctx context.Context) (int64, error) {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, db.DB)
}

type gooseLogger struct {
	l *zerolog.Logger
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.l.Error().Msgf(format, v...)
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.l.Debug().Msgf(format, v...)
}
