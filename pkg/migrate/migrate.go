// Package migrate applies the SQL migrations embedded in the binary with
// goose, and creates and validates migration files on disk.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

// DefaultDir is where new migrations are created on disk.
const DefaultDir = "pkg/migrate/migrations"

const embeddedDir = "migrations"

//go:embed migrations/*.sql
var Migrations embed.FS

var gooseDialects = map[string]goose.Dialect{
	"":         goose.DialectPostgres,
	"postgres": goose.DialectPostgres,
	"sqlite":   goose.DialectSQLite3,
}

func newProvider(db *sql.DB, dialect string) (*goose.Provider, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	d, ok := gooseDialects[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	sub, err := fs.Sub(Migrations, embeddedDir)
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(d, db, sub)
}

// Run executes up, down or status against the embedded migrations.
func Run(ctx context.Context, db *sql.DB, dialect, command string, logg *logger.Logger) error {
	provider, err := newProvider(db, dialect)
	if err != nil {
		return err
	}
	switch command {
	case "up":
		results, err := provider.Up(ctx)
		logResults(ctx, logg, results...)
		return wrapGoose("up", err)
	case "down":
		result, err := provider.Down(ctx)
		if result != nil {
			logResults(ctx, logg, result)
		}
		return wrapGoose("down", err)
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return wrapGoose("status", err)
		}
		for _, s := range statuses {
			fields := map[string]any{"version": s.Source.Version, "file": s.Source.Path, "state": string(s.State)}
			if !s.AppliedAt.IsZero() {
				fields["applied_at"] = s.AppliedAt
			}
			logg.Info(logg.WithFields(ctx, fields), "migration status")
		}
		return nil
	}
	return fmt.Errorf("unknown migrate command %q", command)
}

// MigrateToVersion moves the schema up or down until target is the latest
// applied version.
func MigrateToVersion(ctx context.Context, db *sql.DB, dialect, target string, logg *logger.Logger) error {
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", target, err)
	}
	provider, err := newProvider(db, dialect)
	if err != nil {
		return err
	}
	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return wrapGoose("version", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current < version:
		results, err = provider.UpTo(ctx, version)
	case current > version:
		results, err = provider.DownTo(ctx, version)
	}
	logResults(ctx, logg, results...)
	return wrapGoose(fmt.Sprintf("migrate to %d", version), err)
}

func logResults(ctx context.Context, logg *logger.Logger, results ...*goose.MigrationResult) {
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		logg.Info(logg.WithFields(ctx, map[string]any{
			"version":     r.Source.Version,
			"direction":   r.Direction,
			"duration_ms": r.Duration.Milliseconds(),
		}), "migration applied")
	}
}

func wrapGoose(step string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("goose %s: %w", step, err)
}
