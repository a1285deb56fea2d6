package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var MigrationFiles embed.FS

// ErrSchemaBehind is returned when auto-migration is off and the database has
// not been migrated to the latest embedded version.
var ErrSchemaBehind = errors.New("database schema is behind the embedded migrations")

// LatestVersion returns the highest migration version available from src.
func LatestVersion(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("read first migration: %w", err)
	}
	for {
		next, err := src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		if err != nil {
			return 0, fmt.Errorf("read migration after %d: %w", v, err)
		}
		v = next
	}
}

// RunMigrations brings the documents and usage_counters tables up to date.
// With autoMigrate false nothing is applied; the call fails with ErrSchemaBehind
// when the database is older than the embedded migrations.
func RunMigrations(db *sql.DB, autoMigrate bool) error {
	src, err := iofs.New(MigrationFiles, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	latest, err := LatestVersion(src)
	if err != nil {
		return err
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	if dirty {
		// Migrations only use IF NOT EXISTS, so the interrupted version can be re-run.
		forced := int(current) - 1
		if forced < 1 {
			forced = database.NilVersion
		}
		if err := m.Force(forced); err != nil {
			return fmt.Errorf("failed to recover dirty migration state at version %d: %w", current, err)
		}
		slog.Warn("[Migrations] Recovered dirty state", "version", current, "forced_to", forced)
		current = uint(max(forced, 0))
	}

	if !autoMigrate {
		if current < latest {
			return fmt.Errorf("%w: at version %d, latest is %d", ErrSchemaBehind, current, latest)
		}
		slog.Info("[Migrations] Auto-migration disabled, schema is current", "version", current)
		return nil
	}

	slog.Info("[Migrations] Applying", "from_version", current, "to_version", latest)
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("[Migrations] Schema is up to date", "version", current)
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("[Migrations] Completed", "version", latest)
	return nil
}
