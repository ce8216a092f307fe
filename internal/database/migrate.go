package database

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// pgx5 driver registers the "pgx5" scheme for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/BusselW/DDH3/internal/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies every pending up migration of the local list backend
// schema. A database left dirty by a failed run is reported, not repaired.
func Migrate(dsn string, log *logger.Logger) error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("migration: failed to open embedded source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, pgx5DSN(dsn))
	if err != nil {
		return fmt.Errorf("migration: failed to initialize: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			log.Error("Failed to close migration source", srcErr, nil)
		}
		if dbErr != nil {
			log.Error("Failed to close migration database", dbErr, nil)
		}
	}()
	m.Log = &migrateLogger{log: log}

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migration: failed to read version: %w", err)
	}
	if dirty {
		return fmt.Errorf("migration: database is dirty at version %d", current)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("Schema up to date", map[string]interface{}{"version": current})
			return nil
		}
		return fmt.Errorf("migration: up failed: %w", err)
	}

	next, _, _ := m.Version()
	log.Info("Schema migrated", map[string]interface{}{
		"from_version": current,
		"to_version":   next,
	})
	return nil
}

// pgx5DSN rewrites postgres:// and postgresql:// URLs to the pgx5:// scheme
// the golang-migrate driver expects.
func pgx5DSN(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

type migrateLogger struct {
	log *logger.Logger
}

func (l *migrateLogger) Printf(format string, args ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), nil)
}

func (l *migrateLogger) Verbose() bool {
	return false
}
