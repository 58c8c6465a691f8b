package storage

import (
	"embed"

	"github.com/cockroachdb/errors"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/pfrederiksen/rota-da-festa/internal/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationResult reports the schema version after Migrate
type MigrationResult struct {
	Version uint
	Dirty   bool
	Changed bool
}

// Migrate applies every pending migration to the database at databaseURL
func Migrate(databaseURL string) (MigrationResult, error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return MigrationResult{}, errors.Wrap(err, "opening embedded migrations")
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return MigrationResult{}, errors.Wrap(err, "creating migrator")
	}
	defer closeMigrator(m)

	result := MigrationResult{Changed: true}
	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return MigrationResult{}, errors.Wrap(err, "applying migrations")
		}
		result.Changed = false
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrationResult{}, errors.Wrap(err, "reading schema version")
	}
	result.Version = version
	result.Dirty = dirty
	return result, nil
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("closing migration source", logger.Fields{"error": srcErr.Error()})
	}
	if dbErr != nil {
		logger.Warn("closing migration database", logger.Fields{"error": dbErr.Error()})
	}
}
