package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// SchemaTable is where golang-migrate keeps the applied schema version.
const SchemaTable = "finboard_schema_version"

//go:embed migrations/*.sql
var schemaFS embed.FS

// RunMigrations brings the transactions schema at dbPath up to date. It uses
// its own connection, which the migrator closes when done.
func RunMigrations(dbPath string) error {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open %s for schema upgrade: %w", dbPath, err)
	}
	defer conn.Close()

	target, err := sqlite.WithInstance(conn, &sqlite.Config{MigrationsTable: SchemaTable})
	if err != nil {
		return fmt.Errorf("prepare schema table %s: %w", SchemaTable, err)
	}
	source, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		return fmt.Errorf("read embedded schema files: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", target)
	if err != nil {
		return fmt.Errorf("build schema migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("upgrade schema of %s: %w", dbPath, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema of %s is dirty at version %d", dbPath, version)
	}
	slog.Debug("transactions schema ready", "db_path", dbPath, "version", version)
	return nil
}
