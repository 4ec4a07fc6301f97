// Command migrate applies or rolls back the relational schema (C3)
// using golang-migrate against the SQL files in db/migrations. It
// takes one subcommand: up or down.
package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/TeamPew/pewstats-collectors/internal/config"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	m, closeDB, err := newMigrator(libpqDSN(cfg))
	if err != nil {
		return fmt.Errorf("build migrator: %w", err)
	}
	defer closeDB()

	switch direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	default:
		return fmt.Errorf("unknown migrate subcommand %q (expected up or down)", direction)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}
	return nil
}

// newMigrator opens a plain database/sql connection for golang-migrate
// (its postgres driver wraps database/sql, not pgx, which the rest of
// the pipeline uses via pgxpool) and builds a Migrate instance against
// the SQL files in db/migrations.
func newMigrator(dsn string) (*migrate.Migrate, func(), error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open database/sql connection: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("build postgres driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://db/migrations", "postgres", driver)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("build migrate instance: %w", err)
	}

	return m, func() { db.Close() }, nil
}

// libpqDSN renders a connection string lib/pq accepts directly,
// dropping pool_max_conns, which is a pgxpool-only setting and not a
// recognized libpq parameter.
func libpqDSN(cfg *config.Config) string {
	d := cfg.Database
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}
