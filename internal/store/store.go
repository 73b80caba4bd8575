// Package store implements the local record store: three SQLite-backed
// collections (sites, inspections, drafts) holding each record as a JSON
// payload plus the sync metadata needed to query pending work. Collections
// self-initialize empty and every mutation runs inside a single transaction,
// so two interleaved read-modify-write cycles serialize at the database.
package store

import (
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/sitecheck/internal/store/migrations"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Open opens the SQLite database at the given path and runs migrations.
// Use ":memory:" for an ephemeral store.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}
