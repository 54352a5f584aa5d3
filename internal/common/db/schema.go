package db

import (
	"context"
	"database/sql"
	"fmt"
)

// migration is one forward-only schema step. Versions are applied in order and
// recorded in railseat.schema_versions.
type migration struct {
	version     int
	description string
	statements  []string
}

var migrations = []migration{
	{
		version:     1,
		description: "trains, passengers and tickets",
		statements: []string{
			`CREATE SCHEMA IF NOT EXISTS railseat`,
			`CREATE TABLE IF NOT EXISTS railseat.trains (
				train_id          SERIAL PRIMARY KEY,
				route             TEXT[] NOT NULL,
				departure_minutes INTEGER NOT NULL CHECK (departure_minutes >= 0 AND departure_minutes < 1440),
				seats             INTEGER NOT NULL CHECK (seats > 0)
			)`,
			`CREATE TABLE IF NOT EXISTS railseat.passengers (
				passenger_id SERIAL PRIMARY KEY,
				name         TEXT NOT NULL,
				age          INTEGER NOT NULL CHECK (age >= 0)
			)`,
			`CREATE TABLE IF NOT EXISTS railseat.tickets (
				ticket_id         SERIAL PRIMARY KEY,
				train_id          INTEGER NOT NULL REFERENCES railseat.trains(train_id),
				from_station      TEXT NOT NULL,
				to_station        TEXT NOT NULL,
				booking_person_id INTEGER NOT NULL REFERENCES railseat.passengers(passenger_id),
				fare              INTEGER NOT NULL,
				created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE TABLE IF NOT EXISTS railseat.ticket_passengers (
				ticket_id    INTEGER NOT NULL REFERENCES railseat.tickets(ticket_id),
				passenger_id INTEGER NOT NULL REFERENCES railseat.passengers(passenger_id),
				position     INTEGER NOT NULL,
				PRIMARY KEY (ticket_id, position)
			)`,
			`CREATE INDEX IF NOT EXISTS tickets_train_idx ON railseat.tickets(train_id)`,
			`CREATE INDEX IF NOT EXISTS tickets_booking_person_idx ON railseat.tickets(booking_person_id)`,
		},
	},
}

// Migrate brings the schema up to the latest version inside one transaction.
func (db *DB) Migrate(ctx context.Context) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	bootstrap := []string{
		`CREATE SCHEMA IF NOT EXISTS railseat`,
		`CREATE TABLE IF NOT EXISTS railseat.schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		// Serializes concurrent migrators until commit.
		`LOCK TABLE railseat.schema_versions IN EXCLUSIVE MODE`,
	}
	for _, stmt := range bootstrap {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("preparing schema versions: %w", err)
		}
	}

	current, err := currentVersion(ctx, tx)
	if err != nil {
		return err
	}

	applied := 0
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		for _, stmt := range m.statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("applying migration %d: %w", m.version, err)
			}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO railseat.schema_versions (version, description) VALUES ($1, $2)`,
			m.version, m.description)
		if err != nil {
			return fmt.Errorf("recording migration %d: %w", m.version, err)
		}
		applied++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	db.logger.Info("Schema up to date",
		"previous_version", current,
		"applied", applied)

	return nil
}

// SchemaVersion returns the highest applied migration, 0 for an empty database.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := db.conn.QueryRowContext(ctx, `SELECT MAX(version) FROM railseat.schema_versions`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("querying schema version: %w", err)
	}
	return int(version.Int64), nil
}

func currentVersion(ctx context.Context, tx *sql.Tx) (int, error) {
	var version sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(version) FROM railseat.schema_versions`).Scan(&version); err != nil {
		return 0, fmt.Errorf("querying schema version: %w", err)
	}
	return int(version.Int64), nil
}
