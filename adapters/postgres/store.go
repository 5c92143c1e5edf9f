// Package postgres optionally loads cleaned citations into a Postgres
// table. The stage is skipped entirely when DATABASE_URL is unset; the
// workbook is the primary output.
package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"parkclean/domain/violation"
	"parkclean/internal/errors"
	"parkclean/internal/logging"
)

const createTable = `CREATE TABLE IF NOT EXISTS "parking_violations" (
	"id" SERIAL PRIMARY KEY,
	"summons_number" VARCHAR(32) UNIQUE NOT NULL,
	"issue_date" DATE,
	"violation_code" VARCHAR(16),
	"fine_amount" DOUBLE PRECISION,
	"issuing_agency" VARCHAR(64),
	"registration_state" VARCHAR(16),
	"vehicle_make" VARCHAR(64),
	"street_name" VARCHAR(255)
);`

// Dedup already happened in memory; the conflict clause only matters
// when loading into a table populated by an earlier run.
const insertRow = `INSERT INTO parking_violations
	("summons_number", "issue_date", "violation_code", "fine_amount", "issuing_agency", "registration_state", "vehicle_make", "street_name")
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT ("summons_number") DO NOTHING`

// Store loads cleaned records into Postgres in batched transactions
type Store struct {
	db  *sqlx.DB
	log *logging.Logger
}

// Open connects and verifies the connection
func Open(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.DatabaseError("failed to ping database", err)
	}
	return &Store{db: db, log: logging.NewDefault("PostgresStore")}, nil
}

// EnsureSchema creates the violations table if absent
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return errors.DatabaseError("failed to create parking_violations table", err)
	}
	return nil
}

// InsertBatch loads one chunk of cleaned records inside a transaction
func (s *Store) InsertBatch(ctx context.Context, schema *violation.Schema, records []violation.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}

	stmt, err := tx.PreparexContext(ctx, insertRow)
	if err != nil {
		tx.Rollback()
		return errors.DatabaseError("failed to prepare insert", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		_, err := stmt.ExecContext(ctx,
			stringArg(rec, schema, violation.ColSummonsNumber),
			timeArg(rec, schema, violation.ColIssueDate),
			stringArg(rec, schema, violation.ColViolationCode),
			floatArg(rec, schema, violation.ColFineAmount),
			stringArg(rec, schema, violation.ColIssuingAgency),
			stringArg(rec, schema, violation.ColRegistration),
			stringArg(rec, schema, violation.ColVehicleMake),
			stringArg(rec, schema, violation.ColStreetName),
		)
		if err != nil {
			tx.Rollback()
			return errors.DatabaseError("failed to insert record", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit batch", err)
	}
	s.log.Debug("Inserted batch of %d records", len(records))
	return nil
}

// Close releases the connection pool
func (s *Store) Close() error {
	return s.db.Close()
}

// Null-aware argument helpers; a missing or absent column loads as NULL

func stringArg(rec violation.Record, schema *violation.Schema, name string) sql.NullString {
	val := rec.Get(schema, name)
	if val.IsMissing {
		return sql.NullString{}
	}
	return sql.NullString{String: val.String(), Valid: true}
}

func floatArg(rec violation.Record, schema *violation.Schema, name string) sql.NullFloat64 {
	val := rec.Get(schema, name)
	if !val.IsNumeric() {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: val.AsFloat64(), Valid: true}
}

func timeArg(rec violation.Record, schema *violation.Schema, name string) sql.NullTime {
	val := rec.Get(schema, name)
	if !val.IsTimestamp() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: val.AsTime(), Valid: true}
}
