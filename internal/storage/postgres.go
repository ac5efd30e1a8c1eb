// Package storage implements the PostgreSQL persistence layer of the
// caixinha: users, quotas and their monthly installments, loans,
// monthly raffles with their tickets, the singleton configuration row
// and the admin audit trail. Multi-row state changes run inside a
// single transaction.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	// Registers the pgx driver for database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Sentinel errors returned by repository methods. Services translate
// them into HTTP statuses.
var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	ErrConflict      = errors.New("record state conflict")
)

// Storage encapsulates the PostgreSQL connection and implements the
// repository methods for every caixinha entity.
type Storage struct {
	DB *sql.DB
}

// New opens a PostgreSQL connection and verifies it.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady verifies the schema has been migrated.
func CheckDatabaseReady(storage *Storage) error {
	var exists bool
	err := storage.DB.QueryRow(`SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'quotas'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table quotas missing or query error: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique
// constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
