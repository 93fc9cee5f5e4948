package core

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query helpers.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// requireOwner checks that an acting owner id is present and well formed.
func requireOwner(ownerID string) error {
	if ownerID == "" {
		return ErrUnauthorized
	}
	if _, err := uuid.Parse(ownerID); err != nil {
		return ErrUnauthorized
	}
	return nil
}

// validID reports whether id is a UUID. Malformed ids are treated as not found
// rather than sent to the database where the cast would fail.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// nullIfBlank maps an empty or whitespace-only string to NULL.
func nullIfBlank(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// isRetryable reports serialization failures and deadlocks, which are safe to
// retry by re-running the whole transaction.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// isUniqueViolation reports a unique constraint failure on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && (constraint == "" || pgErr.ConstraintName == constraint)
	}
	return false
}
