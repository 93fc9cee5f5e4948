package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NumberAllocator hands out invoice numbers from the per-year counter in
// invoice_sequence. It is the only code path that touches that table.
type NumberAllocator interface {
	// NextNumberTx advances the counter for year inside the caller's transaction
	// and returns the formatted invoice number. The counter row stays locked
	// until the caller commits or rolls back, so a rolled-back creation does not
	// burn a number and two concurrent creations never see the same value.
	NextNumberTx(ctx context.Context, tx pgx.Tx, year int) (string, error)

	// Current returns the last number issued for year, or 0 if none.
	Current(ctx context.Context, year int) (int64, error)
}

type numberAllocator struct {
	pool *pgxpool.Pool
}

// NewNumberAllocator constructs a NumberAllocator backed by the invoice_sequence table.
func NewNumberAllocator(pool *pgxpool.Pool) NumberAllocator {
	return &numberAllocator{pool: pool}
}

func (a *numberAllocator) NextNumberTx(ctx context.Context, tx pgx.Tx, year int) (string, error) {
	if year < 1 || year > 9999 {
		return "", fmt.Errorf("%w: year %d out of range", ErrAllocationFailure, year)
	}

	// Single read-modify-write statement: the upsert takes the row lock.
	var lastNumber int64
	err := tx.QueryRow(ctx, `
		INSERT INTO invoice_sequence (year, last_number)
		VALUES ($1, 1)
		ON CONFLICT (year)
		DO UPDATE SET last_number = invoice_sequence.last_number + 1
		RETURNING last_number
	`, year).Scan(&lastNumber)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAllocationFailure, err)
	}

	return FormatInvoiceNumber(year, lastNumber), nil
}

func (a *numberAllocator) Current(ctx context.Context, year int) (int64, error) {
	var lastNumber int64
	err := a.pool.QueryRow(ctx,
		"SELECT last_number FROM invoice_sequence WHERE year = $1", year,
	).Scan(&lastNumber)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read invoice sequence for %d: %w", year, err)
	}
	return lastNumber, nil
}

// FormatInvoiceNumber renders the human-readable number, e.g. 2026-000123.
func FormatInvoiceNumber(year int, n int64) string {
	return fmt.Sprintf("%04d-%06d", year, n)
}
