package core_test

import (
	"context"
	"os"
	"testing"

	"invoicing/internal/db"
	"invoicing/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database; every run truncates all invoicing tables.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dbURL, 30)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if _, err := db.Migrate(ctx, pool, migrations.FS, zerolog.Nop()); err != nil {
		pool.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	_, err = pool.Exec(ctx, `TRUNCATE TABLE invoice_items, invoices, clients, invoice_sequence CASCADE`)
	if err != nil {
		pool.Close()
		t.Fatalf("Failed to clean test database: %v", err)
	}

	return pool
}
