// seed-demo fills an owner's account with sample clients and invoices for
// local development. Invoices go through the normal create path, so they
// consume real numbers from the owner's sequence.
//
// Usage: go run ./cmd/seed-demo --owner <uuid>
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"invoicing/internal/app"
	"invoicing/internal/config"
	"invoicing/internal/db"
	"invoicing/internal/logger"
)

func main() {
	_ = godotenv.Load()

	owner := flag.String("owner", os.Getenv("INVOICING_OWNER"), "owner UUID to seed")
	flag.Parse()

	log := logger.WithComponent("seed")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if err := logger.Setup(cfg.LoggerConfig()); err != nil {
		log.Fatal().Err(err).Msg("logger")
	}
	log = logger.WithComponent("seed")
	if err := cfg.RequireDatabase(); err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if *owner == "" {
		log.Fatal().Msg("--owner is required")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Fatal().Err(err).Msg("database")
	}
	defer pool.Close()

	svc, _, err := app.Bootstrap(pool, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap")
	}

	clients := []app.ClientRequest{
		{Name: "Acme Ltd", Email: "billing@acme.test", Company: "Acme Ltd", Address: "1 Market St\nSpringfield"},
		{Name: "Globex GmbH", Email: "ap@globex.test", Company: "Globex GmbH", TaxID: "DE123456789"},
	}

	today := time.Now().UTC()
	for i, req := range clients {
		client, err := svc.CreateClient(ctx, *owner, req)
		if err != nil {
			log.Fatal().Err(err).Str("client", req.Name).Msg("create client")
		}
		log.Info().Str("id", client.ID).Str("name", client.Name).Msg("client created")

		currency := []string{"USD", "EUR"}[i]
		result, err := svc.CreateInvoice(ctx, *owner, app.InvoiceRequest{
			ClientID:  client.ID,
			IssueDate: today.Format("2006-01-02"),
			DueDate:   today.AddDate(0, 0, 30).Format("2006-01-02"),
			Currency:  currency,
			Tax:       decimal.RequireFromString("5"),
			Notes:     "Thank you for your business.",
			Items: []app.InvoiceItemRequest{
				{Description: "Design work", Qty: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50)},
				{Description: "Hosting", Qty: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(20)},
			},
		})
		if err != nil {
			log.Fatal().Err(err).Str("client", client.Name).Msg("create invoice")
		}
		inv := result.Aggregate.Invoice
		log.Info().
			Str("number", inv.InvoiceNumber).
			Str("total", inv.Total.String()).
			Str("share", cfg.AppBaseURL+"/i/"+inv.PublicToken).
			Msg("invoice created")
	}
}
