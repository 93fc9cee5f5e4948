package app

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"invoicing/internal/config"
	"invoicing/internal/core"
	"invoicing/internal/email"
	"invoicing/internal/logger"
	"invoicing/internal/render"
)

// Bootstrap builds the services behind ApplicationService from cfg. It also
// returns the renderer so the web adapter can serve the print view.
func Bootstrap(pool *pgxpool.Pool, cfg *config.Config) (ApplicationService, *render.Renderer, error) {
	renderer, err := render.New(render.Company{Name: cfg.CompanyName, Email: cfg.CompanyEmail})
	if err != nil {
		return nil, nil, fmt.Errorf("templates: %w", err)
	}

	var mailer core.Mailer
	if cfg.EmailEnabled() {
		client, err := email.NewClient(email.Config{
			APIKey:  cfg.ResendAPIKey,
			From:    cfg.EmailFrom,
			APIURL:  cfg.EmailAPIURL,
			Timeout: cfg.EmailTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("email: %w", err)
		}
		mailer = client
	} else {
		log := logger.WithComponent("bootstrap")
		log.Warn().Msg("RESEND_API_KEY or EMAIL_FROM not set; invoice email is disabled")
	}

	clients := core.NewClientService(pool)
	allocator := core.NewNumberAllocator(pool)
	invoices := core.NewInvoiceService(pool, allocator)
	delivery := core.NewDeliveryService(invoices, mailer, renderer, cfg.AppBaseURL)
	reporting := core.NewReportingService(pool, invoices, allocator)
	public := core.NewPublicResolver(pool, cfg.PublicShowNotes)

	return NewAppService(pool, clients, invoices, delivery, reporting, public), renderer, nil
}
