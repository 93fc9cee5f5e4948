package app

import (
	"context"

	"invoicing/internal/core"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
// Every owner-scoped method takes the acting owner id as resolved by the adapter.
type ApplicationService interface {
	// Health verifies that the database is reachable.
	Health(ctx context.Context) error

	// ── Clients ──────────────────────────────────────────────────────────────

	ListClients(ctx context.Context, ownerID string) (*ClientListResult, error)
	GetClient(ctx context.Context, ownerID, clientID string) (*core.Client, error)
	CreateClient(ctx context.Context, ownerID string, req ClientRequest) (*core.Client, error)
	UpdateClient(ctx context.Context, ownerID, clientID string, req ClientRequest) (*core.Client, error)

	// DeleteClient removes the client. Its invoices remain and render without a client.
	DeleteClient(ctx context.Context, ownerID, clientID string) error

	// ── Invoices ─────────────────────────────────────────────────────────────

	// ListInvoices returns the owner's invoices, newest first.
	// Status and ClientID in req are optional filters.
	ListInvoices(ctx context.Context, ownerID string, req ListInvoicesRequest) (*InvoiceListResult, error)

	// GetInvoice returns the invoice with its client and ordered items.
	GetInvoice(ctx context.Context, ownerID, invoiceID string) (*InvoiceResult, error)

	// CreateInvoice recomputes totals, allocates the next number and stores
	// header plus items in one transaction.
	CreateInvoice(ctx context.Context, ownerID string, req InvoiceRequest) (*InvoiceResult, error)

	// UpdateInvoice recomputes totals and replaces header fields and all items.
	// Only draft and sent invoices can be edited.
	UpdateInvoice(ctx context.Context, ownerID, invoiceID string, req InvoiceRequest) (*InvoiceResult, error)

	// ChangeInvoiceStatus applies a state machine step. Voiding requires req.Confirm.
	ChangeInvoiceStatus(ctx context.Context, ownerID, invoiceID string, req StatusChangeRequest) (*core.Invoice, error)

	// PrepareInvoicePDF records the print link and moves a draft to sent.
	PrepareInvoicePDF(ctx context.Context, ownerID, invoiceID string) (*PDFResult, error)

	// SendInvoice emails the share link to the client and moves a draft to sent.
	SendInvoice(ctx context.Context, ownerID, invoiceID string) (*SendResult, error)

	// ── Reporting ────────────────────────────────────────────────────────────

	GetDashboard(ctx context.Context, ownerID string) (*core.DashboardStats, error)

	// ── Public ───────────────────────────────────────────────────────────────

	// ResolvePublicInvoice serves the unauthenticated share link.
	ResolvePublicInvoice(ctx context.Context, token string) (*core.PublicInvoice, error)
}
