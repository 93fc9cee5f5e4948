package app

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"invoicing/internal/core"
)

type appService struct {
	pool      *pgxpool.Pool
	clients   core.ClientService
	invoices  core.InvoiceService
	delivery  core.DeliveryService
	reporting core.ReportingService
	public    core.PublicResolver
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	clients core.ClientService,
	invoices core.InvoiceService,
	delivery core.DeliveryService,
	reporting core.ReportingService,
	public core.PublicResolver,
) ApplicationService {
	return &appService{
		pool:      pool,
		clients:   clients,
		invoices:  invoices,
		delivery:  delivery,
		reporting: reporting,
		public:    public,
	}
}

func (s *appService) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *appService) ListClients(ctx context.Context, ownerID string) (*ClientListResult, error) {
	clients, err := s.clients.ListClients(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &ClientListResult{Clients: clients}, nil
}

func (s *appService) GetClient(ctx context.Context, ownerID, clientID string) (*core.Client, error) {
	return s.clients.GetClient(ctx, ownerID, clientID)
}

func (s *appService) CreateClient(ctx context.Context, ownerID string, req ClientRequest) (*core.Client, error) {
	return s.clients.CreateClient(ctx, ownerID, req.toCore())
}

func (s *appService) UpdateClient(ctx context.Context, ownerID, clientID string, req ClientRequest) (*core.Client, error) {
	return s.clients.UpdateClient(ctx, ownerID, clientID, req.toCore())
}

func (s *appService) DeleteClient(ctx context.Context, ownerID, clientID string) error {
	return s.clients.DeleteClient(ctx, ownerID, clientID)
}

func (s *appService) ListInvoices(ctx context.Context, ownerID string, req ListInvoicesRequest) (*InvoiceListResult, error) {
	filter := core.InvoiceFilter{ClientID: strings.TrimSpace(req.ClientID), Limit: req.Limit}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, err := core.ParseStatus(strings.ToLower(raw))
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}

	invoices, err := s.invoices.ListInvoices(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}
	return &InvoiceListResult{Invoices: invoices}, nil
}

func (s *appService) GetInvoice(ctx context.Context, ownerID, invoiceID string) (*InvoiceResult, error) {
	agg, err := s.invoices.GetInvoice(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Aggregate: agg}, nil
}

func (s *appService) CreateInvoice(ctx context.Context, ownerID string, req InvoiceRequest) (*InvoiceResult, error) {
	agg, err := s.invoices.CreateInvoice(ctx, ownerID, req.toCore())
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Aggregate: agg}, nil
}

func (s *appService) UpdateInvoice(ctx context.Context, ownerID, invoiceID string, req InvoiceRequest) (*InvoiceResult, error) {
	agg, err := s.invoices.UpdateInvoice(ctx, ownerID, invoiceID, req.toCore())
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Aggregate: agg}, nil
}

func (s *appService) ChangeInvoiceStatus(ctx context.Context, ownerID, invoiceID string, req StatusChangeRequest) (*core.Invoice, error) {
	status, err := core.ParseStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if err != nil {
		return nil, err
	}
	if status == core.StatusVoid && !req.Confirm {
		return nil, &core.ValidationError{Field: "confirm", Message: "voiding an invoice must be confirmed"}
	}
	return s.invoices.ChangeStatus(ctx, ownerID, invoiceID, status)
}

func (s *appService) PrepareInvoicePDF(ctx context.Context, ownerID, invoiceID string) (*PDFResult, error) {
	url, err := s.delivery.PreparePDF(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, err
	}
	return &PDFResult{PDFURL: url}, nil
}

func (s *appService) SendInvoice(ctx context.Context, ownerID, invoiceID string) (*SendResult, error) {
	id, err := s.delivery.SendInvoice(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, err
	}
	return &SendResult{EmailID: id}, nil
}

func (s *appService) GetDashboard(ctx context.Context, ownerID string) (*core.DashboardStats, error) {
	return s.reporting.GetDashboard(ctx, ownerID, 0)
}

func (s *appService) ResolvePublicInvoice(ctx context.Context, token string) (*core.PublicInvoice, error) {
	return s.public.ResolvePublic(ctx, token)
}
