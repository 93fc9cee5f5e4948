package core

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// CurrencyAmount is a money total in one currency. Totals are never summed
// across currencies.
type CurrencyAmount struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// DashboardStats is the owner's overview.
//   - Outstanding: invoices in draft or sent, grouped by currency
//   - Paid:        invoices in paid, grouped by currency
type DashboardStats struct {
	TotalInvoices int                   `json:"total_invoices"`
	TotalClients  int                   `json:"total_clients"`
	ByStatus      map[InvoiceStatus]int `json:"by_status"`
	Outstanding   []CurrencyAmount      `json:"outstanding"`
	Paid          []CurrencyAmount      `json:"paid"`
	Recent        []InvoiceSummary      `json:"recent"`

	// NextInvoiceNumber is the number the next created invoice will get this year.
	NextInvoiceNumber string `json:"next_invoice_number"`
}

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService provides read-only aggregate queries over the owner's invoices.
type ReportingService interface {
	// GetDashboard returns counts, money totals and the most recent invoices.
	// recent bounds the number of recent rows; 0 uses the default of 5.
	GetDashboard(ctx context.Context, ownerID string, recent int) (*DashboardStats, error)
}

type reportingService struct {
	pool      *pgxpool.Pool
	invoices  InvoiceService
	allocator NumberAllocator
	now       func() time.Time
}

// NewReportingService constructs a ReportingService.
func NewReportingService(pool *pgxpool.Pool, invoices InvoiceService, allocator NumberAllocator) ReportingService {
	return &reportingService{pool: pool, invoices: invoices, allocator: allocator, now: time.Now}
}

const defaultRecentInvoices = 5

func (s *reportingService) GetDashboard(ctx context.Context, ownerID string, recent int) (*DashboardStats, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if recent <= 0 {
		recent = defaultRecentInvoices
	}

	stats := &DashboardStats{
		ByStatus: map[InvoiceStatus]int{
			StatusDraft: 0, StatusSent: 0, StatusPaid: 0, StatusVoid: 0,
		},
		Outstanding: []CurrencyAmount{},
		Paid:        []CurrencyAmount{},
	}

	if err := s.pool.QueryRow(ctx,
		"SELECT count(*) FROM clients WHERE owner_id = $1", ownerID,
	).Scan(&stats.TotalClients); err != nil {
		return nil, fmt.Errorf("failed to count clients: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT status, currency, count(*), COALESCE(SUM(total), 0)
		FROM invoices
		WHERE owner_id = $1
		GROUP BY status, currency
		ORDER BY currency, status`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate invoices: %w", err)
	}
	defer rows.Close()

	outstanding := map[string]decimal.Decimal{}
	paid := map[string]decimal.Decimal{}
	var currencies []string
	seen := map[string]bool{}

	for rows.Next() {
		var (
			status   InvoiceStatus
			currency string
			count    int
			sum      decimal.Decimal
		)
		if err := rows.Scan(&status, &currency, &count, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan invoice aggregate: %w", err)
		}
		stats.ByStatus[status] += count
		stats.TotalInvoices += count
		if !seen[currency] {
			seen[currency] = true
			currencies = append(currencies, currency)
		}
		switch status {
		case StatusDraft, StatusSent:
			outstanding[currency] = outstanding[currency].Add(sum)
		case StatusPaid:
			paid[currency] = paid[currency].Add(sum)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoice aggregates: %w", err)
	}

	for _, cur := range currencies {
		if amt, ok := outstanding[cur]; ok {
			stats.Outstanding = append(stats.Outstanding, CurrencyAmount{Currency: cur, Amount: amt})
		}
		if amt, ok := paid[cur]; ok {
			stats.Paid = append(stats.Paid, CurrencyAmount{Currency: cur, Amount: amt})
		}
	}

	stats.Recent, err = s.invoices.ListInvoices(ctx, ownerID, InvoiceFilter{Limit: recent})
	if err != nil {
		return nil, err
	}

	year := s.now().UTC().Year()
	last, err := s.allocator.Current(ctx, year)
	if err != nil {
		return nil, err
	}
	stats.NextInvoiceNumber = FormatInvoiceNumber(year, last+1)
	return stats, nil
}
