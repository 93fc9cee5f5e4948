package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of an invoice.
// Status progresses through the state machine:
//
//	draft → sent → paid
//	draft → paid
//	draft, sent → void
//
// paid and void are terminal.
type InvoiceStatus string

const (
	StatusDraft InvoiceStatus = "draft"
	StatusSent  InvoiceStatus = "sent"
	StatusPaid  InvoiceStatus = "paid"
	StatusVoid  InvoiceStatus = "void"
)

// Client is a billable party owned by the account that created it.
type Client struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Company   *string   `json:"company,omitempty"`
	TaxID     *string   `json:"tax_id,omitempty"`
	Address   *string   `json:"address,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Invoice is the invoice header. Subtotal, Tax and Total are derived from the
// items by the calculator and stored redundantly for listing and reporting.
type Invoice struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	InvoiceNumber string          `json:"invoice_number"` // assigned once at creation
	ClientID      *string         `json:"client_id,omitempty"`
	IssueDate     string          `json:"issue_date"` // YYYY-MM-DD
	DueDate       *string         `json:"due_date,omitempty"`
	Currency      string          `json:"currency"`
	Status        InvoiceStatus   `json:"status"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	Notes         *string         `json:"notes,omitempty"`
	PDFURL        *string         `json:"pdf_url,omitempty"`
	PublicToken   string          `json:"public_token"` // immutable
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	SentAt        *time.Time      `json:"sent_at,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	VoidedAt      *time.Time      `json:"voided_at,omitempty"`
}

// InvoiceItem is one billable row. Items are replaced as a whole set on every edit.
type InvoiceItem struct {
	ID          string          `json:"id"`
	InvoiceID   string          `json:"invoice_id"`
	Description string          `json:"description"`
	Qty         decimal.Decimal `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	SortOrder   int             `json:"sort_order"`
}

// InvoiceSequence is the per-year counter backing invoice numbers.
type InvoiceSequence struct {
	Year       int   `json:"year"`
	LastNumber int64 `json:"last_number"`
}

// InvoiceAggregate is an invoice together with its client and ordered items,
// built once at the query boundary.
type InvoiceAggregate struct {
	Invoice Invoice       `json:"invoice"`
	Client  *Client       `json:"client,omitempty"` // nil when the client was deleted
	Items   []InvoiceItem `json:"items"`
}

// PublicClient holds the client fields shown to anyone holding the share link.
type PublicClient struct {
	Name    string  `json:"name"`
	Company *string `json:"company,omitempty"`
	TaxID   *string `json:"tax_id,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
}

// PublicItem is an item as shown on the public view.
type PublicItem struct {
	Description string          `json:"description"`
	Qty         decimal.Decimal `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// PublicInvoice is the read-only projection served by the public token path.
// It deliberately carries no ids, owner, token or pdf fields.
type PublicInvoice struct {
	InvoiceNumber string          `json:"invoice_number"`
	IssueDate     string          `json:"issue_date"`
	DueDate       *string         `json:"due_date,omitempty"`
	Currency      string          `json:"currency"`
	Status        InvoiceStatus   `json:"status"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	Notes         *string         `json:"notes,omitempty"`
	Client        *PublicClient   `json:"client,omitempty"`
	Items         []PublicItem    `json:"items"`
}

// ClientInput is used when creating or updating a client.
type ClientInput struct {
	Name    string
	Email   string
	Company string
	TaxID   string
	Address string
	Notes   string
}

// ItemInput is one submitted line item. Line totals are always recomputed.
type ItemInput struct {
	Description string
	Qty         decimal.Decimal
	UnitPrice   decimal.Decimal
}

// InvoiceInput is used when creating or updating an invoice.
type InvoiceInput struct {
	ClientID  string
	IssueDate string // YYYY-MM-DD; empty means today
	DueDate   string // optional
	Currency  string // ISO-4217; empty means DefaultCurrency
	Tax       decimal.Decimal
	Notes     string
	Items     []ItemInput

	// SubmittedTotal is the total the caller displayed, if any. It is only
	// compared against the recomputed total for logging; it is never stored.
	SubmittedTotal *decimal.Decimal
}

// InvoiceSummary is a list row: the header plus the client's display name.
type InvoiceSummary struct {
	Invoice
	ClientName *string `json:"client_name,omitempty"`
}

// InvoiceFilter narrows ListInvoices. Zero values mean "all".
type InvoiceFilter struct {
	Status   *InvoiceStatus
	ClientID string
	Limit    int
}

// DefaultCurrency is used when an invoice is submitted without a currency.
const DefaultCurrency = "USD"
