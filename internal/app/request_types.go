package app

import (
	"github.com/shopspring/decimal"

	"invoicing/internal/core"
)

// ClientRequest is the input for creating or updating a client.
type ClientRequest struct {
	Name    string
	Email   string
	Company string
	TaxID   string
	Address string
	Notes   string
}

// InvoiceRequest is the input for creating or updating an invoice.
type InvoiceRequest struct {
	ClientID  string
	IssueDate string // YYYY-MM-DD; empty means today
	DueDate   string // optional
	Currency  string
	Tax       decimal.Decimal
	Notes     string
	Items     []InvoiceItemRequest

	// Total is whatever the caller displayed. It is never trusted.
	Total *decimal.Decimal
}

// InvoiceItemRequest is a single line within an InvoiceRequest.
type InvoiceItemRequest struct {
	Description string
	Qty         decimal.Decimal
	UnitPrice   decimal.Decimal
}

// ListInvoicesRequest filters ListInvoices. Empty fields mean "all".
type ListInvoicesRequest struct {
	Status   string
	ClientID string
	Limit    int
}

// StatusChangeRequest is the input for ChangeInvoiceStatus.
type StatusChangeRequest struct {
	Status  string
	Confirm bool // required for void
}

func (r ClientRequest) toCore() core.ClientInput {
	return core.ClientInput{
		Name:    r.Name,
		Email:   r.Email,
		Company: r.Company,
		TaxID:   r.TaxID,
		Address: r.Address,
		Notes:   r.Notes,
	}
}

func (r InvoiceRequest) toCore() core.InvoiceInput {
	in := core.InvoiceInput{
		ClientID:       r.ClientID,
		IssueDate:      r.IssueDate,
		DueDate:        r.DueDate,
		Currency:       r.Currency,
		Tax:            r.Tax,
		Notes:          r.Notes,
		Items:          make([]core.ItemInput, len(r.Items)),
		SubmittedTotal: r.Total,
	}
	for i, it := range r.Items {
		in.Items[i] = core.ItemInput{Description: it.Description, Qty: it.Qty, UnitPrice: it.UnitPrice}
	}
	return in
}
