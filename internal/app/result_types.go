package app

import "invoicing/internal/core"

// ClientListResult is returned by ListClients.
type ClientListResult struct {
	Clients []core.Client
}

// InvoiceListResult is returned by ListInvoices.
type InvoiceListResult struct {
	Invoices []core.InvoiceSummary
}

// InvoiceResult is returned by invoice create, update and fetch operations.
type InvoiceResult struct {
	Aggregate *core.InvoiceAggregate
}

// PDFResult is returned by PrepareInvoicePDF.
type PDFResult struct {
	PDFURL string
}

// SendResult is returned by SendInvoice.
type SendResult struct {
	EmailID string
}
