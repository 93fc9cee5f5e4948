// Package render turns invoices into HTML: the public print view and the
// email body sent to clients.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"invoicing/internal/core"
	"invoicing/web"
)

// Company is the issuer shown on every invoice.
type Company struct {
	Name  string
	Email string
}

// Renderer renders the embedded invoice templates.
type Renderer struct {
	company Company
	invoice *template.Template
	email   *template.Template
}

type invoicePage struct {
	Company Company
	Invoice *core.PublicInvoice
	Print   bool
}

type emailPage struct {
	Company    Company
	Invoice    core.Invoice
	ClientName string
	ViewURL    string
}

// New parses the templates in web/templates.
func New(company Company) (*Renderer, error) {
	if strings.TrimSpace(company.Name) == "" {
		company.Name = "Invoice"
	}
	funcs := template.FuncMap{
		"formatMoney": formatMoney,
		"formatQty":   formatQty,
		"formatDate":  formatDate,
		"statusLabel": statusLabel,
	}

	inv, err := template.New("invoice.html").Funcs(funcs).ParseFS(web.Templates, "templates/invoice.html")
	if err != nil {
		return nil, fmt.Errorf("parse invoice template: %w", err)
	}
	mail, err := template.New("email.html").Funcs(funcs).ParseFS(web.Templates, "templates/email.html")
	if err != nil {
		return nil, fmt.Errorf("parse email template: %w", err)
	}
	return &Renderer{company: company, invoice: inv, email: mail}, nil
}

// PublicInvoice writes the printable page for a public projection. With
// print set, the page opens the browser print dialog on load.
func (r *Renderer) PublicInvoice(w io.Writer, pub *core.PublicInvoice, print bool) error {
	var buf bytes.Buffer
	if err := r.invoice.Execute(&buf, invoicePage{Company: r.company, Invoice: pub, Print: print}); err != nil {
		return fmt.Errorf("render invoice %s: %w", pub.InvoiceNumber, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// InvoiceEmail renders the subject and body of the email that carries viewURL.
func (r *Renderer) InvoiceEmail(agg *core.InvoiceAggregate, viewURL string) (string, string, error) {
	page := emailPage{Company: r.company, Invoice: agg.Invoice, ViewURL: viewURL}
	if agg.Client != nil {
		page.ClientName = agg.Client.Name
	}

	var buf bytes.Buffer
	if err := r.email.Execute(&buf, page); err != nil {
		return "", "", fmt.Errorf("render email for invoice %s: %w", agg.Invoice.InvoiceNumber, err)
	}
	subject := fmt.Sprintf("Invoice %s - %s", agg.Invoice.InvoiceNumber, r.company.Name)
	return subject, buf.String(), nil
}

// formatMoney prints amount at the currency's minor unit with thousands separators.
func formatMoney(amount decimal.Decimal, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = core.DefaultCurrency
	}
	fixed := amount.StringFixed(core.MinorUnitPlaces(currency))

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intPart, frac, hasFrac := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(c)
	}
	if hasFrac {
		return fmt.Sprintf("%s %s%s.%s", currency, sign, grouped.String(), frac)
	}
	return fmt.Sprintf("%s %s%s", currency, sign, grouped.String())
}

func formatQty(q decimal.Decimal) string {
	return q.String()
}

// formatDate renders a YYYY-MM-DD date as "Jan 2, 2006". Unparseable input
// is returned unchanged.
func formatDate(s string) string {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return s
	}
	return t.Format("Jan 2, 2006")
}

func statusLabel(s core.InvoiceStatus) string {
	switch s {
	case core.StatusDraft:
		return "Draft"
	case core.StatusSent:
		return "Sent"
	case core.StatusPaid:
		return "Paid"
	case core.StatusVoid:
		return "Void"
	}
	return string(s)
}
