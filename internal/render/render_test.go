package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/internal/core"
)

func strp(s string) *string { return &s }

func publicFixture() *core.PublicInvoice {
	return &core.PublicInvoice{
		InvoiceNumber: "2026-000042",
		IssueDate:     "2026-03-01",
		DueDate:       strp("2026-03-31"),
		Currency:      "USD",
		Status:        core.StatusSent,
		Subtotal:      decimal.RequireFromString("1250"),
		Tax:           decimal.Zero,
		Total:         decimal.RequireFromString("1250"),
		Client:        &core.PublicClient{Name: "Acme <Corp>", TaxID: strp("900123")},
		Items: []core.PublicItem{
			{
				Description: "Design",
				Qty:         decimal.RequireFromString("2.5"),
				UnitPrice:   decimal.RequireFromString("500"),
				LineTotal:   decimal.RequireFromString("1250"),
			},
		},
	}
}

func TestPublicInvoice(t *testing.T) {
	r, err := New(Company{Name: "Cacao & Avocado", Email: "billing@example.com"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.PublicInvoice(&buf, publicFixture(), false))
	html := buf.String()

	assert.Contains(t, html, "2026-000042")
	assert.Contains(t, html, "USD 1,250.00")
	assert.Contains(t, html, "Mar 31, 2026")
	assert.Contains(t, html, "Tax ID: 900123")
	assert.Contains(t, html, "Acme &lt;Corp&gt;", "client fields must be escaped")
	assert.Contains(t, html, "Cacao &amp; Avocado")
	assert.NotContains(t, html, "window.print")
}

func TestPublicInvoice_PrintAndNoClient(t *testing.T) {
	r, err := New(Company{})
	require.NoError(t, err)

	pub := publicFixture()
	pub.Client = nil

	var buf bytes.Buffer
	require.NoError(t, r.PublicInvoice(&buf, pub, true))
	assert.Contains(t, buf.String(), "window.print")
	assert.Contains(t, buf.String(), "<h1 style=\"margin: 0; font-size: 24px;\">Invoice</h1>")
}

func TestInvoiceEmail(t *testing.T) {
	r, err := New(Company{Name: "Studio", Email: "hi@studio.test"})
	require.NoError(t, err)

	agg := &core.InvoiceAggregate{
		Invoice: core.Invoice{
			InvoiceNumber: "2026-000007",
			IssueDate:     "2026-01-15",
			Currency:      "JPY",
			Total:         decimal.RequireFromString("150000"),
		},
		Client: &core.Client{Name: "Kenji"},
	}
	subject, body, err := r.InvoiceEmail(agg, "https://billing.example.com/i/tok")
	require.NoError(t, err)

	assert.Equal(t, "Invoice 2026-000007 - Studio", subject)
	assert.Contains(t, body, "Hello Kenji,")
	assert.Contains(t, body, "JPY 150,000")
	assert.Contains(t, body, `href="https://billing.example.com/i/tok"`)
	assert.False(t, strings.Contains(body, "Due date"))
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"0", "usd", "USD 0.00"},
		{"999.5", "USD", "USD 999.50"},
		{"1234567.891", "EUR", "EUR 1,234,567.89"},
		{"-1000", "USD", "USD -1,000.00"},
		{"12.3456", "KWD", "KWD 12.346"},
		{"100000", "", "USD 100,000.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatMoney(decimal.RequireFromString(tt.amount), tt.currency), tt.amount)
	}
}
