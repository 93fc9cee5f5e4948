package core_test

import (
	"encoding/json"
	"strings"
	"testing"

	"invoicing/internal/core"
)

func strp(s string) *string { return &s }

func sampleAggregate() *core.InvoiceAggregate {
	return &core.InvoiceAggregate{
		Invoice: core.Invoice{
			ID:            "6f1c1c52-0000-4000-8000-000000000001",
			OwnerID:       "6f1c1c52-0000-4000-8000-000000000002",
			InvoiceNumber: "2026-000007",
			IssueDate:     "2026-03-01",
			Currency:      "USD",
			Status:        core.StatusSent,
			Subtotal:      d("100"),
			Tax:           d("10"),
			Total:         d("110"),
			Notes:         strp("pay by wire"),
			PDFURL:        strp("/i/tok?print=true"),
			PublicToken:   "secret-token-value",
		},
		Client: &core.Client{
			ID:      "6f1c1c52-0000-4000-8000-000000000003",
			Name:    "Acme",
			Email:   strp("billing@acme.test"),
			TaxID:   strp("900123"),
			Notes:   strp("internal: slow payer"),
			Company: strp("Acme SAS"),
		},
		Items: []core.InvoiceItem{
			{ID: "x", Description: "Consulting", Qty: d("1"), UnitPrice: d("100"), LineTotal: d("100")},
		},
	}
}

func TestProjectPublic_HidesPrivateFields(t *testing.T) {
	pub := core.ProjectPublic(sampleAggregate(), false)

	raw, err := json.Marshal(pub)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	body := string(raw)

	for _, leaked := range []string{
		"6f1c1c52", "secret-token-value", "print=true", "slow payer", "pay by wire", "owner",
	} {
		if strings.Contains(body, leaked) {
			t.Errorf("public projection leaked %q: %s", leaked, body)
		}
	}
	if pub.Client == nil || pub.Client.Name != "Acme" || *pub.Client.TaxID != "900123" {
		t.Errorf("expected client display fields, got %+v", pub.Client)
	}
	if len(pub.Items) != 1 || pub.Items[0].Description != "Consulting" {
		t.Errorf("expected items to be projected, got %+v", pub.Items)
	}
}

func TestProjectPublic_NotesOptIn(t *testing.T) {
	pub := core.ProjectPublic(sampleAggregate(), true)
	if pub.Notes == nil || *pub.Notes != "pay by wire" {
		t.Errorf("expected invoice notes when enabled, got %v", pub.Notes)
	}
}

func TestProjectPublic_DeletedClient(t *testing.T) {
	agg := sampleAggregate()
	agg.Client = nil
	pub := core.ProjectPublic(agg, false)
	if pub.Client != nil {
		t.Errorf("expected no client block, got %+v", pub.Client)
	}
}
