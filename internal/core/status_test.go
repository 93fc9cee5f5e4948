package core_test

import (
	"errors"
	"testing"

	"invoicing/internal/core"
)

func TestCanTransition(t *testing.T) {
	all := []core.InvoiceStatus{core.StatusDraft, core.StatusSent, core.StatusPaid, core.StatusVoid}
	allowed := map[[2]core.InvoiceStatus]bool{
		{core.StatusDraft, core.StatusSent}: true,
		{core.StatusDraft, core.StatusPaid}: true,
		{core.StatusDraft, core.StatusVoid}: true,
		{core.StatusSent, core.StatusSent}:  true,
		{core.StatusSent, core.StatusPaid}:  true,
		{core.StatusSent, core.StatusVoid}:  true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]core.InvoiceStatus{from, to}]
			if got := core.CanTransition(from, to); got != want {
				t.Errorf("%s -> %s: expected %v, got %v", from, to, want, got)
			}
		}
	}
}

func TestTransition_TerminalStates(t *testing.T) {
	for _, from := range []core.InvoiceStatus{core.StatusPaid, core.StatusVoid} {
		if !from.IsTerminal() {
			t.Errorf("%s should be terminal", from)
		}
		if from.Editable() {
			t.Errorf("%s should not be editable", from)
		}
		for _, to := range []core.InvoiceStatus{core.StatusDraft, core.StatusSent, core.StatusPaid, core.StatusVoid} {
			err := core.Transition(from, to)
			if !errors.Is(err, core.ErrIllegalTransition) {
				t.Errorf("%s -> %s: expected ErrIllegalTransition, got %v", from, to, err)
			}
			var terr *core.TransitionError
			if !errors.As(err, &terr) || terr.From != from || terr.To != to {
				t.Errorf("%s -> %s: expected TransitionError carrying both states, got %v", from, to, err)
			}
		}
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := core.ParseStatus("paid"); err != nil || s != core.StatusPaid {
		t.Fatalf("expected paid, got %q (%v)", s, err)
	}
	if _, err := core.ParseStatus("archived"); !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown status, got %v", err)
	}
}

func TestSendable(t *testing.T) {
	if !core.StatusDraft.Sendable() || !core.StatusSent.Sendable() {
		t.Error("draft and sent invoices must be sendable")
	}
	if core.StatusPaid.Sendable() || core.StatusVoid.Sendable() {
		t.Error("paid and void invoices must not be sendable")
	}
}
