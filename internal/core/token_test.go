package core_test

import (
	"strings"
	"testing"

	"invoicing/internal/core"
)

func TestNewPublicToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		tok, err := core.NewPublicToken()
		if err != nil {
			t.Fatalf("NewPublicToken failed: %v", err)
		}
		if len(tok) != 43 {
			t.Fatalf("expected 43 chars, got %d (%q)", len(tok), tok)
		}
		if !core.ValidPublicTokenShape(tok) {
			t.Fatalf("generated token %q fails shape check", tok)
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = true
	}
}

func TestValidPublicTokenShape(t *testing.T) {
	good := strings.Repeat("a", 42) + "_"
	bad := []string{
		"",
		"short",
		strings.Repeat("a", 44),
		strings.Repeat("a", 42) + "=",
		strings.Repeat("a", 42) + "/",
		strings.Repeat("a", 41) + "' ",
	}
	if !core.ValidPublicTokenShape(good) {
		t.Errorf("expected %q to be accepted", good)
	}
	for _, tok := range bad {
		if core.ValidPublicTokenShape(tok) {
			t.Errorf("expected %q to be rejected", tok)
		}
	}
}
