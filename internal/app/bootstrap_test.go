package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"invoicing/internal/config"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestBootstrap_EmailDisabled(t *testing.T) {
	buf := captureLogs(t)

	svc, renderer, err := Bootstrap(nil, &config.Config{AppBaseURL: "http://localhost:8080", CompanyName: "Acme"})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if svc == nil || renderer == nil {
		t.Fatalf("expected service and renderer, got %v %v", svc, renderer)
	}
	out := buf.String()
	if !strings.Contains(out, "invoice email is disabled") || !strings.Contains(out, `"component":"bootstrap"`) {
		t.Fatalf("expected disabled-email warning, got %q", out)
	}
}

func TestBootstrap_EmailEnabled(t *testing.T) {
	buf := captureLogs(t)

	_, _, err := Bootstrap(nil, &config.Config{
		ResendAPIKey: "re_test",
		EmailFrom:    "billing@example.com",
		EmailAPIURL:  "http://127.0.0.1:1",
	})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if strings.Contains(buf.String(), "invoice email is disabled") {
		t.Fatalf("unexpected warning: %q", buf.String())
	}
}
