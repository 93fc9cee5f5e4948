package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"invoicing/internal/logger"
	"invoicing/internal/metrics"
)

// Mailer delivers one HTML email and returns the provider's message id.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) (string, error)
}

// EmailRenderer produces the subject and HTML body of the invoice email.
type EmailRenderer interface {
	InvoiceEmail(agg *InvoiceAggregate, viewURL string) (subject, body string, err error)
}

// DeliveryService prepares the printable link and emails invoices to clients.
// Both operations move a draft invoice to sent.
type DeliveryService interface {
	// PreparePDF records the print URL for the invoice and returns it.
	// Void invoices are rejected.
	PreparePDF(ctx context.Context, ownerID, invoiceID string) (string, error)

	// SendInvoice emails the public link to the client. The status only
	// changes after the provider accepted the message.
	SendInvoice(ctx context.Context, ownerID, invoiceID string) (string, error)
}

type deliveryService struct {
	invoices InvoiceService
	mailer   Mailer
	renderer EmailRenderer
	baseURL  string
	log      zerolog.Logger
}

// NewDeliveryService constructs a DeliveryService. mailer may be nil when no
// provider is configured; sending then fails with ErrDownstreamFailure.
func NewDeliveryService(invoices InvoiceService, mailer Mailer, renderer EmailRenderer, baseURL string) DeliveryService {
	return &deliveryService{
		invoices: invoices,
		mailer:   mailer,
		renderer: renderer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		log:      logger.WithComponent("delivery"),
	}
}

// PrintPath is the relative print URL for a public token.
func PrintPath(token string) string {
	return "/i/" + token + "?print=true"
}

func (s *deliveryService) PreparePDF(ctx context.Context, ownerID, invoiceID string) (string, error) {
	agg, err := s.invoices.GetInvoice(ctx, ownerID, invoiceID)
	if err != nil {
		return "", err
	}

	pdfURL := PrintPath(agg.Invoice.PublicToken)
	if _, err := s.invoices.MarkPrinted(ctx, ownerID, invoiceID, pdfURL); err != nil {
		return "", err
	}
	return pdfURL, nil
}

func (s *deliveryService) SendInvoice(ctx context.Context, ownerID, invoiceID string) (string, error) {
	agg, err := s.invoices.GetInvoice(ctx, ownerID, invoiceID)
	if err != nil {
		return "", err
	}
	inv := agg.Invoice

	if agg.Client == nil || agg.Client.Email == nil || strings.TrimSpace(*agg.Client.Email) == "" {
		return "", invalidf("client", "client has no email address")
	}
	if !inv.Status.Sendable() {
		return "", &TransitionError{From: inv.Status, To: StatusSent, Action: "send"}
	}
	if s.mailer == nil {
		return "", fmt.Errorf("%w: email delivery is not configured", ErrDownstreamFailure)
	}

	subject, body, err := s.renderer.InvoiceEmail(agg, s.baseURL+"/i/"+inv.PublicToken)
	if err != nil {
		return "", fmt.Errorf("%w: render invoice email: %v", ErrDownstreamFailure, err)
	}

	emailID, err := s.mailer.Send(ctx, *agg.Client.Email, subject, body)
	metrics.EmailSent(err == nil)
	if err != nil {
		s.log.Error().Err(err).Str("invoice_id", invoiceID).Msg("invoice email failed")
		if errors.Is(err, ErrDownstreamFailure) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrDownstreamFailure, err)
	}

	// The provider already accepted the email; a failed status write is only logged.
	if _, err := s.invoices.MarkSent(ctx, ownerID, invoiceID); err != nil {
		s.log.Error().Err(err).Str("invoice_id", invoiceID).Str("email_id", emailID).
			Msg("invoice emailed but status update failed")
	}

	s.log.Info().Str("invoice_id", invoiceID).Str("email_id", emailID).Msg("invoice emailed")
	return emailID, nil
}
