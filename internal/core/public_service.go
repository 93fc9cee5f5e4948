package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PublicResolver serves the unauthenticated share link. Anyone holding the
// token can read the projection; nothing else is reachable through it.
type PublicResolver interface {
	// ResolvePublic returns the public projection for token. Unknown and
	// malformed tokens both yield ErrNotFound.
	ResolvePublic(ctx context.Context, token string) (*PublicInvoice, error)
}

type publicResolver struct {
	pool      *pgxpool.Pool
	showNotes bool
}

// NewPublicResolver constructs a PublicResolver. showNotes controls whether
// invoice notes are part of the projection; client notes never are.
func NewPublicResolver(pool *pgxpool.Pool, showNotes bool) PublicResolver {
	return &publicResolver{pool: pool, showNotes: showNotes}
}

func (r *publicResolver) ResolvePublic(ctx context.Context, token string) (*PublicInvoice, error) {
	if !ValidPublicTokenShape(token) {
		return nil, ErrNotFound
	}

	inv, err := scanInvoice(r.pool.QueryRow(ctx,
		"SELECT "+invoiceColumns+" FROM invoices i WHERE i.public_token = $1",
		token,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to resolve public invoice: %w", err)
	}

	agg, err := loadAggregate(ctx, r.pool, inv)
	if err != nil {
		return nil, err
	}
	return ProjectPublic(agg, r.showNotes), nil
}

// ProjectPublic strips an aggregate down to the fields a link holder may see.
func ProjectPublic(agg *InvoiceAggregate, showNotes bool) *PublicInvoice {
	inv := agg.Invoice
	pub := &PublicInvoice{
		InvoiceNumber: inv.InvoiceNumber,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		Currency:      inv.Currency,
		Status:        inv.Status,
		Subtotal:      inv.Subtotal,
		Tax:           inv.Tax,
		Total:         inv.Total,
		Items:         make([]PublicItem, 0, len(agg.Items)),
	}
	if showNotes {
		pub.Notes = inv.Notes
	}
	if c := agg.Client; c != nil {
		pub.Client = &PublicClient{
			Name:    c.Name,
			Company: c.Company,
			TaxID:   c.TaxID,
			Email:   c.Email,
			Address: c.Address,
		}
	}
	for _, it := range agg.Items {
		pub.Items = append(pub.Items, PublicItem{
			Description: it.Description,
			Qty:         it.Qty,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		})
	}
	return pub
}
