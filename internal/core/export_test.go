package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// SetAfterItemsDeleted installs a hook that runs between the item delete and
// the item insert of UpdateInvoice.
func SetAfterItemsDeleted(s InvoiceService, fn func(ctx context.Context, tx pgx.Tx) error) {
	s.(*invoiceService).afterItemsDeleted = fn
}

// SetTokenSource replaces the public token generator used by CreateInvoice.
func SetTokenSource(s InvoiceService, fn func() (string, error)) {
	s.(*invoiceService).newToken = fn
}

// SetClock replaces the service clock used for issue dates and numbering years.
func SetClock(s InvoiceService, now func() time.Time) {
	s.(*invoiceService).now = now
}
