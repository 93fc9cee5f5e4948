package core

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"invoicing/internal/logger"
	"invoicing/internal/metrics"
)

// maxTxAttempts bounds how often a transaction is re-run after a
// serialization failure or deadlock.
const maxTxAttempts = 3

const dateLayout = "2006-01-02"

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// errTokenCollision marks a create transaction that lost the public token
// unique check. The transaction is re-run with a freshly minted token.
var errTokenCollision = errors.New("public token collision")

// InvoiceService owns every write to invoices and invoice_items.
// Header and items are always persisted together in one transaction.
type InvoiceService interface {
	// CreateInvoice allocates the next number, mints the public token and
	// inserts header plus items atomically. The invoice starts in draft.
	CreateInvoice(ctx context.Context, ownerID string, in InvoiceInput) (*InvoiceAggregate, error)

	// UpdateInvoice replaces header fields and the full item set of a draft or
	// sent invoice. Number, token and status are never touched.
	UpdateInvoice(ctx context.Context, ownerID, invoiceID string, in InvoiceInput) (*InvoiceAggregate, error)

	// ChangeStatus applies one state machine step. sent → sent is accepted
	// and leaves the row unchanged.
	ChangeStatus(ctx context.Context, ownerID, invoiceID string, to InvoiceStatus) (*Invoice, error)

	// MarkPrinted records the print URL and moves a draft to sent.
	// A void invoice is rejected.
	MarkPrinted(ctx context.Context, ownerID, invoiceID, pdfURL string) (*Invoice, error)

	// MarkSent moves a draft to sent after a successful delivery. Any other
	// status is left as is.
	MarkSent(ctx context.Context, ownerID, invoiceID string) (*Invoice, error)

	GetInvoice(ctx context.Context, ownerID, invoiceID string) (*InvoiceAggregate, error)
	ListInvoices(ctx context.Context, ownerID string, f InvoiceFilter) ([]InvoiceSummary, error)
}

type invoiceService struct {
	pool      *pgxpool.Pool
	allocator NumberAllocator
	log       zerolog.Logger
	now       func() time.Time
	newToken  func() (string, error)

	// afterItemsDeleted runs inside the update transaction between the item
	// delete and the item insert. Tests use it to inject a failure.
	afterItemsDeleted func(ctx context.Context, tx pgx.Tx) error
}

// NewInvoiceService constructs an InvoiceService.
func NewInvoiceService(pool *pgxpool.Pool, allocator NumberAllocator) InvoiceService {
	return &invoiceService{
		pool:      pool,
		allocator: allocator,
		log:       logger.WithComponent("invoices"),
		now:       time.Now,
		newToken:  NewPublicToken,
	}
}

const invoiceColumns = `i.id::text, i.owner_id::text, i.invoice_number, i.client_id::text,
	i.issue_date::text, i.due_date::text, i.currency, i.status,
	i.subtotal, i.tax, i.total, i.notes, i.pdf_url, i.public_token,
	i.created_at, i.updated_at, i.sent_at, i.paid_at, i.voided_at`

func scanInvoice(row pgx.Row, extra ...any) (*Invoice, error) {
	var inv Invoice
	dest := []any{
		&inv.ID, &inv.OwnerID, &inv.InvoiceNumber, &inv.ClientID,
		&inv.IssueDate, &inv.DueDate, &inv.Currency, &inv.Status,
		&inv.Subtotal, &inv.Tax, &inv.Total, &inv.Notes, &inv.PDFURL, &inv.PublicToken,
		&inv.CreatedAt, &inv.UpdatedAt, &inv.SentAt, &inv.PaidAt, &inv.VoidedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &inv, nil
}

// preparedInvoice is a validated input with its computed totals.
type preparedInvoice struct {
	clientID  *string
	issueDate string
	dueDate   *string
	currency  string
	notes     *string
	items     []ItemInput
	totals    Totals
}

// prepare validates the input and runs the calculator. Nothing is written
// when it fails.
func (s *invoiceService) prepare(in InvoiceInput) (*preparedInvoice, error) {
	p := &preparedInvoice{notes: nullIfBlank(in.Notes)}

	if id := strings.TrimSpace(in.ClientID); id != "" {
		if !validID(id) {
			return nil, invalidf("client_id", "%q is not a valid id", id)
		}
		p.clientID = &id
	}

	issue := strings.TrimSpace(in.IssueDate)
	if issue == "" {
		issue = s.now().UTC().Format(dateLayout)
	}
	issued, err := time.Parse(dateLayout, issue)
	if err != nil {
		return nil, invalidf("issue_date", "%q is not a YYYY-MM-DD date", in.IssueDate)
	}
	p.issueDate = issue

	if due := strings.TrimSpace(in.DueDate); due != "" {
		dueAt, err := time.Parse(dateLayout, due)
		if err != nil {
			return nil, invalidf("due_date", "%q is not a YYYY-MM-DD date", in.DueDate)
		}
		if dueAt.Before(issued) {
			return nil, invalidf("due_date", "must not be before issue_date")
		}
		p.dueDate = &due
	}

	p.currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if p.currency == "" {
		p.currency = DefaultCurrency
	}
	if !currencyPattern.MatchString(p.currency) {
		return nil, invalidf("currency", "%q is not an ISO-4217 code", in.Currency)
	}

	p.items = normalizeItems(in.Items)
	if len(p.items) == 0 {
		return nil, invalidf("items", "at least one item with a description is required")
	}

	p.totals, err = ComputeTotals(p.currency, p.items, in.Tax)
	if err != nil {
		return nil, err
	}

	if in.SubmittedTotal != nil && !in.SubmittedTotal.Round(MinorUnitPlaces(p.currency)).Equal(p.totals.Total) {
		s.log.Debug().
			Str("submitted", in.SubmittedTotal.String()).
			Str("computed", p.totals.Total.String()).
			Msg("submitted total differs from computed total; using computed")
	}
	return p, nil
}

func (s *invoiceService) CreateInvoice(ctx context.Context, ownerID string, in InvoiceInput) (*InvoiceAggregate, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	p, err := s.prepare(in)
	if err != nil {
		return nil, err
	}

	var invoiceID, number string
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := checkClientTx(ctx, tx, ownerID, p.clientID); err != nil {
			return err
		}

		token, err := s.newToken()
		if err != nil {
			return err
		}

		number, err = s.allocator.NextNumberTx(ctx, tx, s.now().UTC().Year())
		if err != nil {
			metrics.AllocationFailed()
			return err
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO invoices (owner_id, invoice_number, client_id, issue_date, due_date,
			                      currency, status, subtotal, tax, total, notes, public_token)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id::text`,
			ownerID, number, p.clientID, p.issueDate, p.dueDate,
			p.currency, string(StatusDraft), p.totals.Subtotal, p.totals.Tax, p.totals.Total, p.notes, token,
		).Scan(&invoiceID)
		switch {
		case isUniqueViolation(err, "invoices_public_token_key"):
			return fmt.Errorf("%w: %w", errTokenCollision, err)
		case isUniqueViolation(err, "invoices_invoice_number_key"):
			metrics.AllocationFailed()
			return fmt.Errorf("%w: %s already issued: %w", ErrAllocationFailure, number, err)
		case err != nil:
			return fmt.Errorf("failed to insert invoice header: %w", err)
		}

		return insertItemsTx(ctx, tx, invoiceID, p.items, p.totals.Lines)
	})
	if err != nil {
		return nil, err
	}

	metrics.InvoiceCreated()
	s.log.Info().Str("invoice_id", invoiceID).Str("invoice_number", number).Msg("invoice created")
	return s.GetInvoice(ctx, ownerID, invoiceID)
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, ownerID, invoiceID string, in InvoiceInput) (*InvoiceAggregate, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if !validID(invoiceID) {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, ErrNotFound)
	}
	p, err := s.prepare(in)
	if err != nil {
		return nil, err
	}

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		status, err := lockInvoiceTx(ctx, tx, ownerID, invoiceID)
		if err != nil {
			return err
		}
		if !status.Editable() {
			return &TransitionError{From: status, To: status, Action: "edit"}
		}
		if err := checkClientTx(ctx, tx, ownerID, p.clientID); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE invoices
			SET client_id = $2, issue_date = $3, due_date = $4, currency = $5,
			    subtotal = $6, tax = $7, total = $8, notes = $9, updated_at = now()
			WHERE id = $1`,
			invoiceID, p.clientID, p.issueDate, p.dueDate, p.currency,
			p.totals.Subtotal, p.totals.Tax, p.totals.Total, p.notes,
		)
		if err != nil {
			return fmt.Errorf("failed to update invoice header: %w", err)
		}

		if _, err := tx.Exec(ctx, "DELETE FROM invoice_items WHERE invoice_id = $1", invoiceID); err != nil {
			return fmt.Errorf("failed to delete invoice items: %w", err)
		}
		if s.afterItemsDeleted != nil {
			if err := s.afterItemsDeleted(ctx, tx); err != nil {
				return err
			}
		}
		return insertItemsTx(ctx, tx, invoiceID, p.items, p.totals.Lines)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("invoice_id", invoiceID).Int("items", len(p.items)).Msg("invoice updated")
	return s.GetInvoice(ctx, ownerID, invoiceID)
}

func (s *invoiceService) ChangeStatus(ctx context.Context, ownerID, invoiceID string, to InvoiceStatus) (*Invoice, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if !validID(invoiceID) {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, ErrNotFound)
	}
	if _, err := ParseStatus(string(to)); err != nil {
		return nil, err
	}

	var from InvoiceStatus
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		from, err = lockInvoiceTx(ctx, tx, ownerID, invoiceID)
		if err != nil {
			return err
		}
		if err := Transition(from, to); err != nil {
			return err
		}
		if from == to {
			return nil
		}
		return setStatusTx(ctx, tx, invoiceID, to)
	})
	if err != nil {
		return nil, err
	}

	if from != to {
		metrics.StatusChanged(string(to))
		s.log.Info().Str("invoice_id", invoiceID).Str("from", string(from)).Str("to", string(to)).Msg("invoice status changed")
	}
	return getInvoiceQ(ctx, s.pool, ownerID, invoiceID)
}

func (s *invoiceService) MarkPrinted(ctx context.Context, ownerID, invoiceID, pdfURL string) (*Invoice, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if !validID(invoiceID) {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, ErrNotFound)
	}

	var promoted bool
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		status, err := lockInvoiceTx(ctx, tx, ownerID, invoiceID)
		if err != nil {
			return err
		}
		if status == StatusVoid {
			return &TransitionError{From: status, To: status, Action: "print"}
		}
		if _, err := tx.Exec(ctx,
			"UPDATE invoices SET pdf_url = $2, updated_at = now() WHERE id = $1",
			invoiceID, pdfURL,
		); err != nil {
			return fmt.Errorf("failed to record pdf url: %w", err)
		}
		promoted = status == StatusDraft
		if promoted {
			return setStatusTx(ctx, tx, invoiceID, StatusSent)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if promoted {
		metrics.StatusChanged(string(StatusSent))
	}
	return getInvoiceQ(ctx, s.pool, ownerID, invoiceID)
}

func (s *invoiceService) MarkSent(ctx context.Context, ownerID, invoiceID string) (*Invoice, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if !validID(invoiceID) {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, ErrNotFound)
	}

	var promoted bool
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		status, err := lockInvoiceTx(ctx, tx, ownerID, invoiceID)
		if err != nil {
			return err
		}
		// The invoice may have been paid or voided while the email was in flight.
		if status != StatusDraft {
			return nil
		}
		promoted = true
		return setStatusTx(ctx, tx, invoiceID, StatusSent)
	})
	if err != nil {
		return nil, err
	}

	if promoted {
		metrics.StatusChanged(string(StatusSent))
	}
	return getInvoiceQ(ctx, s.pool, ownerID, invoiceID)
}

func (s *invoiceService) GetInvoice(ctx context.Context, ownerID, invoiceID string) (*InvoiceAggregate, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	inv, err := getInvoiceQ(ctx, s.pool, ownerID, invoiceID)
	if err != nil {
		return nil, err
	}
	return loadAggregate(ctx, s.pool, inv)
}

func (s *invoiceService) ListInvoices(ctx context.Context, ownerID string, f InvoiceFilter) ([]InvoiceSummary, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}

	query := "SELECT " + invoiceColumns + `, c.name
		FROM invoices i
		LEFT JOIN clients c ON c.id = i.client_id
		WHERE i.owner_id = $1`
	args := []any{ownerID}

	if f.Status != nil {
		if _, err := ParseStatus(string(*f.Status)); err != nil {
			return nil, err
		}
		args = append(args, string(*f.Status))
		query += fmt.Sprintf(" AND i.status = $%d", len(args))
	}
	if f.ClientID != "" {
		if !validID(f.ClientID) {
			return nil, invalidf("client_id", "%q is not a valid id", f.ClientID)
		}
		args = append(args, f.ClientID)
		query += fmt.Sprintf(" AND i.client_id = $%d", len(args))
	}
	query += " ORDER BY i.created_at DESC, i.invoice_number DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	list := []InvoiceSummary{}
	for rows.Next() {
		var clientName *string
		inv, err := scanInvoice(rows, &clientName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		list = append(list, InvoiceSummary{Invoice: *inv, ClientName: clientName})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}
	return list, nil
}

// inTx runs fn in a fresh transaction, re-running it from scratch when
// Postgres reports a serialization failure or deadlock, or when a minted
// public token collides with an existing one.
func (s *invoiceService) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = runTx(ctx, s.pool, fn)
		if err == nil || !(isRetryable(err) || errors.Is(err, errTokenCollision)) {
			return err
		}
		metrics.TxRetried()
		s.log.Warn().Err(err).Int("attempt", attempt).Msg("retrying invoice transaction")
	}
	return err
}

func runTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// lockInvoiceTx locks the header row and returns its current status.
// Rows owned by someone else are reported as not found.
func lockInvoiceTx(ctx context.Context, tx pgx.Tx, ownerID, invoiceID string) (InvoiceStatus, error) {
	var status InvoiceStatus
	err := tx.QueryRow(ctx,
		"SELECT status FROM invoices WHERE id = $1 AND owner_id = $2 FOR UPDATE",
		invoiceID, ownerID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("invoice %s: %w", invoiceID, ErrNotFound)
		}
		return "", fmt.Errorf("failed to lock invoice %s: %w", invoiceID, err)
	}
	return status, nil
}

// setStatusTx writes the new status and stamps the matching timestamp.
// The caller has already validated the transition under the row lock.
func setStatusTx(ctx context.Context, tx pgx.Tx, invoiceID string, to InvoiceStatus) error {
	_, err := tx.Exec(ctx, `
		UPDATE invoices
		SET status     = $2,
		    sent_at    = CASE WHEN $2 = 'sent' THEN COALESCE(sent_at, now()) ELSE sent_at END,
		    paid_at    = CASE WHEN $2 = 'paid' THEN now() ELSE paid_at END,
		    voided_at  = CASE WHEN $2 = 'void' THEN now() ELSE voided_at END,
		    updated_at = now()
		WHERE id = $1`,
		invoiceID, string(to),
	)
	if err != nil {
		return fmt.Errorf("failed to set invoice status to %s: %w", to, err)
	}
	return nil
}

// checkClientTx verifies that a referenced client exists and belongs to the owner.
func checkClientTx(ctx context.Context, tx pgx.Tx, ownerID string, clientID *string) error {
	if clientID == nil {
		return nil
	}
	if _, err := getClientQ(ctx, tx, ownerID, *clientID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return invalidf("client_id", "client %s not found", *clientID)
		}
		return err
	}
	return nil
}

// insertItemsTx writes items in submission order with sort_order = index.
func insertItemsTx(ctx context.Context, tx pgx.Tx, invoiceID string, items []ItemInput, lines []decimal.Decimal) error {
	for i, item := range items {
		_, err := tx.Exec(ctx, `
			INSERT INTO invoice_items (invoice_id, description, qty, unit_price, line_total, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			invoiceID, item.Description, item.Qty, item.UnitPrice, lines[i], i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item %d: %w", i, err)
		}
	}
	return nil
}

func getInvoiceQ(ctx context.Context, q pgxQuerier, ownerID, invoiceID string) (*Invoice, error) {
	if !validID(invoiceID) {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, ErrNotFound)
	}
	inv, err := scanInvoice(q.QueryRow(ctx,
		"SELECT "+invoiceColumns+" FROM invoices i WHERE i.id = $1 AND i.owner_id = $2",
		invoiceID, ownerID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invoice %s: %w", invoiceID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch invoice %s: %w", invoiceID, err)
	}
	return inv, nil
}

// loadAggregate attaches the client and the ordered items to inv.
func loadAggregate(ctx context.Context, q pgxQuerier, inv *Invoice) (*InvoiceAggregate, error) {
	agg := &InvoiceAggregate{Invoice: *inv}

	if inv.ClientID != nil {
		c, err := getClientQ(ctx, q, inv.OwnerID, *inv.ClientID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		agg.Client = c
	}

	items, err := getItemsQ(ctx, q, inv.ID)
	if err != nil {
		return nil, err
	}
	agg.Items = items
	return agg, nil
}

func getItemsQ(ctx context.Context, q pgxQuerier, invoiceID string) ([]InvoiceItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id::text, invoice_id::text, description, qty, unit_price, line_total, sort_order
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY sort_order`,
		invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query items for invoice %s: %w", invoiceID, err)
	}
	defer rows.Close()

	items := []InvoiceItem{}
	for rows.Next() {
		var it InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Description, &it.Qty, &it.UnitPrice, &it.LineTotal, &it.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return items, nil
}
