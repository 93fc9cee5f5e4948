package web

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"invoicing/internal/app"
)

type invoiceItemBody struct {
	Description string          `json:"description"`
	Qty         decimal.Decimal `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// invoiceBody is the create/update payload. Numbers may be sent as JSON
// numbers or strings. total is accepted for compatibility and ignored.
type invoiceBody struct {
	ClientID  string            `json:"client_id"`
	IssueDate string            `json:"issue_date"`
	DueDate   string            `json:"due_date"`
	Currency  string            `json:"currency"`
	Tax       decimal.Decimal   `json:"tax"`
	Notes     string            `json:"notes"`
	Items     []invoiceItemBody `json:"items"`
	Total     *decimal.Decimal  `json:"total"`
}

func (b invoiceBody) request() app.InvoiceRequest {
	req := app.InvoiceRequest{
		ClientID:  b.ClientID,
		IssueDate: b.IssueDate,
		DueDate:   b.DueDate,
		Currency:  b.Currency,
		Tax:       b.Tax,
		Notes:     b.Notes,
		Items:     make([]app.InvoiceItemRequest, len(b.Items)),
		Total:     b.Total,
	}
	for i, it := range b.Items {
		req.Items[i] = app.InvoiceItemRequest{Description: it.Description, Qty: it.Qty, UnitPrice: it.UnitPrice}
	}
	return req
}

// listInvoices handles GET /api/invoices?status=&client=&limit=.
func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := app.ListInvoicesRequest{
		Status:   q.Get("status"),
		ClientID: q.Get("client"),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, "limit must be a non-negative integer", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		req.Limit = n
	}

	result, err := h.svc.ListInvoices(r.Context(), ownerFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"invoices": result.Invoices})
}

// createInvoice handles POST /api/invoices.
func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var body invoiceBody
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.CreateInvoice(r.Context(), ownerFromContext(r.Context()), body.request())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	inv := result.Aggregate.Invoice
	writeJSONStatus(w, http.StatusCreated, map[string]any{
		"id":             inv.ID,
		"invoice_number": inv.InvoiceNumber,
		"total":          inv.Total,
	})
}

// getInvoice handles GET /api/invoices/{id}.
func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetInvoice(r.Context(), ownerFromContext(r.Context()), urlID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Aggregate)
}

// updateInvoice handles PUT /api/invoices/{id}.
func (h *Handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	var body invoiceBody
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.svc.UpdateInvoice(r.Context(), ownerFromContext(r.Context()), urlID(r), body.request())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	inv := result.Aggregate.Invoice
	writeJSON(w, map[string]any{"id": inv.ID, "total": inv.Total})
}

// changeStatus handles POST /api/invoices/{id}/status.
func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status  string `json:"status"`
		Confirm bool   `json:"confirm"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	inv, err := h.svc.ChangeInvoiceStatus(r.Context(), ownerFromContext(r.Context()), urlID(r),
		app.StatusChangeRequest{Status: body.Status, Confirm: body.Confirm})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"id": inv.ID, "status": inv.Status})
}
