package web

import (
	"net/http"
	"strings"
)

type documentBody struct {
	InvoiceID string `json:"invoiceId"`
}

func (h *Handler) decodeDocumentBody(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body documentBody
	if !decodeJSON(w, r, &body) {
		return "", false
	}
	id := strings.TrimSpace(body.InvoiceID)
	if id == "" {
		writeError(w, r, "invoiceId is required", "BAD_REQUEST", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

// preparePDF handles POST /api/pdf.
func (h *Handler) preparePDF(w http.ResponseWriter, r *http.Request) {
	id, ok := h.decodeDocumentBody(w, r)
	if !ok {
		return
	}

	result, err := h.svc.PrepareInvoicePDF(r.Context(), ownerFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"pdfUrl": result.PDFURL})
}

// sendInvoice handles POST /api/send.
func (h *Handler) sendInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.decodeDocumentBody(w, r)
	if !ok {
		return
	}

	result, err := h.svc.SendInvoice(r.Context(), ownerFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"emailId": result.EmailID})
}
