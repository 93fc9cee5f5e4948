package web

import (
	"net/http"

	"invoicing/internal/app"
)

type clientBody struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	TaxID   string `json:"tax_id"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

func (b clientBody) request() app.ClientRequest {
	return app.ClientRequest{
		Name:    b.Name,
		Email:   b.Email,
		Company: b.Company,
		TaxID:   b.TaxID,
		Address: b.Address,
		Notes:   b.Notes,
	}
}

// listClients handles GET /api/clients.
func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListClients(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"clients": result.Clients})
}

// createClient handles POST /api/clients.
func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var body clientBody
	if !decodeJSON(w, r, &body) {
		return
	}

	client, err := h.svc.CreateClient(r.Context(), ownerFromContext(r.Context()), body.request())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, client)
}

// getClient handles GET /api/clients/{id}.
func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.svc.GetClient(r.Context(), ownerFromContext(r.Context()), urlID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, client)
}

// updateClient handles PUT /api/clients/{id}.
func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	var body clientBody
	if !decodeJSON(w, r, &body) {
		return
	}

	client, err := h.svc.UpdateClient(r.Context(), ownerFromContext(r.Context()), urlID(r), body.request())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, client)
}

// deleteClient handles DELETE /api/clients/{id}.
func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteClient(r.Context(), ownerFromContext(r.Context()), urlID(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
