package web

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// publicInvoice handles GET /i/{token}. Browsers get the printable page;
// clients asking for application/json get the projection itself.
func (h *Handler) publicInvoice(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("X-Robots-Tag", "noindex, nofollow")

	pub, err := h.svc.ResolvePublicInvoice(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, pub)
		return
	}

	var buf bytes.Buffer
	if err := h.pages.PublicInvoice(&buf, pub, r.URL.Query().Get("print") == "true"); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
