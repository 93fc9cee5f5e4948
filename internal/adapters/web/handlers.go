package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"invoicing/internal/app"
	"invoicing/internal/core"
	"invoicing/internal/metrics"
)

// PageRenderer writes the printable HTML view of a shared invoice.
type PageRenderer interface {
	PublicInvoice(w io.Writer, pub *core.PublicInvoice, print bool) error
}

// Options configures NewHandler.
type Options struct {
	AllowedOrigins string
	JWTSecret      string
	RequestTimeout time.Duration

	// PublicRateLimit and PublicRateBurst bound /i/{token} per client IP.
	PublicRateLimit float64
	PublicRateBurst int

	// Context bounds background maintenance such as limiter purging.
	// Defaults to context.Background().
	Context context.Context
}

// Handler holds the ApplicationService, the page renderer and the chi router.
type Handler struct {
	svc       app.ApplicationService
	pages     PageRenderer
	router    chi.Router
	jwtSecret string
	limiter   *rateLimiter
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, pages PageRenderer, opts Options) http.Handler {
	if opts.PublicRateLimit <= 0 {
		opts.PublicRateLimit = 2
	}
	if opts.PublicRateBurst <= 0 {
		opts.PublicRateBurst = 10
	}

	h := &Handler{
		svc:       svc,
		pages:     pages,
		jwtSecret: opts.JWTSecret,
		limiter:   newRateLimiter(opts.PublicRateLimit, opts.PublicRateBurst),
	}

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	h.limiter.startPurge(ctx)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(opts.AllowedOrigins))

	// ── Health and metrics (public) ───────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// ── Share links (public, rate limited) ───────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.limiter.Handler)
		r.Use(Timeout(opts.RequestTimeout))
		r.Get("/i/{token}", h.publicInvoice)
	})

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB
		r.Use(Timeout(opts.RequestTimeout))

		r.Get("/api/auth/me", h.me)

		// Clients
		r.Get("/api/clients", h.listClients)
		r.Post("/api/clients", h.createClient)
		r.Get("/api/clients/{id}", h.getClient)
		r.Put("/api/clients/{id}", h.updateClient)
		r.Delete("/api/clients/{id}", h.deleteClient)

		// Invoices
		r.Get("/api/invoices", h.listInvoices)
		r.Post("/api/invoices", h.createInvoice)
		r.Get("/api/invoices/{id}", h.getInvoice)
		r.Put("/api/invoices/{id}", h.updateInvoice)
		r.Post("/api/invoices/{id}/status", h.changeStatus)

		// Documents
		r.Post("/api/pdf", h.preparePDF)
		r.Post("/api/send", h.sendInvoice)

		// Reporting
		r.Get("/api/dashboard", h.dashboard)
	})

	h.router = r
	return r
}

// health reports service status and database reachability.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}

	if err := h.svc.Health(r.Context()); err != nil {
		logServiceError(r, err)
		writeJSONStatus(w, http.StatusServiceUnavailable, response{Status: "degraded", Database: "unreachable"})
		return
	}
	writeJSON(w, response{Status: "ok", Database: "ok"})
}

// urlID extracts the {id} URL parameter.
func urlID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
