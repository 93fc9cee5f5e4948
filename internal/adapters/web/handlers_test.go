package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing/internal/app"
	"invoicing/internal/auth"
	"invoicing/internal/core"
)

const testSecret = "test-secret"

// fakeApp implements the ApplicationService methods the handlers under test
// call. Anything else panics through the nil embedded interface.
type fakeApp struct {
	app.ApplicationService

	healthErr    error
	createReq    app.InvoiceRequest
	createOwner  string
	createErr    error
	statusReq    app.StatusChangeRequest
	statusErr    error
	listReq      app.ListInvoicesRequest
	pdfErr       error
	sendErr      error
	public       *core.PublicInvoice
	publicErr    error
	publicTokens []string
}

func (f *fakeApp) Health(context.Context) error { return f.healthErr }

func (f *fakeApp) CreateInvoice(_ context.Context, owner string, req app.InvoiceRequest) (*app.InvoiceResult, error) {
	f.createOwner, f.createReq = owner, req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &app.InvoiceResult{Aggregate: &core.InvoiceAggregate{Invoice: core.Invoice{
		ID:            "inv-1",
		InvoiceNumber: "2025-000001",
		Total:         decimal.RequireFromString("125.00"),
	}}}, nil
}

func (f *fakeApp) ListInvoices(_ context.Context, _ string, req app.ListInvoicesRequest) (*app.InvoiceListResult, error) {
	f.listReq = req
	return &app.InvoiceListResult{Invoices: []core.InvoiceSummary{}}, nil
}

func (f *fakeApp) ChangeInvoiceStatus(_ context.Context, _, id string, req app.StatusChangeRequest) (*core.Invoice, error) {
	f.statusReq = req
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &core.Invoice{ID: id, Status: core.InvoiceStatus(req.Status)}, nil
}

func (f *fakeApp) PrepareInvoicePDF(_ context.Context, _, _ string) (*app.PDFResult, error) {
	if f.pdfErr != nil {
		return nil, f.pdfErr
	}
	return &app.PDFResult{PDFURL: "/i/tok?print=true"}, nil
}

func (f *fakeApp) SendInvoice(_ context.Context, _, _ string) (*app.SendResult, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &app.SendResult{EmailID: "email-1"}, nil
}

func (f *fakeApp) ResolvePublicInvoice(_ context.Context, token string) (*core.PublicInvoice, error) {
	f.publicTokens = append(f.publicTokens, token)
	if f.publicErr != nil {
		return nil, f.publicErr
	}
	return f.public, nil
}

type fakePages struct {
	print bool
}

func (p *fakePages) PublicInvoice(w io.Writer, pub *core.PublicInvoice, print bool) error {
	p.print = print
	_, err := fmt.Fprintf(w, "<html>%s</html>", pub.InvoiceNumber)
	return err
}

func newTestHandler(t *testing.T, svc *fakeApp, opts Options) (http.Handler, *fakePages) {
	t.Helper()
	opts.JWTSecret = testSecret
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	opts.Context = ctx
	pages := &fakePages{}
	return NewHandler(svc, pages, opts), pages
}

func authedRequest(t *testing.T, method, path, body, owner string) *http.Request {
	t.Helper()
	tok, err := auth.Issue(testSecret, owner, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t, &fakeApp{}, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	h, _ = newTestHandler(t, &fakeApp{healthErr: errors.New("down")}, Options{})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	h, _ := newTestHandler(t, &fakeApp{}, Options{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/invoices", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthCookie(t *testing.T) {
	svc := &fakeApp{}
	h, _ := newTestHandler(t, svc, Options{})

	tok, err := auth.Issue(testSecret, uuid.NewString(), time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/invoices?status=sent&client=c1&limit=3", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: tok})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, app.ListInvoicesRequest{Status: "sent", ClientID: "c1", Limit: 3}, svc.listReq)
}

func TestCreateInvoice(t *testing.T) {
	svc := &fakeApp{}
	h, _ := newTestHandler(t, svc, Options{})
	owner := uuid.NewString()

	body := `{"client_id":"c1","currency":"USD","tax":"5",
		"items":[{"description":"Design","qty":2,"unit_price":"50"},{"description":"Hosting","qty":1,"unit_price":20}],
		"total":999}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/invoices", body, owner))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "inv-1", resp["id"])
	assert.Equal(t, "2025-000001", resp["invoice_number"])

	assert.Equal(t, owner, svc.createOwner)
	require.Len(t, svc.createReq.Items, 2)
	assert.True(t, svc.createReq.Items[0].UnitPrice.Equal(decimal.NewFromInt(50)))
	assert.True(t, svc.createReq.Tax.Equal(decimal.NewFromInt(5)))
	require.NotNil(t, svc.createReq.Total)
}

func TestCreateInvoice_BadJSON(t *testing.T) {
	h, _ := newTestHandler(t, &fakeApp{}, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/invoices", `{"items":`, uuid.NewString()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateInvoice_BodyTooLarge(t *testing.T) {
	h, _ := newTestHandler(t, &fakeApp{}, Options{})
	body := `{"notes":"` + strings.Repeat("x", 2<<20) + `"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/invoices", body, uuid.NewString()))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestServiceErrorMapping(t *testing.T) {
	tests := map[string]struct {
		err    error
		status int
		code   string
	}{
		"invalid":      {&core.ValidationError{Field: "items", Message: "at least one item is required"}, http.StatusBadRequest, "BAD_REQUEST"},
		"unauthorized": {core.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		"not found":    {core.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		"transition":   {&core.TransitionError{From: core.StatusPaid, Action: "edit"}, http.StatusConflict, "CONFLICT"},
		"allocation":   {fmt.Errorf("%w: boom", core.ErrAllocationFailure), http.StatusInternalServerError, "ALLOCATION_FAILED"},
		"downstream":   {fmt.Errorf("%w: 503", core.ErrDownstreamFailure), http.StatusBadGateway, "DOWNSTREAM_FAILURE"},
		"timeout":      {context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT"},
		"other":        {errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			h, _ := newTestHandler(t, &fakeApp{createErr: tt.err}, Options{})
			rec := httptest.NewRecorder()
			req := authedRequest(t, http.MethodPost, "/api/invoices", `{"items":[]}`, uuid.NewString())
			req.Header.Set("X-Request-ID", "req-123")
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, "req-123", resp.RequestID)
			if tt.code == "INTERNAL_ERROR" {
				assert.NotContains(t, resp.Error, "connection reset")
			}
		})
	}
}

func TestServiceError_LogsInternalFailures(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	h, _ := newTestHandler(t, &fakeApp{pdfErr: errors.New("connection reset")}, Options{})
	req := authedRequest(t, http.MethodPost, "/api/pdf", `{"invoiceId":"inv-1"}`, uuid.NewString())
	req.Header.Set("X-Request-ID", "req-500")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	out := buf.String()
	assert.Contains(t, out, `"message":"request failed"`)
	assert.Contains(t, out, `"request_id":"req-500"`)
	assert.Contains(t, out, `"route":"/api/pdf"`)
	assert.Contains(t, out, "connection reset")
}

func TestChangeStatus(t *testing.T) {
	svc := &fakeApp{}
	h, _ := newTestHandler(t, svc, Options{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/invoices/inv-9/status",
		`{"status":"void","confirm":true}`, uuid.NewString()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, app.StatusChangeRequest{Status: "void", Confirm: true}, svc.statusReq)
	assert.JSONEq(t, `{"id":"inv-9","status":"void"}`, rec.Body.String())
}

func TestDocuments(t *testing.T) {
	h, _ := newTestHandler(t, &fakeApp{}, Options{})
	owner := uuid.NewString()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/pdf", `{"invoiceId":"inv-1"}`, owner))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"pdfUrl":"/i/tok?print=true"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/send", `{"invoiceId":"inv-1"}`, owner))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"emailId":"email-1"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/send", `{}`, owner))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSend_ProviderFailure(t *testing.T) {
	h, _ := newTestHandler(t, &fakeApp{sendErr: fmt.Errorf("%w: provider returned 500", core.ErrDownstreamFailure)}, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/send", `{"invoiceId":"inv-1"}`, uuid.NewString()))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestPublicInvoice(t *testing.T) {
	svc := &fakeApp{public: &core.PublicInvoice{InvoiceNumber: "2025-000007", Items: []core.PublicItem{}}}
	h, pages := newTestHandler(t, svc, Options{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/i/abc?print=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "2025-000007")
	assert.True(t, pages.print)
	assert.Equal(t, []string{"abc"}, svc.publicTokens)

	req := httptest.NewRequest(http.MethodGet, "/i/abc", nil)
	req.Header.Set("Accept", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var pub core.PublicInvoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pub))
	assert.Equal(t, "2025-000007", pub.InvoiceNumber)
}

func TestPublicInvoice_NotFound(t *testing.T) {
	h, _ := newTestHandler(t, &fakeApp{publicErr: core.ErrNotFound}, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/i/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicInvoice_RateLimited(t *testing.T) {
	svc := &fakeApp{publicErr: core.ErrNotFound}
	h, _ := newTestHandler(t, svc, Options{PublicRateLimit: 0.001, PublicRateBurst: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/i/guess", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNotFound, http.StatusNotFound, http.StatusTooManyRequests}, codes)
	assert.Len(t, svc.publicTokens, 2)

	// A different IP has its own budget.
	req := httptest.NewRequest(http.MethodGet, "/i/guess", nil)
	req.RemoteAddr = "198.51.100.1:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimiterPurge(t *testing.T) {
	rl := newRateLimiter(1, 1)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.allow("a")
	now = now.Add(limiterIdleTTL + time.Second)
	rl.allow("b")
	rl.purge()

	assert.NotContains(t, rl.limiters, "a")
	assert.Contains(t, rl.limiters, "b")
}

func TestRateLimiterPurgeStopsWithContext(t *testing.T) {
	rl := newRateLimiter(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := rl.startPurge(ctx)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("purge goroutine still running after cancel")
	}
}

func TestCORS(t *testing.T) {
	h, _ := newTestHandler(t, &fakeApp{}, Options{AllowedOrigins: "https://app.example.com"})

	req := httptest.NewRequest(http.MethodOptions, "/api/invoices", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoverer(t *testing.T) {
	h := RequestID(Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rec).Code)
}

func TestRequestID_RejectsUnsafeValues(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(requestIDFromContext(r.Context())))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Body.String())

	req.Header.Set("X-Request-ID", "<script>")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	_, err := uuid.Parse(rec.Body.String())
	assert.NoError(t, err)
}
