package web

import (
	"context"
	"net/http"
	"strings"

	"invoicing/internal/auth"
)

type ownerKey struct{}

// ownerFromContext returns the authenticated owner id, or empty string.
func ownerFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ownerKey{}).(string)
	return v
}

// bearerToken returns the token from the Authorization header, falling back
// to the auth_token cookie set by the browser session.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAuth is chi middleware that validates the session token and injects
// the owner id into the request context. Returns 401 if the token is absent or invalid.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		ownerID, err := auth.Parse(h.jwtSecret, raw)
		if err != nil {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ownerKey{}, ownerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// me handles GET /api/auth/me and echoes the resolved owner.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"owner_id": ownerFromContext(r.Context())})
}
