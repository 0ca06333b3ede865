// Package api implements the Laguz REST API using chi.
package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/laguz/internal/auth"
)

// SessionCookie is the cookie carrying the session token for browser
// clients. API clients may send the same token as a Bearer header instead.
const SessionCookie = "laguz_session"

// LoginPath is where unauthenticated requests are pointed.
const LoginPath = "/api/auth/login"

// Principal returns middleware that resolves the session token (Bearer
// header or session cookie) into a user id on the request context. An
// absent or invalid token leaves the request anonymous; gating is the
// RequireUser middleware's job.
func Principal(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if c, err := r.Cookie(SessionCookie); err == nil {
					token = c.Value
				}
			}
			if token != "" {
				if userID, err := auth.ParseToken(secret, token); err == nil {
					r = r.WithContext(auth.WithUserID(r.Context(), userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser returns middleware that forces a login for every path not on
// the exemption list. Browser-ish clients (Accept: text/html) are
// redirected to the login path; everyone else gets a 401 naming it.
func RequireUser(exemptPrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := auth.UserID(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}

			p := routePath(r)
			for _, prefix := range exemptPrefixes {
				if strings.HasPrefix(p, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			if acceptsHTML(r) {
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "unauthorized",
				"login": LoginPath,
			})
		})
	}
}

// routePath is the path relative to this router: the remainder left by a
// parent Mount when there is one, the raw URL path otherwise.
func routePath(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePath != "" {
		return rctx.RoutePath
	}
	return r.URL.Path
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func acceptsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
