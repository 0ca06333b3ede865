package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/laguz/internal/bookservice"
)

// NewRouter creates a chi router with all API routes mounted. The Principal
// middleware resolves the session token on every request; RequireUser gates
// everything except the auth endpoints, mirroring the login-required
// middleware the app grew up with. sseHandler, if non-nil, is mounted at
// GET /events inside the gated group.
func NewRouter(svc *bookservice.Service, secret []byte, tokenTTL time.Duration, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	ah := NewAuthHandler(svc, secret, tokenTTL)

	r := chi.NewRouter()
	r.Use(Principal(secret))
	r.Use(RequireUser("/auth/"))

	// Accounts and sessions (exempt from the login gate).
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)
	r.Post("/auth/logout", ah.Logout)

	// Log books CRUD.
	r.Get("/books", h.ListBooks)
	r.Post("/books", h.CreateBook)
	r.Get("/books/{slug}", h.GetBook)
	r.Put("/books/{slug}", h.UpdateBook)
	r.Delete("/books/{slug}", h.DeleteBook)

	// Entries, nested under their parent book.
	r.Post("/books/{slug}/entries", h.CreateEntry)
	r.Get("/books/{slug}/entries/{id}", h.GetEntry)
	r.Put("/books/{slug}/entries/{id}", h.UpdateEntry)
	r.Delete("/books/{slug}/entries/{id}", h.DeleteEntry)

	// SSE endpoint (behind the same gate).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
