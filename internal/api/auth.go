package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/starford/laguz/internal/auth"
	"github.com/starford/laguz/internal/bookservice"
)

// AuthHandler holds the registration and session handlers.
type AuthHandler struct {
	svc      *bookservice.Service
	secret   []byte
	tokenTTL time.Duration
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *bookservice.Service, secret []byte, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{svc: svc, secret: secret, tokenTTL: tokenTTL}
}

// Register handles POST /api/auth/register.
//
//	@Summary		Create an account
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RegisterRequest	true	"Account to create"
//	@Success		201		{object}	models.User
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Router			/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	user, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeErr(w, err, "register failed")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /api/auth/login. On success the session token is
// returned in the body and also set as a cookie for browser clients.
//
//	@Summary		Open a session
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	SessionResponse
//	@Failure		401		{object}	errResponse
//	@Router			/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	user, err := h.svc.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeErr(w, err, "login failed")
		return
	}
	token, err := auth.GenerateToken(h.secret, user.ID, h.tokenTTL)
	if err != nil {
		writeErr(w, err, "token generation failed")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, SessionResponse{Token: token, User: user})
}

// Logout handles POST /api/auth/logout by expiring the session cookie.
// Bearer tokens simply age out.
//
//	@Summary		Close the session
//	@Tags			auth
//	@Success		204	"Logged out"
//	@Router			/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
