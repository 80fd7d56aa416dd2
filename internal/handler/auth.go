package handler

import (
	"log/slog"
	"net/http"

	"coursehub/internal/auth"
	"coursehub/internal/domain/models"
	"coursehub/internal/httputil"
)

// AuthHandler handles teacher account HTTP requests
type AuthHandler struct {
	idp    auth.IdentityProvider
	logger *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(idp auth.IdentityProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		idp:    idp,
		logger: logger,
	}
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

// SignIn exchanges email and password for a session
// POST /api/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := h.idp.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, session)
}

// SignUp registers a teacher and sends the verification email
// POST /api/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	identity, err := h.idp.SignUp(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, identity)
}

// SendVerification re-sends the verification email
// POST /api/auth/verify
func (h *AuthHandler) SendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.idp.SendVerification(r.Context(), &models.Identity{Email: req.Email}); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// ResetPassword sends a password recovery email
// POST /api/auth/reset
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.idp.ResetPassword(r.Context(), req.Email); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// Me returns the signed-in teacher
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := httputil.GetIdentity(r)
	if identity == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, identity)
}
