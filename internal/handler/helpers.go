package handler

import (
	"errors"
	"net/http"

	"coursehub/internal/domain"
	"coursehub/internal/httputil"
	"coursehub/internal/service/undo"
	"coursehub/internal/service/upload"
	"coursehub/internal/service/workspace"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var conflictErr *domain.ConflictError

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflictErr):
		httputil.RespondError(w, http.StatusConflict, conflictErr.Error())

	// Sign-in outcomes carry a code so the client can pick the follow-up flow
	case errors.Is(err, domain.ErrInvalidCredentials):
		httputil.RespondErrorWithExtras(w, http.StatusUnauthorized, err.Error(), map[string]interface{}{"code": "invalid_credentials"})
	case errors.Is(err, domain.ErrEmailNotVerified):
		httputil.RespondErrorWithExtras(w, http.StatusForbidden, err.Error(), map[string]interface{}{"code": "email_not_verified"})
	case errors.Is(err, domain.ErrAccessDenied):
		httputil.RespondErrorWithExtras(w, http.StatusForbidden, err.Error(), map[string]interface{}{"code": "access_denied"})

	case errors.Is(err, upload.ErrQueueBlocked), errors.Is(err, upload.ErrQueueBusy):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, undo.ErrClosed), errors.Is(err, workspace.ErrClosed):
		httputil.RespondError(w, http.StatusServiceUnavailable, "server is shutting down")
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// PathParam returns the named path value, responding 400 when it is empty
func PathParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	value := r.PathValue(name)
	if value == "" {
		httputil.RespondError(w, http.StatusBadRequest, label+" is required")
		return "", false
	}
	return value, true
}

// teacherSession returns the caller's workspace, responding with an error
// when there is none
func teacherSession(w http.ResponseWriter, r *http.Request, workspaces *workspace.Registry) (*workspace.Session, bool) {
	s, err := workspaces.Get(r.Context(), httputil.GetUserID(r))
	if err != nil {
		handleError(w, err)
		return nil, false
	}
	return s, true
}
