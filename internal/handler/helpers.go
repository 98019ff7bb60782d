package handler

import (
	"errors"
	"net/http"

	"plume/internal/domain"
	"plume/internal/domain/models"
	"plume/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var conflictErr *domain.ConflictError

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrPermissionDenied):
		httputil.RespondErrorWithExtras(w, http.StatusForbidden, err.Error(),
			map[string]interface{}{"code": "permission_denied"})
	case errors.Is(err, domain.ErrDeviceUnavailable):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, err.Error(),
			map[string]interface{}{"code": "device_unavailable"})
	case errors.Is(err, domain.ErrInProgress):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, err.Error(),
			map[string]interface{}{"code": "in_progress"})
	case errors.As(err, &conflictErr):
		httputil.RespondError(w, http.StatusConflict, conflictErr.Error())
	case errors.Is(err, domain.ErrUploadFailed), errors.Is(err, domain.ErrDeleteFailed):
		httputil.RespondError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, domain.ErrTransient):
		httputil.RespondErrorWithExtras(w, http.StatusServiceUnavailable, err.Error(),
			map[string]interface{}{"retryable": true})
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// PathParam returns the named path value, answering 400 when it is empty.
func PathParam(w http.ResponseWriter, r *http.Request, name, label string) (string, bool) {
	value := r.PathValue(name)
	if value == "" {
		httputil.RespondError(w, http.StatusBadRequest, label+" is required")
		return "", false
	}
	return value, true
}

// requireIdentity returns the caller's identity, answering 401 when absent.
func requireIdentity(w http.ResponseWriter, r *http.Request) (*models.Identity, bool) {
	identity := httputil.GetIdentity(r)
	if identity == nil {
		handleError(w, domain.ErrUnauthenticated)
		return nil, false
	}
	return identity, true
}

// parseBody decodes a JSON body, answering 400 or 413 on failure.
func parseBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := httputil.ParseJSON(w, r, dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
