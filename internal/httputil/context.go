package httputil

import (
	"context"
	"net/http"

	"plume/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	identityKey   contextKey = "identity"
	resolutionKey contextKey = "resolution"
)

// WithResolution adds the resolved identity state to the request context.
// An authenticated resolution also sets the identity.
func WithResolution(r *http.Request, res models.Resolution) *http.Request {
	ctx := context.WithValue(r.Context(), resolutionKey, res)
	if res.State == models.ResolutionAuthenticated && res.Identity != nil {
		ctx = context.WithValue(ctx, identityKey, res.Identity)
	}
	return r.WithContext(ctx)
}

// GetResolution retrieves the resolution from context. Requests that never
// went through the auth middleware are unresolved.
func GetResolution(r *http.Request) models.Resolution {
	res, ok := r.Context().Value(resolutionKey).(models.Resolution)
	if !ok {
		return models.Unresolved()
	}
	return res
}

// WithIdentity adds an authenticated identity to the request context
func WithIdentity(r *http.Request, identity *models.Identity) *http.Request {
	return WithResolution(r, models.Authenticated(identity))
}

// GetIdentity retrieves the identity from context, returns nil if anonymous
func GetIdentity(r *http.Request) *models.Identity {
	identity, _ := r.Context().Value(identityKey).(*models.Identity)
	return identity
}

// GetUserID retrieves the authenticated user's ID, returns empty string if not found
func GetUserID(r *http.Request) string {
	if identity := GetIdentity(r); identity != nil {
		return identity.UID
	}
	return ""
}
