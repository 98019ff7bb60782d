package auth

import (
	"errors"
	"net/http"
	"strings"

	"plume/internal/domain"
	"plume/internal/domain/models"
)

// accessTokenParam carries the token for EventSource requests, which cannot
// set an Authorization header.
const accessTokenParam = "access_token"

// Resolver turns a request into the tri-state identity resolution.
type Resolver struct {
	verifier JWTVerifier
}

// NewResolver creates a resolver over verifier.
func NewResolver(verifier JWTVerifier) *Resolver {
	return &Resolver{verifier: verifier}
}

// Resolve verifies the request's token. No token or a rejected token is
// anonymous; a verifier that cannot decide leaves the identity unresolved.
func (r *Resolver) Resolve(req *http.Request) models.Resolution {
	token := BearerToken(req)
	if token == "" {
		return models.Anonymous()
	}

	claims, err := r.verifier.VerifyToken(token)
	if err != nil {
		if errors.Is(err, domain.ErrTransient) {
			return models.Unresolved()
		}
		return models.Anonymous()
	}
	return models.Authenticated(claims.Identity())
}

// BearerToken extracts the token from "Authorization: Bearer <token>" or the
// access_token query parameter.
func BearerToken(req *http.Request) string {
	if header := req.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(req.URL.Query().Get(accessTokenParam))
}
