package models

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// SupabaseClaims represents the JWT claims structure from Supabase Auth.
// See: https://supabase.com/docs/guides/auth/jwts
type SupabaseClaims struct {
	jwt.RegisteredClaims
	Email        string                 `json:"email"`
	AppMetadata  map[string]interface{} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	Role         string                 `json:"role"` // "authenticated" or "anon"
	SessionID    string                 `json:"session_id"`
	IsAnonymous  bool                   `json:"is_anonymous"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *SupabaseClaims) GetUserID() string {
	return c.Subject
}

// Identity builds the authenticated principal carried through request contexts.
func (c *SupabaseClaims) Identity() *Identity {
	return &Identity{
		UID:         c.Subject,
		Email:       c.Email,
		DisplayName: displayName(c),
	}
}

// displayName prefers the profile name, then falls back to the email local part.
func displayName(c *SupabaseClaims) string {
	for _, key := range []string{"display_name", "full_name", "name"} {
		if v, ok := c.UserMetadata[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if local, _, ok := strings.Cut(c.Email, "@"); ok && local != "" {
		return local
	}
	return "Anonyme"
}

// Identity is the authenticated principal.
type Identity struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
}

// ResolutionState is the tri-state outcome of identity resolution.
type ResolutionState string

const (
	ResolutionUnresolved    ResolutionState = "unresolved"
	ResolutionAnonymous     ResolutionState = "anonymous"
	ResolutionAuthenticated ResolutionState = "authenticated"
)

// Resolution is the resolved identity state. Identity is set only when authenticated.
type Resolution struct {
	State    ResolutionState `json:"state"`
	Identity *Identity       `json:"identity,omitempty"`
}

// Unresolved is the initial state before the identity provider answers.
func Unresolved() Resolution {
	return Resolution{State: ResolutionUnresolved}
}

// Anonymous is the resolved state when no valid session exists.
func Anonymous() Resolution {
	return Resolution{State: ResolutionAnonymous}
}

// Authenticated is the resolved state for a verified identity.
func Authenticated(id *Identity) Resolution {
	return Resolution{State: ResolutionAuthenticated, Identity: id}
}
