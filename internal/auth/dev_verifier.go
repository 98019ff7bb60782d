package auth

import (
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"plume/internal/domain"
	"plume/internal/domain/models"
)

// DevVerifier authenticates any bearer token as a local user. Only wired
// outside production when no Supabase project is configured.
//
// A token of the form "dev:<uid>:<display name>" selects that user, which
// lets two browsers act as different artists. Any other token maps to the
// default user.
type DevVerifier struct {
	defaultUID  string
	defaultName string
	logger      *slog.Logger
}

// NewDevVerifier creates a verifier for local development.
func NewDevVerifier(uid, name string, logger *slog.Logger) *DevVerifier {
	logger.Warn("using development identity verifier; tokens are not checked", "default_user_id", uid)
	return &DevVerifier{defaultUID: uid, defaultName: name, logger: logger}
}

func (v *DevVerifier) VerifyToken(tokenString string) (*models.SupabaseClaims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, domain.ErrUnauthenticated
	}

	uid, name := v.defaultUID, v.defaultName
	if rest, ok := strings.CutPrefix(tokenString, "dev:"); ok {
		u, n, _ := strings.Cut(rest, ":")
		if u == "" {
			return nil, domain.ErrUnauthenticated
		}
		uid, name = u, n
		if name == "" {
			name = u
		}
	}

	return &models.SupabaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: uid},
		Role:             "authenticated",
		UserMetadata:     map[string]interface{}{"display_name": name},
	}, nil
}

func (v *DevVerifier) Close() error {
	return nil
}
