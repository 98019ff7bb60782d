package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"plume/internal/auth"
	"plume/internal/domain"
	"plume/internal/domain/models"
	"plume/internal/httputil"
)

type stubVerifier struct {
	claims *models.SupabaseClaims
	err    error
}

func (s stubVerifier) VerifyToken(string) (*models.SupabaseClaims, error) { return s.claims, s.err }
func (s stubVerifier) Close() error { return nil }

func TestAuthMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dev := auth.NewDevVerifier("dev-user", "Plume Dev", logger)

	tests := []struct {
		name     string
		verifier auth.JWTVerifier
		path     string
		token    string
		want     int
		wantUID  string
	}{
		{"anonymous api", dev, "/api/creations", "", http.StatusUnauthorized, ""},
		{"anonymous session", dev, "/api/session", "", http.StatusOK, ""},
		{"anonymous route decision", dev, "/api/session/route", "", http.StatusOK, ""},
		{"anonymous health", dev, "/health", "", http.StatusOK, ""},
		{"session lookalike is gated", dev, "/api/sessions", "", http.StatusUnauthorized, ""},
		{"authenticated api", dev, "/api/creations", "dev:alice:Alice", http.StatusOK, "alice"},
		{"keys unavailable", stubVerifier{err: domain.ErrTransient}, "/api/creations", "x", http.StatusServiceUnavailable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUID = httputil.GetUserID(r)
				w.WriteHeader(http.StatusOK)
			})
			h := AuthMiddleware(auth.NewResolver(tt.verifier), logger)(next)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if gotUID != tt.wantUID {
				t.Errorf("uid = %q, want %q", gotUID, tt.wantUID)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/creations", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRecoveryAfterResponseStarted(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("event: snapshot\n"))
		panic("mid-stream")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/creations/stream", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want the original 200", rec.Code)
	}
	if got := rec.Body.String(); got != "event: snapshot\n" {
		t.Errorf("body = %q, want no problem appended", got)
	}
}
