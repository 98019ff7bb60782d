package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"plume/internal/domain"
)

func TestNewTableNames(t *testing.T) {
	tables := NewTableNames("test_")

	if tables.Creations != "test_creations" {
		t.Errorf("Creations = %s", tables.Creations)
	}
	if tables.UserPreferences != "test_user_preferences" {
		t.Errorf("UserPreferences = %s", tables.UserPreferences)
	}
	if tables.EventsChannel != "test_creation_events" {
		t.Errorf("EventsChannel = %s", tables.EventsChannel)
	}
}

func TestErrorClassifiers(t *testing.T) {
	wrapped := fmt.Errorf("query: %w", pgx.ErrNoRows)
	if !IsPgNoRowsError(wrapped) {
		t.Error("wrapped ErrNoRows not detected")
	}

	invalid := fmt.Errorf("query: %w", &pgconn.PgError{Code: "22P02"})
	if !IsPgInvalidTextError(invalid) {
		t.Error("invalid_text_representation not detected")
	}

	check := &pgconn.PgError{Code: "23514"}
	if !IsPgCheckViolation(check) || IsPgCheckViolation(errors.New("other")) {
		t.Error("check_violation classification wrong")
	}
}

func TestWrapErrTagsDomainSentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"server shutting down", &pgconn.PgError{Code: "57P01"}, domain.ErrTransient},
		{"too many connections", &pgconn.PgError{Code: "53300"}, domain.ErrTransient},
		{"check violation", &pgconn.PgError{Code: "23514"}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapErr("op", tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("wrapErr = %v, want %v", got, tt.want)
			}
			var pgErr *pgconn.PgError
			if !errors.As(got, &pgErr) {
				t.Error("pg error lost from chain")
			}
		})
	}

	plain := wrapErr("op", errors.New("syntax"))
	if errors.Is(plain, domain.ErrTransient) || errors.Is(plain, domain.ErrValidation) {
		t.Errorf("unclassified error tagged: %v", plain)
	}
}
