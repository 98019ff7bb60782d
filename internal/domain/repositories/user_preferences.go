package repositories

import (
	"context"

	"plume/internal/domain/models"
)

// UserPreferencesRepository stores the per-user preferences document.
type UserPreferencesRepository interface {
	// GetByUserID returns nil when the user has never stored preferences.
	GetByUserID(ctx context.Context, userID string) (*models.UserPreferences, error)

	// MergeNamespaces replaces the given top-level namespaces in one atomic
	// write, creating the document if needed. Namespaces absent from patch
	// keep their stored value.
	MergeNamespaces(ctx context.Context, userID string, patch models.JSONMap) (*models.UserPreferences, error)
}
