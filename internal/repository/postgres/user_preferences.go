package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"plume/internal/domain/models"
	"plume/internal/domain/repositories"
)

// PostgresUserPreferencesRepository keeps one JSONB document per user.
type PostgresUserPreferencesRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

func NewUserPreferencesRepository(config *RepositoryConfig) repositories.UserPreferencesRepository {
	return &PostgresUserPreferencesRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetByUserID returns nil, nil when the user has no stored preferences.
func (r *PostgresUserPreferencesRepository) GetByUserID(ctx context.Context, userID string) (*models.UserPreferences, error) {
	query := fmt.Sprintf(`
		SELECT user_id, preferences, created_at, updated_at
		FROM %s
		WHERE user_id = $1
	`, r.tables.UserPreferences)

	prefs, err := scanPreferences(GetExecutor(ctx, r.pool).QueryRow(ctx, query, userID))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, wrapErr("get user preferences", err)
	}
	return prefs, nil
}

// MergeNamespaces relies on jsonb || replacing top-level keys, so a tour
// step and a profile edit landing together both survive.
func (r *PostgresUserPreferencesRepository) MergeNamespaces(ctx context.Context, userID string, patch models.JSONMap) (*models.UserPreferences, error) {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s AS p (user_id, preferences)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET
			preferences = p.preferences || EXCLUDED.preferences,
			updated_at = NOW()
		RETURNING user_id, preferences, created_at, updated_at
	`, r.tables.UserPreferences)

	prefs, err := scanPreferences(GetExecutor(ctx, r.pool).QueryRow(ctx, query, userID, patch))
	if err != nil {
		return nil, wrapErr("merge user preferences", err)
	}

	r.logger.Debug("user preferences merged", "user_id", userID, "namespaces", len(patch))
	return prefs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPreferences(row rowScanner) (*models.UserPreferences, error) {
	var prefs models.UserPreferences
	if err := row.Scan(&prefs.UserID, &prefs.Preferences, &prefs.CreatedAt, &prefs.UpdatedAt); err != nil {
		return nil, err
	}
	return &prefs, nil
}
