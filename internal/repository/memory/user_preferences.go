package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"sync"
	"time"

	"plume/internal/domain/models"
	"plume/internal/domain/repositories"
)

// UserPreferencesRepository keeps preferences in memory as JSON, like the
// JSONB column does, so callers never share maps with the store.
type UserPreferencesRepository struct {
	mu    sync.Mutex
	prefs map[string][]byte
}

// NewUserPreferencesRepository creates an empty store.
func NewUserPreferencesRepository() repositories.UserPreferencesRepository {
	return &UserPreferencesRepository{prefs: make(map[string][]byte)}
}

func (r *UserPreferencesRepository) GetByUserID(ctx context.Context, userID string) (*models.UserPreferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(userID)
}

func (r *UserPreferencesRepository) MergeNamespaces(ctx context.Context, userID string, patch models.JSONMap) (*models.UserPreferences, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefs, err := r.load(userID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if prefs == nil {
		prefs = &models.UserPreferences{UserID: userID, Preferences: models.JSONMap{}, CreatedAt: now}
	}
	if prefs.Preferences == nil {
		prefs.Preferences = models.JSONMap{}
	}
	maps.Copy(prefs.Preferences, patch)
	prefs.UpdatedAt = now

	data, err := json.Marshal(prefs)
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}
	previous, existed := r.prefs[userID]
	r.prefs[userID] = data
	onRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if existed {
			r.prefs[userID] = previous
		} else {
			delete(r.prefs, userID)
		}
	})

	// Round-trip so the caller gets its own copy.
	var out models.UserPreferences
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return &out, nil
}

func (r *UserPreferencesRepository) load(userID string) (*models.UserPreferences, error) {
	data, ok := r.prefs[userID]
	if !ok {
		return nil, nil
	}
	var prefs models.UserPreferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return &prefs, nil
}
