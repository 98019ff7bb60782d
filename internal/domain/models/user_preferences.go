package models

import (
	"encoding/json"
	"time"
)

// JSONMap is a type alias for JSONB columns
type JSONMap map[string]interface{}

// UserPreferences represents user-specific settings.
// All preferences are stored in a single JSONB column with namespaced structure.
type UserPreferences struct {
	UserID      string    `json:"user_id" db:"user_id"`
	Preferences JSONMap   `json:"preferences" db:"preferences"` // {profile, tour}
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProfilePreferences represents the profile namespace in preferences
type ProfilePreferences struct {
	ArtistName *string `json:"artist_name"`
	Bio        *string `json:"bio"`
}

// TourPreferences represents the tour namespace in preferences
type TourPreferences struct {
	Step      int  `json:"step"`
	Completed bool `json:"completed"`
}

// GetProfile extracts the profile namespace from preferences
func (up *UserPreferences) GetProfile() (*ProfilePreferences, error) {
	var profile ProfilePreferences
	if err := up.decodeNamespace("profile", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// SetProfile sets the profile namespace in preferences
func (up *UserPreferences) SetProfile(profile *ProfilePreferences) error {
	return up.encodeNamespace("profile", profile)
}

// GetTour extracts the tour namespace from preferences
func (up *UserPreferences) GetTour() (*TourPreferences, error) {
	var tour TourPreferences
	if err := up.decodeNamespace("tour", &tour); err != nil {
		return nil, err
	}
	return &tour, nil
}

// SetTour sets the tour namespace in preferences
func (up *UserPreferences) SetTour(tour *TourPreferences) error {
	return up.encodeNamespace("tour", tour)
}

func (up *UserPreferences) decodeNamespace(name string, dest interface{}) error {
	if up.Preferences == nil {
		return nil
	}
	raw, ok := up.Preferences[name]
	if !ok || raw == nil {
		return nil
	}

	// Re-marshal to ensure type safety
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (up *UserPreferences) encodeNamespace(name string, value interface{}) error {
	if up.Preferences == nil {
		up.Preferences = JSONMap{}
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	up.Preferences[name] = m
	return nil
}

// UpdatePreferencesRequest represents a partial preferences update.
// Only provided namespaces are replaced.
type UpdatePreferencesRequest struct {
	Profile *ProfilePreferences `json:"profile"`
	Tour    *TourPreferences    `json:"tour"`
}
