package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"plume/internal/domain"
	"plume/internal/domain/models"
	"plume/internal/domain/repositories"
	"plume/internal/domain/services"
)

const (
	maxArtistNameLength = 80
	maxBioLength        = 500
)

// UserPreferencesService stores the artist profile and tour progress.
type UserPreferencesService struct {
	prefsRepo repositories.UserPreferencesRepository
	logger    *slog.Logger
}

// NewUserPreferencesService creates a new user preferences service
func NewUserPreferencesService(
	prefsRepo repositories.UserPreferencesRepository,
	logger *slog.Logger,
) services.UserPreferencesService {
	return &UserPreferencesService{
		prefsRepo: prefsRepo,
		logger:    logger,
	}
}

// defaultNamespaces are served for namespaces the user never wrote.
func defaultNamespaces() models.JSONMap {
	return models.JSONMap{
		"profile": map[string]interface{}{
			"artist_name": nil,
			"bio":         nil,
		},
		"tour": map[string]interface{}{
			"step":      0,
			"completed": false,
		},
	}
}

func withDefaults(prefs *models.UserPreferences) *models.UserPreferences {
	if prefs.Preferences == nil {
		prefs.Preferences = models.JSONMap{}
	}
	for name, value := range defaultNamespaces() {
		if _, ok := prefs.Preferences[name]; !ok {
			prefs.Preferences[name] = value
		}
	}
	return prefs
}

// GetPreferences returns the stored preferences, or defaults for a new user.
func (s *UserPreferencesService) GetPreferences(ctx context.Context, userID string) (*models.UserPreferences, error) {
	prefs, err := s.prefsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}

	if prefs == nil {
		s.logger.Debug("no preferences found, returning defaults", "user_id", userID)
		now := time.Now()
		prefs = &models.UserPreferences{UserID: userID, CreatedAt: now, UpdatedAt: now}
	}
	return withDefaults(prefs), nil
}

// UpdatePreferences replaces only the namespaces present in req.
func (s *UserPreferencesService) UpdatePreferences(ctx context.Context, userID string, req *models.UpdatePreferencesRequest) (*models.UserPreferences, error) {
	if err := validateUpdate(req); err != nil {
		return nil, err
	}

	patch := &models.UserPreferences{}
	if req.Profile != nil {
		profile := *req.Profile
		profile.ArtistName = trimmed(profile.ArtistName)
		profile.Bio = trimmed(profile.Bio)
		if err := patch.SetProfile(&profile); err != nil {
			return nil, fmt.Errorf("encode profile namespace: %w", err)
		}
	}
	if req.Tour != nil {
		if err := patch.SetTour(req.Tour); err != nil {
			return nil, fmt.Errorf("encode tour namespace: %w", err)
		}
	}
	if len(patch.Preferences) == 0 {
		return s.GetPreferences(ctx, userID)
	}

	prefs, err := s.prefsRepo.MergeNamespaces(ctx, userID, patch.Preferences)
	if err != nil {
		return nil, fmt.Errorf("store preferences: %w", err)
	}

	s.logger.Info("user preferences updated",
		"user_id", userID,
		"has_profile", req.Profile != nil,
		"has_tour", req.Tour != nil,
	)
	return withDefaults(prefs), nil
}

func validateUpdate(req *models.UpdatePreferencesRequest) error {
	if req.Profile != nil {
		p := req.Profile
		err := validation.ValidateStruct(p,
			validation.Field(&p.ArtistName, validation.RuneLength(0, maxArtistNameLength)),
			validation.Field(&p.Bio, validation.RuneLength(0, maxBioLength)),
		)
		if err != nil {
			return fmt.Errorf("%w: profile: %v", domain.ErrValidation, err)
		}
	}
	if req.Tour != nil {
		t := req.Tour
		if err := validation.ValidateStruct(t, validation.Field(&t.Step, validation.Min(0))); err != nil {
			return fmt.Errorf("%w: tour: %v", domain.ErrValidation, err)
		}
	}
	return nil
}

// trimmed trims s, mapping blank strings to nil.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
