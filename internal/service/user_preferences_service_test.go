package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"plume/internal/domain"
	"plume/internal/domain/models"
	"plume/internal/repository/memory"
)

func newPrefsService() *UserPreferencesService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewUserPreferencesService(memory.NewUserPreferencesRepository(), logger).(*UserPreferencesService)
}

func strPtr(s string) *string { return &s }

func TestGetPreferences_Defaults(t *testing.T) {
	svc := newPrefsService()

	prefs, err := svc.GetPreferences(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetPreferences: %v", err)
	}
	tour, err := prefs.GetTour()
	if err != nil {
		t.Fatalf("GetTour: %v", err)
	}
	if diff := cmp.Diff(&models.TourPreferences{}, tour); diff != "" {
		t.Errorf("default tour mismatch (-want +got):\n%s", diff)
	}
	profile, _ := prefs.GetProfile()
	if profile.ArtistName != nil || profile.Bio != nil {
		t.Errorf("default profile = %+v", profile)
	}
}

func TestUpdatePreferences_PartialNamespaces(t *testing.T) {
	svc := newPrefsService()
	ctx := context.Background()

	_, err := svc.UpdatePreferences(ctx, "alice", &models.UpdatePreferencesRequest{
		Profile: &models.ProfilePreferences{ArtistName: strPtr("  MC Plume "), Bio: strPtr("   ")},
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	_, err = svc.UpdatePreferences(ctx, "alice", &models.UpdatePreferencesRequest{
		Tour: &models.TourPreferences{Step: 3},
	})
	if err != nil {
		t.Fatalf("update tour: %v", err)
	}

	prefs, _ := svc.GetPreferences(ctx, "alice")
	profile, _ := prefs.GetProfile()
	want := &models.ProfilePreferences{ArtistName: strPtr("MC Plume")}
	if diff := cmp.Diff(want, profile); diff != "" {
		t.Errorf("profile mismatch (-want +got):\n%s", diff)
	}
	tour, _ := prefs.GetTour()
	if tour.Step != 3 || tour.Completed {
		t.Errorf("tour = %+v", tour)
	}
}

func TestUpdatePreferences_Validation(t *testing.T) {
	svc := newPrefsService()
	ctx := context.Background()

	tests := []struct {
		name string
		req  *models.UpdatePreferencesRequest
	}{
		{"artist name too long", &models.UpdatePreferencesRequest{Profile: &models.ProfilePreferences{ArtistName: strPtr(strings.Repeat("x", maxArtistNameLength+1))}}},
		{"bio too long", &models.UpdatePreferencesRequest{Profile: &models.ProfilePreferences{Bio: strPtr(strings.Repeat("x", maxBioLength+1))}}},
		{"negative tour step", &models.UpdatePreferencesRequest{Tour: &models.TourPreferences{Step: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.UpdatePreferences(ctx, "alice", tt.req); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestUpdatePreferences_ConcurrentNamespacesBothSurvive(t *testing.T) {
	svc := newPrefsService()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			svc.UpdatePreferences(ctx, "alice", &models.UpdatePreferencesRequest{
				Profile: &models.ProfilePreferences{ArtistName: strPtr("Léa")},
			})
		}()
		go func(step int) {
			defer wg.Done()
			svc.UpdatePreferences(ctx, "alice", &models.UpdatePreferencesRequest{
				Tour: &models.TourPreferences{Step: step},
			})
		}(i + 1)
	}
	wg.Wait()

	prefs, _ := svc.GetPreferences(ctx, "alice")
	profile, _ := prefs.GetProfile()
	tour, _ := prefs.GetTour()
	if profile.ArtistName == nil || *profile.ArtistName != "Léa" {
		t.Errorf("profile lost: %+v", profile)
	}
	if tour.Step == 0 {
		t.Errorf("tour lost: %+v", tour)
	}
}
