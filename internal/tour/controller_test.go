package tour

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"plume/internal/domain"
	"plume/internal/domain/models"
	"plume/internal/repository/memory"
	"plume/internal/service"
)

func newTestController() *Controller {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	prefs := service.NewUserPreferencesService(memory.NewUserPreferencesRepository(), logger)
	steps := []models.TourStep{
		{ID: "writing-pad", Route: "/writing-pad"},
		{ID: "stage", Route: "/stage"},
		{ID: "community", Route: "/community"},
	}
	return NewController(steps, prefs, logger)
}

func TestController_Walk(t *testing.T) {
	c := newTestController()
	ctx := context.Background()

	st, err := c.State(ctx, "alice")
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if st.Step != 0 || st.Completed || st.Total != 3 || st.Current.ID != "writing-pad" {
		t.Fatalf("initial state = %+v", st)
	}

	steps := []struct {
		action        Action
		wantStep      int
		wantCompleted bool
	}{
		{ActionPrev, 0, false},
		{ActionNext, 1, false},
		{ActionNext, 2, false},
		{ActionPrev, 1, false},
		{ActionNext, 2, false},
		{ActionNext, 2, true},
		{ActionRestart, 0, false},
	}
	for _, s := range steps {
		st, err := c.Advance(ctx, "alice", s.action)
		if err != nil {
			t.Fatalf("Advance(%s): %v", s.action, err)
		}
		if st.Step != s.wantStep || st.Completed != s.wantCompleted {
			t.Errorf("after %s: step=%d completed=%v, want %d/%v", s.action, st.Step, st.Completed, s.wantStep, s.wantCompleted)
		}
	}
}

func TestController_ExploreKeepsRoute(t *testing.T) {
	c := newTestController()
	ctx := context.Background()

	c.Advance(ctx, "alice", ActionNext)
	st, err := c.Advance(ctx, "alice", ActionExplore)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if !st.Completed || st.Current == nil || st.Current.Route != "/stage" {
		t.Errorf("explore state = %+v", st)
	}

	// Progress is per user
	other, _ := c.State(ctx, "bob")
	if other.Completed || other.Step != 0 {
		t.Errorf("bob's tour affected: %+v", other)
	}
}

func TestController_UnknownAction(t *testing.T) {
	c := newTestController()
	if _, err := c.Advance(context.Background(), "alice", "jump"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
