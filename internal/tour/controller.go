package tour

import (
	"context"
	"fmt"
	"log/slog"

	"plume/internal/domain"
	"plume/internal/domain/models"
	"plume/internal/domain/services"
)

// Action moves the tour.
type Action string

const (
	ActionNext    Action = "next"
	ActionPrev    Action = "prev"
	ActionExplore Action = "explore" // finish and jump to the current step's route
	ActionFinish  Action = "finish"
	ActionRestart Action = "restart"
)

// Controller walks users through the onboarding steps. Progress lives in
// the tour namespace of user preferences.
type Controller struct {
	steps  []models.TourStep
	prefs  services.UserPreferencesService
	logger *slog.Logger
}

// NewController creates a tour over steps.
func NewController(steps []models.TourStep, prefs services.UserPreferencesService, logger *slog.Logger) *Controller {
	return &Controller{
		steps:  steps,
		prefs:  prefs,
		logger: logger,
	}
}

// State returns the user's position.
func (c *Controller) State(ctx context.Context, userID string) (*models.TourState, error) {
	progress, err := c.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return c.state(progress), nil
}

// Advance applies action and persists the result.
func (c *Controller) Advance(ctx context.Context, userID string, action Action) (*models.TourState, error) {
	progress, err := c.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	last := len(c.steps) - 1
	switch action {
	case ActionNext:
		if progress.Step < last {
			progress.Step++
		} else {
			progress.Completed = true
		}
	case ActionPrev:
		if progress.Step > 0 {
			progress.Step--
		}
	case ActionExplore, ActionFinish:
		progress.Completed = true
	case ActionRestart:
		progress.Step = 0
		progress.Completed = false
	default:
		return nil, fmt.Errorf("%w: unknown tour action %q", domain.ErrValidation, action)
	}

	if _, err := c.prefs.UpdatePreferences(ctx, userID, &models.UpdatePreferencesRequest{Tour: progress}); err != nil {
		return nil, fmt.Errorf("save tour progress: %w", err)
	}

	c.logger.Debug("tour advanced", "user_id", userID, "action", action, "step", progress.Step, "completed", progress.Completed)
	return c.state(progress), nil
}

func (c *Controller) load(ctx context.Context, userID string) (*models.TourPreferences, error) {
	prefs, err := c.prefs.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	progress, err := prefs.GetTour()
	if err != nil {
		return nil, fmt.Errorf("decode tour progress: %w", err)
	}
	// The step list may have shrunk since progress was saved
	if progress.Step >= len(c.steps) {
		progress.Step = len(c.steps) - 1
	}
	if progress.Step < 0 {
		progress.Step = 0
	}
	return progress, nil
}

func (c *Controller) state(progress *models.TourPreferences) *models.TourState {
	st := &models.TourState{
		Step:      progress.Step,
		Total:     len(c.steps),
		Completed: progress.Completed,
	}
	if progress.Step < len(c.steps) {
		step := c.steps[progress.Step]
		st.Current = &step
	}
	return st
}
