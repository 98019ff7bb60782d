package creation

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"plume/internal/config"
	"plume/internal/domain"
	"plume/internal/domain/models"
	"plume/internal/domain/services"
)

// ToggleLike flips the caller's like. The repository applies it atomically,
// so concurrent toggles from different users never lose an update.
func (s *Service) ToggleLike(ctx context.Context, identity *models.Identity, creationID string) (*models.LikeState, error) {
	if identity == nil {
		return nil, domain.ErrUnauthenticated
	}

	state, err := s.repo.ToggleLike(ctx, creationID, identity.UID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("like toggled", "creation_id", creationID, "user_id", identity.UID, "liked", state.Liked)

	// Event routing needs the author, which the toggle result does not carry
	if c, err := s.repo.Get(ctx, creationID); err == nil {
		s.publish(ctx, models.EventLiked, c)
	}
	return state, nil
}

// AddComment appends a comment attributed to the caller.
func (s *Service) AddComment(ctx context.Context, identity *models.Identity, creationID string, req *services.AddCommentRequest) (*models.Creation, error) {
	if identity == nil {
		return nil, domain.ErrUnauthenticated
	}

	text := strings.TrimSpace(req.Text)
	if err := validation.Validate(text, validation.Required, validation.RuneLength(1, config.MaxCommentLength)); err != nil {
		return nil, fmt.Errorf("%w: text: %v", domain.ErrValidation, err)
	}

	comment := models.Comment{
		AuthorID:   identity.UID,
		AuthorName: identity.DisplayName,
		Text:       text,
		CreatedAt:  time.Now().UTC(),
	}
	c, err := s.repo.AppendComment(ctx, creationID, identity.UID, comment)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, models.EventCommented, c)
	return s.withAudioURL(ctx, c), nil
}
