package creation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"plume/internal/config"
	"plume/internal/domain"
	"plume/internal/domain/models"
	"plume/internal/domain/repositories"
	"plume/internal/domain/services"
)

// Service implements services.CreationService and services.SocialService.
type Service struct {
	repo   repositories.CreationRepository
	blobs  repositories.BlobStore
	tx     repositories.TransactionManager
	events repositories.EventPublisher
	logger *slog.Logger
}

// NewService creates the creation service.
func NewService(
	repo repositories.CreationRepository,
	blobs repositories.BlobStore,
	tx repositories.TransactionManager,
	events repositories.EventPublisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:   repo,
		blobs:  blobs,
		tx:     tx,
		events: events,
		logger: logger,
	}
}

var (
	_ services.CreationService = (*Service)(nil)
	_ services.SocialService   = (*Service)(nil)
)

// SaveText creates a draft text creation or updates an owned one.
func (s *Service) SaveText(ctx context.Context, identity *models.Identity, req *services.SaveTextRequest) (*models.Creation, error) {
	if identity == nil {
		return nil, domain.ErrUnauthenticated
	}
	title := normalizeTitle(req.Title)
	body := strings.TrimSpace(req.Body)

	if err := validation.Validate(title, validation.RuneLength(1, config.MaxTitleLength)); err != nil {
		return nil, fmt.Errorf("%w: title: %v", domain.ErrValidation, err)
	}
	if err := validation.Validate(body, validation.Required, validation.RuneLength(1, config.MaxBodyLength)); err != nil {
		return nil, fmt.Errorf("%w: body: %v", domain.ErrValidation, err)
	}

	if req.ID != "" {
		existing, err := s.owned(ctx, identity, req.ID)
		if err != nil {
			return nil, err
		}
		if existing.Kind != models.KindText {
			return nil, fmt.Errorf("%w: creation %s is not a text", domain.ErrValidation, req.ID)
		}

		updated, err := s.repo.Update(ctx, req.ID, &models.CreationPatch{Title: &title, Body: &body})
		if err != nil {
			return nil, fmt.Errorf("update text creation: %w", err)
		}
		s.publish(ctx, models.EventUpdated, updated)
		return s.withAudioURL(ctx, updated), nil
	}

	c := &models.Creation{
		AuthorID:   identity.UID,
		AuthorName: identity.DisplayName,
		Kind:       models.KindText,
		Title:      title,
		Body:       &body,
		Status:     models.StatusDraft,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create text creation: %w", err)
	}

	s.logger.Info("text creation saved", "creation_id", c.ID, "author_id", c.AuthorID)
	s.publish(ctx, models.EventCreated, c)
	return c, nil
}

// SaveAudio uploads the recording under a fresh key and only then writes the
// document. A failed upload writes nothing; a failed document write removes
// the fresh object.
func (s *Service) SaveAudio(ctx context.Context, identity *models.Identity, req *services.SaveAudioRequest) (*models.Creation, error) {
	if identity == nil {
		return nil, domain.ErrUnauthenticated
	}
	title := normalizeTitle(req.Title)
	if err := validation.Validate(title, validation.RuneLength(1, config.MaxTitleLength)); err != nil {
		return nil, fmt.Errorf("%w: title: %v", domain.ErrValidation, err)
	}
	if req.Audio == nil || req.Size <= 0 {
		return nil, fmt.Errorf("%w: recording is empty", domain.ErrValidation)
	}

	var existing *models.Creation
	if req.ID != "" {
		var err error
		if existing, err = s.owned(ctx, identity, req.ID); err != nil {
			return nil, err
		}
		if existing.Kind != models.KindAudio {
			return nil, fmt.Errorf("%w: creation %s is not a recording", domain.ErrValidation, req.ID)
		}
	}

	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "audio/webm"
	}
	key := fmt.Sprintf("audio/%s/%s%s", identity.UID, uuid.NewString(), extensionFor(mimeType))

	if err := s.blobs.Put(ctx, key, req.Audio, req.Size, mimeType); err != nil {
		s.logger.Warn("recording upload failed", "key", key, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	if existing != nil {
		updated, err := s.repo.Update(ctx, existing.ID, &models.CreationPatch{
			Title:    &title,
			AudioRef: &key,
		})
		if err != nil {
			s.discardBlob(key)
			return nil, fmt.Errorf("repoint recording: %w", err)
		}
		// The previous object is unreferenced now
		if existing.AudioRef != nil {
			s.discardBlob(*existing.AudioRef)
		}
		s.publish(ctx, models.EventUpdated, updated)
		return s.withAudioURL(ctx, updated), nil
	}

	c := &models.Creation{
		AuthorID:   identity.UID,
		AuthorName: identity.DisplayName,
		Kind:       models.KindAudio,
		Title:      title,
		AudioRef:   &key,
		Status:     models.StatusDraft,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		s.discardBlob(key)
		return nil, fmt.Errorf("create audio creation: %w", err)
	}

	s.logger.Info("audio creation saved", "creation_id", c.ID, "author_id", c.AuthorID, "bytes", req.Size)
	s.publish(ctx, models.EventCreated, c)
	return s.withAudioURL(ctx, c), nil
}

// Update changes title, body or status of an owned creation.
func (s *Service) Update(ctx context.Context, identity *models.Identity, creationID string, req *services.UpdateCreationRequest) (*models.Creation, error) {
	if identity == nil {
		return nil, domain.ErrUnauthenticated
	}
	existing, err := s.owned(ctx, identity, creationID)
	if err != nil {
		return nil, err
	}

	patch := &models.CreationPatch{Status: req.Status}
	if req.Title != nil {
		title := normalizeTitle(*req.Title)
		patch.Title = &title
	}
	if req.Body != nil {
		body := strings.TrimSpace(*req.Body)
		patch.Body = &body
	}

	err = validation.ValidateStruct(patch,
		validation.Field(&patch.Title, validation.NilOrNotEmpty, validation.RuneLength(1, config.MaxTitleLength)),
		validation.Field(&patch.Body,
			validation.NilOrNotEmpty,
			validation.RuneLength(1, config.MaxBodyLength),
			validation.When(existing.Kind == models.KindAudio, validation.Nil.Error("recordings have no body")),
		),
		validation.Field(&patch.Status, validation.By(validStatus)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if patch.Title == nil && patch.Body == nil && patch.Status == nil {
		return s.withAudioURL(ctx, existing), nil
	}

	updated, err := s.repo.Update(ctx, creationID, patch)
	if err != nil {
		return nil, fmt.Errorf("update creation: %w", err)
	}

	if patch.Status != nil && *patch.Status != existing.Status {
		s.logger.Info("creation status changed", "creation_id", creationID, "status", *patch.Status)
	}
	s.publish(ctx, models.EventUpdated, updated)
	return s.withAudioURL(ctx, updated), nil
}

// Delete removes the document and its recording. The document row is
// deleted inside a transaction that only commits once the recording is
// gone, so a failed object delete leaves the document intact.
//
// If the commit itself fails after the object was removed, the row would
// point at a missing recording. Delete then retries the row delete outside
// the transaction; when that also fails the dangling row is logged and the
// caller gets ErrDeleteFailed.
func (s *Service) Delete(ctx context.Context, identity *models.Identity, creationID string) error {
	if identity == nil {
		return domain.ErrUnauthenticated
	}
	if _, err := s.owned(ctx, identity, creationID); err != nil {
		return err
	}

	var deleted *models.Creation
	blobRemoved := false
	err := s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		c, err := s.repo.Delete(txCtx, creationID)
		if err != nil {
			return fmt.Errorf("delete creation: %w", err)
		}
		if c.AudioRef != nil {
			if err := s.blobs.Remove(txCtx, *c.AudioRef); err != nil {
				s.logger.Warn("recording delete failed, keeping document", "creation_id", creationID, "error", err)
				return fmt.Errorf("%w: %v", domain.ErrDeleteFailed, err)
			}
			blobRemoved = true
		}
		deleted = c
		return nil
	})
	if err != nil && blobRemoved {
		err = s.finishDelete(ctx, creationID, err)
	}
	if err != nil {
		return err
	}

	s.logger.Info("creation deleted", "creation_id", creationID, "author_id", identity.UID)
	s.publish(ctx, models.EventDeleted, deleted)
	return nil
}

// finishDelete handles a commit that failed after the recording was removed.
func (s *Service) finishDelete(ctx context.Context, creationID string, commitErr error) error {
	s.logger.Warn("commit failed after recording removal, retrying document delete",
		"creation_id", creationID, "error", commitErr)

	_, err := s.repo.Delete(ctx, creationID)
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	s.logger.Error("document left pointing at a removed recording",
		"creation_id", creationID, "commit_error", commitErr, "error", err)
	return fmt.Errorf("%w: %v", domain.ErrDeleteFailed, commitErr)
}

// Get returns a creation the caller may see.
func (s *Service) Get(ctx context.Context, identity *models.Identity, creationID string) (*models.Creation, error) {
	if identity == nil {
		return nil, domain.ErrUnauthenticated
	}
	c, err := s.repo.Get(ctx, creationID)
	if err != nil {
		return nil, err
	}
	if !c.VisibleTo(identity.UID) {
		return nil, &domain.ForbiddenError{Message: "creation is not published"}
	}
	return s.withAudioURL(ctx, c), nil
}

func (s *Service) ListMine(ctx context.Context, identity *models.Identity) ([]models.Creation, error) {
	if identity == nil {
		return nil, domain.ErrUnauthenticated
	}
	list, err := s.repo.ListByAuthor(ctx, identity.UID)
	if err != nil {
		return nil, err
	}
	return s.withAudioURLs(ctx, list), nil
}

func (s *Service) ListPublished(ctx context.Context) ([]models.Creation, error) {
	list, err := s.repo.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	return s.withAudioURLs(ctx, list), nil
}

// owned loads the creation and checks the caller authored it.
func (s *Service) owned(ctx context.Context, identity *models.Identity, creationID string) (*models.Creation, error) {
	c, err := s.repo.Get(ctx, creationID)
	if err != nil {
		return nil, err
	}
	if !c.OwnedBy(identity.UID) {
		return nil, fmt.Errorf("creation %s: %w", creationID, domain.ErrForbidden)
	}
	return c, nil
}

// withAudioURL fills the fetch URL of a recording. URLs expire and are never
// stored with the document. A signing failure leaves the URL empty.
func (s *Service) withAudioURL(ctx context.Context, c *models.Creation) *models.Creation {
	if c == nil || c.AudioRef == nil {
		return c
	}
	url, err := s.blobs.URL(ctx, *c.AudioRef)
	if err != nil {
		s.logger.Warn("recording url unavailable", "creation_id", c.ID, "key", *c.AudioRef, "error", err)
		c.AudioURL = nil
		return c
	}
	c.AudioURL = &url
	return c
}

func (s *Service) withAudioURLs(ctx context.Context, list []models.Creation) []models.Creation {
	for i := range list {
		s.withAudioURL(ctx, &list[i])
	}
	return list
}

// discardBlob removes an unreferenced object. Failures only leak storage.
func (s *Service) discardBlob(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), blobCleanupTimeout)
	defer cancel()
	if err := s.blobs.Remove(ctx, key); err != nil {
		s.logger.Warn("orphaned recording left in object store", "key", key, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, t models.EventType, c *models.Creation) {
	if s.events == nil || c == nil {
		return
	}
	if err := s.events.Publish(context.WithoutCancel(ctx), models.NewCreationEvent(t, c)); err != nil {
		s.logger.Warn("publish creation event failed", "type", t, "creation_id", c.ID, "error", err)
	}
}
