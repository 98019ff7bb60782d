package services

import (
	"context"
	"io"

	"plume/internal/domain/models"
)

// CreationService owns the persistence protocol for creations: uploads
// before references, drafts on create, owner-only mutation, and delete
// ordering between the document and its recording.
type CreationService interface {
	// SaveText creates a text creation, or updates it when req.ID is set.
	SaveText(ctx context.Context, identity *models.Identity, req *SaveTextRequest) (*models.Creation, error)

	// SaveAudio uploads the recording first, then creates (or repoints) the document.
	SaveAudio(ctx context.Context, identity *models.Identity, req *SaveAudioRequest) (*models.Creation, error)

	Update(ctx context.Context, identity *models.Identity, creationID string, req *UpdateCreationRequest) (*models.Creation, error)
	Delete(ctx context.Context, identity *models.Identity, creationID string) error

	// Get returns an owned creation, or any published one.
	Get(ctx context.Context, identity *models.Identity, creationID string) (*models.Creation, error)

	ListMine(ctx context.Context, identity *models.Identity) ([]models.Creation, error)
	ListPublished(ctx context.Context) ([]models.Creation, error)
}

// SocialService applies reactions atomically.
type SocialService interface {
	ToggleLike(ctx context.Context, identity *models.Identity, creationID string) (*models.LikeState, error)
	AddComment(ctx context.Context, identity *models.Identity, creationID string, req *AddCommentRequest) (*models.Creation, error)
}

// SaveTextRequest is the writing-pad save payload.
type SaveTextRequest struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// SaveAudioRequest carries a finished recording.
type SaveAudioRequest struct {
	ID       string
	Title    string
	Audio    io.Reader
	Size     int64
	MimeType string
}

// UpdateCreationRequest is a partial update. Nil fields are left unchanged.
type UpdateCreationRequest struct {
	Title  *string        `json:"title"`
	Body   *string        `json:"body"`
	Status *models.Status `json:"status"`
}

// AddCommentRequest is the comment payload.
type AddCommentRequest struct {
	Text string `json:"text"`
}
