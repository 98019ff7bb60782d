package repositories

import (
	"context"

	"plume/internal/domain/models"
)

// CreationRepository is the document store for creations.
// ToggleLike and AppendComment must be atomic with respect to concurrent callers.
type CreationRepository interface {
	// Create inserts a creation and fills in ID and timestamps.
	Create(ctx context.Context, creation *models.Creation) error

	// Get returns the creation or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*models.Creation, error)

	// Update applies patch to the creation and returns the stored result.
	Update(ctx context.Context, id string, patch *models.CreationPatch) (*models.Creation, error)

	// Delete removes the creation and returns the removed row.
	Delete(ctx context.Context, id string) (*models.Creation, error)

	// ListByAuthor returns the author's creations, newest first.
	ListByAuthor(ctx context.Context, authorID string) ([]models.Creation, error)

	// ListPublished returns all published creations, newest first.
	ListPublished(ctx context.Context) ([]models.Creation, error)

	// ToggleLike flips userID's membership in liked_by and adjusts like_count
	// in one step. Only applies when the creation is published or owned by userID.
	ToggleLike(ctx context.Context, id, userID string) (*models.LikeState, error)

	// AppendComment appends a comment under the same visibility rule as ToggleLike.
	AppendComment(ctx context.Context, id, userID string, comment models.Comment) (*models.Creation, error)
}
