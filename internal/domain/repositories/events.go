package repositories

import (
	"context"

	"plume/internal/domain/models"
)

// EventPublisher broadcasts creation changes to live subscribers.
// Publishing is best effort; a lost event only delays a list refresh.
type EventPublisher interface {
	Publish(ctx context.Context, event models.CreationEvent) error
}
