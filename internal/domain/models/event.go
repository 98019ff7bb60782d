package models

import "time"

// EventType names a change to a creation.
type EventType string

const (
	EventCreated   EventType = "created"
	EventUpdated   EventType = "updated"
	EventDeleted   EventType = "deleted"
	EventLiked     EventType = "liked"
	EventCommented EventType = "commented"
)

// CreationEvent tells live lists which creation changed.
type CreationEvent struct {
	Type       EventType `json:"type"`
	CreationID string    `json:"creation_id"`
	AuthorID   string    `json:"author_id"`
	Status     Status    `json:"status"`
	At         time.Time `json:"at"`
}

// NewCreationEvent builds an event for c.
func NewCreationEvent(t EventType, c *Creation) CreationEvent {
	return CreationEvent{
		Type:       t,
		CreationID: c.ID,
		AuthorID:   c.AuthorID,
		Status:     c.Status,
		At:         time.Now().UTC(),
	}
}
