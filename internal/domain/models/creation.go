package models

import (
	"slices"
	"time"
)

// Kind discriminates text and audio creations. It never changes after creation.
type Kind string

const (
	KindText  Kind = "text"
	KindAudio Kind = "audio"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindText || k == KindAudio
}

// Status is the publication lifecycle of a creation.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Creation is a user-authored work, either a written text or an audio recording.
type Creation struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Kind       Kind      `json:"kind"`
	Title      string    `json:"title"`
	Body       *string   `json:"body,omitempty"`      // text only
	AudioRef   *string   `json:"audio_ref,omitempty"` // object-store key, audio only
	AudioURL   *string   `json:"audio_url,omitempty"` // presigned on read, never stored
	Status     Status    `json:"status"`
	LikeCount  int       `json:"like_count"`
	LikedBy    []string  `json:"liked_by"`
	Comments   []Comment `json:"comments"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsPublished reports whether the creation is visible to the community.
func (c *Creation) IsPublished() bool {
	return c.Status == StatusPublished
}

// OwnedBy reports whether userID authored the creation.
func (c *Creation) OwnedBy(userID string) bool {
	return c.AuthorID == userID
}

// LikedByUser reports whether userID is in the liked-by set.
func (c *Creation) LikedByUser(userID string) bool {
	return slices.Contains(c.LikedBy, userID)
}

// VisibleTo reports whether userID may read or react to the creation.
func (c *Creation) VisibleTo(userID string) bool {
	return c.IsPublished() || c.OwnedBy(userID)
}

// Comment is an append-only reaction on a creation.
type Comment struct {
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// LikeState is the stored outcome of a like toggle.
type LikeState struct {
	CreationID string `json:"creation_id"`
	LikeCount  int    `json:"like_count"`
	Liked      bool   `json:"liked"`
}

// CreationPatch carries the mutable fields of an update. Nil means unchanged.
type CreationPatch struct {
	Title    *string
	Body     *string
	Status   *Status
	AudioRef *string
}
