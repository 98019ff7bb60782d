package config

import "time"

const (
	// MaxTitleLength is the maximum length for creation titles.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxTitleLength = 255

	// MaxBodyLength caps written creations (characters).
	MaxBodyLength = 50000

	// MaxCommentLength caps a single comment (characters).
	MaxCommentLength = 2000

	// MaxRecordingBytes caps the in-memory chunk buffer of one stage session.
	// Five minutes of opus in webm stays well under this.
	MaxRecordingBytes = 50 << 20

	// MaxChunkBytes caps a single uploaded chunk request.
	MaxChunkBytes = 5 << 20

	// MaxAIInputLength caps free text sent to the language model (characters).
	MaxAIInputLength = 10000

	// DefaultTitle replaces blank titles on save.
	DefaultTitle = "Sans titre"

	// InFlightTTL bounds how long an idempotency key blocks a repeated request.
	InFlightTTL = 30 * time.Second
)
