package creation

import (
	"errors"
	"mime"
	"strings"
	"time"

	"plume/internal/config"
	"plume/internal/domain/models"
)

const blobCleanupTimeout = 10 * time.Second

// normalizeTitle trims the title and substitutes the placeholder when blank.
func normalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return config.DefaultTitle
	}
	return title
}

var knownExtensions = map[string]string{
	"audio/webm": ".webm",
	"audio/ogg":  ".ogg",
	"audio/mp4":  ".m4a",
	"audio/mpeg": ".mp3",
	"audio/wav":  ".wav",
}

// extensionFor maps a recording mime type (codec parameters ignored) to a
// file extension.
func extensionFor(mimeType string) string {
	base, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		base = mimeType
	}
	if ext, ok := knownExtensions[base]; ok {
		return ext
	}
	return ".bin"
}

func validStatus(value interface{}) error {
	s, _ := value.(*models.Status)
	if s == nil {
		return nil
	}
	if !s.Valid() {
		return errors.New("must be draft or published")
	}
	return nil
}
