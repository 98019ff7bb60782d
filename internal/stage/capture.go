package stage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"plume/internal/domain"
)

// DefaultMimeType is the container the browser recorder produces.
const DefaultMimeType = "audio/webm"

// Artifact is the immutable audio produced when a capture stops.
type Artifact struct {
	data     []byte
	mimeType string
}

// NewArtifact copies data into a new artifact.
func NewArtifact(data []byte, mimeType string) *Artifact {
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	return &Artifact{data: bytes.Clone(data), mimeType: mimeType}
}

func (a *Artifact) Reader() io.Reader { return bytes.NewReader(a.data) }
func (a *Artifact) Size() int64 { return int64(len(a.data)) }
func (a *Artifact) MimeType() string { return a.mimeType }

// Capture accumulates encoded chunks from an acquired microphone.
// Chunks stay in memory until Stop; nothing is uploaded before then.
// Not safe for concurrent use; Session serialises access.
type Capture struct {
	device   Device
	handle   Handle
	chunks   [][]byte
	size     int64
	maxBytes int64
	mimeType string
	running  bool
	paused   bool
}

// NewCapture creates a capture over device. maxBytes <= 0 disables the size cap.
func NewCapture(device Device, mimeType string, maxBytes int64) *Capture {
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	return &Capture{device: device, mimeType: mimeType, maxBytes: maxBytes}
}

// Open acquires the microphone.
func (c *Capture) Open(ctx context.Context) error {
	if c.handle != nil {
		return nil
	}
	h, err := c.device.Open(ctx)
	if err != nil {
		return err
	}
	c.handle = h
	return nil
}

// Start begins accumulation. Requires Open.
func (c *Capture) Start() error {
	if c.handle == nil {
		return fmt.Errorf("capture not open: %w", domain.ErrDeviceUnavailable)
	}
	c.running = true
	c.paused = false
	return nil
}

func (c *Capture) Pause() { c.paused = true }
func (c *Capture) Resume() { c.paused = false }

// Append adds a chunk. Chunks arriving while paused or stopped are dropped.
func (c *Capture) Append(chunk []byte) (bool, error) {
	if !c.running || c.paused || len(chunk) == 0 {
		return false, nil
	}
	if c.maxBytes > 0 && c.size+int64(len(chunk)) > c.maxBytes {
		return false, fmt.Errorf("recording exceeds %d bytes: %w", c.maxBytes, domain.ErrValidation)
	}
	c.chunks = append(c.chunks, bytes.Clone(chunk))
	c.size += int64(len(chunk))
	return true, nil
}

// Size returns the number of accumulated bytes.
func (c *Capture) Size() int64 {
	return c.size
}

// Stop finalizes the chunks into one artifact and releases the microphone.
func (c *Capture) Stop() *Artifact {
	defer c.release()
	c.running = false
	artifact := &Artifact{data: bytes.Join(c.chunks, nil), mimeType: c.mimeType}
	c.chunks = nil
	return artifact
}

// Dispose releases the microphone and drops any accumulated audio.
func (c *Capture) Dispose() {
	c.running = false
	c.chunks = nil
	c.size = 0
	c.release()
}

// Held reports whether the microphone is still acquired.
func (c *Capture) Held() bool {
	return c.handle != nil
}

func (c *Capture) release() {
	if c.handle != nil {
		c.handle.Release()
		c.handle = nil
	}
}
