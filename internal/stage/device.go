package stage

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"plume/internal/domain"
)

// Device is an audio input that must be explicitly acquired and released.
type Device interface {
	// RequestPermission asks the user for microphone access.
	// Returns domain.ErrPermissionDenied or domain.ErrDeviceUnavailable on failure.
	RequestPermission(ctx context.Context) error

	// Open acquires the microphone. The returned handle must be released exactly once.
	Open(ctx context.Context) (Handle, error)
}

// Handle is an acquired microphone.
type Handle interface {
	Release()
}

// Permission is the microphone permission outcome reported by the browser.
type Permission string

const (
	PermissionUnknown     Permission = ""
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionUnavailable Permission = "unavailable"
)

type permissionKey struct{}

// WithPermission attaches the browser's permission outcome to ctx.
func WithPermission(ctx context.Context, p Permission) context.Context {
	return context.WithValue(ctx, permissionKey{}, p)
}

// PermissionFromContext returns the permission outcome carried by ctx.
func PermissionFromContext(ctx context.Context) Permission {
	p, _ := ctx.Value(permissionKey{}).(Permission)
	return p
}

// ClientDevice is the microphone of the browser driving the session over HTTP.
// The browser reports its getUserMedia outcome with each start request and
// streams encoded chunks; the server only tracks whether the handle is held.
type ClientDevice struct {
	logger *slog.Logger
	open   atomic.Int64
}

// NewClientDevice creates a device fed by HTTP requests.
func NewClientDevice(logger *slog.Logger) *ClientDevice {
	return &ClientDevice{logger: logger}
}

func (d *ClientDevice) RequestPermission(ctx context.Context) error {
	switch PermissionFromContext(ctx) {
	case PermissionGranted:
		return nil
	case PermissionUnavailable:
		return domain.ErrDeviceUnavailable
	default:
		return domain.ErrPermissionDenied
	}
}

func (d *ClientDevice) Open(ctx context.Context) (Handle, error) {
	if PermissionFromContext(ctx) == PermissionUnavailable {
		return nil, domain.ErrDeviceUnavailable
	}
	d.open.Add(1)
	return &clientHandle{device: d}, nil
}

// OpenHandles returns the number of microphones currently held.
func (d *ClientDevice) OpenHandles() int64 {
	return d.open.Load()
}

type clientHandle struct {
	device *ClientDevice
	once   sync.Once
}

func (h *clientHandle) Release() {
	h.once.Do(func() {
		h.device.open.Add(-1)
		h.device.logger.Debug("microphone released")
	})
}
