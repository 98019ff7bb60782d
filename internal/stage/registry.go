package stage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"plume/internal/domain"
)

// Registry holds the live recording sessions and drives their clocks.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	device      Device
	opts        Options
	idleTimeout time.Duration
	logger      *slog.Logger
}

// NewRegistry creates an empty registry. Sessions untouched for idleTimeout
// (and not recording or saving) are closed by Reap.
func NewRegistry(device Device, opts Options, idleTimeout time.Duration, logger *slog.Logger) *Registry {
	if opts.Logger == nil {
		opts.Logger = logger
	}
	return &Registry{
		sessions:    make(map[string]*Session),
		device:      device,
		opts:        opts,
		idleTimeout: idleTimeout,
		logger:      logger,
	}
}

// Open creates a new idle session for ownerID.
func (r *Registry) Open(ownerID string) *Session {
	s := NewSession(uuid.NewString(), ownerID, r.device, r.opts)

	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	r.logger.Debug("stage session opened", "session_id", s.ID(), "owner_id", ownerID)
	return s
}

// Get returns the session if ownerID owns it.
func (r *Registry) Get(id, ownerID string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("stage session %s not found", id)}
	}
	if s.OwnerID() != ownerID {
		return nil, &domain.ForbiddenError{Message: "stage session belongs to another user"}
	}
	return s, nil
}

// Close releases the session's microphone and forgets it.
func (r *Registry) Close(id, ownerID string) error {
	s, err := r.Get(id, ownerID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()

	s.Close()
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// TickAll advances every session clock by one interval.
func (r *Registry) TickAll() {
	for _, s := range r.list() {
		if s.Tick() {
			r.logger.Info("recording reached max duration", "session_id", s.ID())
		}
	}
}

// Reap closes sessions abandoned since before now-idleTimeout.
func (r *Registry) Reap(now time.Time) int {
	if r.idleTimeout <= 0 {
		return 0
	}

	reaped := 0
	for _, s := range r.list() {
		if !s.closeIfIdle(now, r.idleTimeout) {
			continue
		}

		r.mu.Lock()
		delete(r.sessions, s.ID())
		r.mu.Unlock()
		reaped++
	}

	if reaped > 0 {
		r.logger.Info("reaped abandoned stage sessions", "count", reaped)
	}
	return reaped
}

// Run ticks sessions every second until ctx is done, then closes them all.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			r.TickAll()
			r.Reap(now)
		case <-ctx.Done():
			r.Shutdown()
			return
		}
	}
}

// Shutdown closes every session.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func (r *Registry) list() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}
