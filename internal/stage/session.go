package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"plume/internal/domain"
	"plume/internal/domain/models"
)

// State is the recording session state.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	StateFinished  State = "finished"
)

// DefaultMaxDuration caps a recording at five minutes.
const DefaultMaxDuration = 300 * time.Second

// tickInterval is the elapsed-time resolution.
const tickInterval = time.Second

// SaveFunc persists a finished artifact under title.
type SaveFunc func(ctx context.Context, artifact *Artifact, title string) (*models.Creation, error)

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	ID                string `json:"id"`
	State             State  `json:"state"`
	ElapsedSeconds    int    `json:"elapsed_seconds"`
	MaxSeconds        int    `json:"max_seconds"`
	RemainingSeconds  int    `json:"remaining_seconds"`
	PermissionGranted bool   `json:"permission_granted"`
	MicrophoneHeld    bool   `json:"microphone_held"`
	ArtifactBytes     int64  `json:"artifact_bytes,omitempty"`
	Saving            bool   `json:"saving"`
}

// Options configures a Session.
type Options struct {
	MaxDuration time.Duration
	MaxBytes    int64
	MimeType    string
	Logger      *slog.Logger
}

// Session is the virtual-stage recording state machine.
// Illegal transitions are no-ops. Every exit path releases the microphone.
type Session struct {
	mu sync.Mutex

	id       string
	ownerID  string
	device   Device
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
	lastSeen time.Time

	state             State
	elapsed           time.Duration
	capture           *Capture
	artifact          *Artifact
	permissionGranted bool
	saving            bool
	closed            bool
}

// NewSession creates an idle session owned by ownerID.
func NewSession(id, ownerID string, device Device, opts Options) *Session {
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = DefaultMaxDuration
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Session{
		id:      id,
		ownerID: ownerID,
		device:  device,
		opts:    opts,
		logger:  opts.Logger.With("session_id", id),
		now:     time.Now,
		state:   StateIdle,
	}
	s.lastSeen = s.now()
	return s
}

func (s *Session) ID() string { return s.id }
func (s *Session) OwnerID() string { return s.ownerID }

// Start acquires the microphone and begins recording. Permission is requested
// only once per session lifetime; a denial leaves the session idle.
func (s *Session) Start(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state != StateIdle || s.closed {
		return s.snapshotLocked(), nil
	}

	if !s.permissionGranted {
		if err := s.device.RequestPermission(ctx); err != nil {
			s.logger.Info("microphone permission refused", "error", err)
			return s.snapshotLocked(), err
		}
		s.permissionGranted = true
	}

	capture := NewCapture(s.device, s.opts.MimeType, s.opts.MaxBytes)
	if err := capture.Open(ctx); err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			s.permissionGranted = false
		}
		return s.snapshotLocked(), err
	}
	if err := capture.Start(); err != nil {
		capture.Dispose()
		return s.snapshotLocked(), err
	}

	s.capture = capture
	s.artifact = nil
	s.elapsed = 0
	s.state = StateRecording
	s.logger.Debug("recording started", "max_duration", s.opts.MaxDuration)
	return s.snapshotLocked(), nil
}

// Pause suspends accumulation while keeping the microphone.
func (s *Session) Pause() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state == StateRecording {
		s.capture.Pause()
		s.state = StatePaused
	}
	return s.snapshotLocked()
}

// Resume continues a paused recording.
func (s *Session) Resume() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state == StatePaused {
		s.capture.Resume()
		s.state = StateRecording
	}
	return s.snapshotLocked()
}

// Stop finalizes the recording into an artifact.
func (s *Session) Stop() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state == StateRecording || s.state == StatePaused {
		s.finishLocked("user")
	}
	return s.snapshotLocked()
}

// Append adds an encoded chunk. Only accepted while recording.
func (s *Session) Append(chunk []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state != StateRecording {
		return false, nil
	}
	return s.capture.Append(chunk)
}

// Tick advances elapsed time by one interval while recording and forces the
// finish when the maximum duration is reached. Returns true on a forced finish.
func (s *Session) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return false
	}
	s.elapsed += tickInterval
	if s.elapsed >= s.opts.MaxDuration {
		s.elapsed = s.opts.MaxDuration
		s.finishLocked("max_duration")
		return true
	}
	return false
}

// Reset discards a finished artifact and returns to idle.
func (s *Session) Reset() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state == StateFinished && !s.saving {
		s.artifact = nil
		s.elapsed = 0
		s.state = StateIdle
	}
	return s.snapshotLocked()
}

// Save hands the artifact to save. On success the session returns to idle;
// on failure it stays finished with the artifact intact.
func (s *Session) Save(ctx context.Context, title string, save SaveFunc) (*models.Creation, error) {
	s.mu.Lock()
	s.touch()
	if s.state != StateFinished || s.artifact == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("no finished recording to save: %w", domain.ErrValidation)
	}
	if s.saving {
		s.mu.Unlock()
		return nil, fmt.Errorf("recording save: %w", domain.ErrInProgress)
	}
	s.saving = true
	artifact := s.artifact
	s.mu.Unlock()

	creation, err := save(ctx, artifact, title)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	if err != nil {
		s.logger.Warn("recording save failed", "error", err)
		return nil, err
	}
	if s.state == StateFinished && s.artifact == artifact {
		s.artifact = nil
		s.elapsed = 0
		s.state = StateIdle
	}
	return creation, nil
}

// Close releases the microphone and discards all audio. Used when the user
// navigates away or the session is reaped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	if s.capture != nil {
		s.capture.Dispose()
		s.capture = nil
	}
	s.artifact = nil
	s.elapsed = 0
	s.state = StateIdle
	s.closed = true
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// closeIfIdle closes the session when it is neither recording nor saving
// and has not been touched within timeout of now. The check and the close
// happen under one lock, so a touch racing the reaper keeps the session.
func (s *Session) closeIfIdle(now time.Time, timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.state == StateRecording || s.saving || now.Sub(s.lastSeen) < timeout {
		return false
	}
	s.closeLocked()
	return true
}

func (s *Session) finishLocked(reason string) {
	s.artifact = s.capture.Stop()
	s.capture = nil
	s.state = StateFinished
	s.logger.Info("recording finished",
		"reason", reason,
		"elapsed_seconds", int(s.elapsed/time.Second),
		"bytes", s.artifact.Size(),
	)
}

func (s *Session) touch() {
	s.lastSeen = s.now()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:                s.id,
		State:             s.state,
		ElapsedSeconds:    int(s.elapsed / time.Second),
		MaxSeconds:        int(s.opts.MaxDuration / time.Second),
		RemainingSeconds:  int((s.opts.MaxDuration - s.elapsed) / time.Second),
		PermissionGranted: s.permissionGranted,
		MicrophoneHeld:    s.capture != nil && s.capture.Held(),
		Saving:            s.saving,
	}
	if s.artifact != nil {
		snap.ArtifactBytes = s.artifact.Size()
	}
	return snap
}
