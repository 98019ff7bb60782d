package stage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"plume/internal/domain"
	"plume/internal/domain/models"
)

// fakeDevice counts microphone acquisitions and releases.
type fakeDevice struct {
	mu           sync.Mutex
	permErr      error
	openErr      error
	permRequests int
	opened       int
	released     int
}

func (d *fakeDevice) RequestPermission(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.permRequests++
	return d.permErr
}

func (d *fakeDevice) Open(ctx context.Context) (Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.opened++
	return &fakeHandle{device: d}, nil
}

func (d *fakeDevice) counts() (opened, released, requests int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened, d.released, d.permRequests
}

type fakeHandle struct {
	device *fakeDevice
}

func (h *fakeHandle) Release() {
	h.device.mu.Lock()
	defer h.device.mu.Unlock()
	h.device.released++
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(device Device, max time.Duration) *Session {
	return NewSession("s1", "user-1", device, Options{MaxDuration: max, Logger: testLogger()})
}

func TestSession_Transitions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		ops  []string
		want State
	}{
		{"start", []string{"start"}, StateRecording},
		{"pause", []string{"start", "pause"}, StatePaused},
		{"resume", []string{"start", "pause", "resume"}, StateRecording},
		{"stop from recording", []string{"start", "stop"}, StateFinished},
		{"stop from paused", []string{"start", "pause", "stop"}, StateFinished},
		{"reset", []string{"start", "stop", "reset"}, StateIdle},
		{"pause while idle is ignored", []string{"pause"}, StateIdle},
		{"resume while recording is ignored", []string{"start", "resume"}, StateRecording},
		{"stop while idle is ignored", []string{"stop"}, StateIdle},
		{"start while finished is ignored", []string{"start", "stop", "start"}, StateFinished},
		{"reset while recording is ignored", []string{"start", "reset"}, StateRecording},
		{"pause while finished is ignored", []string{"start", "stop", "pause"}, StateFinished},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(&fakeDevice{}, DefaultMaxDuration)
			var snap Snapshot
			for _, op := range tt.ops {
				switch op {
				case "start":
					var err error
					snap, err = s.Start(ctx)
					if err != nil {
						t.Fatalf("Start: %v", err)
					}
				case "pause":
					snap = s.Pause()
				case "resume":
					snap = s.Resume()
				case "stop":
					snap = s.Stop()
				case "reset":
					snap = s.Reset()
				}
			}
			if snap.State != tt.want {
				t.Errorf("state = %s, want %s", snap.State, tt.want)
			}
		})
	}
}

func TestSession_PermissionDeniedStaysIdle(t *testing.T) {
	device := &fakeDevice{permErr: domain.ErrPermissionDenied}
	s := newTestSession(device, DefaultMaxDuration)

	snap, err := s.Start(context.Background())
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if snap.State != StateIdle {
		t.Errorf("state = %s, want idle", snap.State)
	}
	if opened, _, _ := device.counts(); opened != 0 {
		t.Errorf("microphone opened %d times after denial", opened)
	}
}

func TestSession_PermissionReusedWithinLifetime(t *testing.T) {
	ctx := context.Background()
	device := &fakeDevice{}
	s := newTestSession(device, DefaultMaxDuration)

	for i := 0; i < 3; i++ {
		if _, err := s.Start(ctx); err != nil {
			t.Fatalf("Start #%d: %v", i, err)
		}
		s.Stop()
		s.Reset()
	}

	opened, released, requests := device.counts()
	if requests != 1 {
		t.Errorf("permission requested %d times, want 1", requests)
	}
	if opened != 3 || released != 3 {
		t.Errorf("opened=%d released=%d, want 3/3", opened, released)
	}
}

func TestSession_DeviceUnavailable(t *testing.T) {
	device := &fakeDevice{openErr: domain.ErrDeviceUnavailable}
	s := newTestSession(device, DefaultMaxDuration)

	snap, err := s.Start(context.Background())
	if !errors.Is(err, domain.ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
	if snap.State != StateIdle {
		t.Errorf("state = %s, want idle", snap.State)
	}
}

func TestSession_TickOnlyWhileRecording(t *testing.T) {
	s := newTestSession(&fakeDevice{}, DefaultMaxDuration)

	s.Tick()
	if got := s.Snapshot().ElapsedSeconds; got != 0 {
		t.Fatalf("idle elapsed = %d, want 0", got)
	}

	s.Start(context.Background())
	s.Tick()
	s.Tick()
	s.Pause()
	s.Tick()
	s.Tick()
	s.Resume()
	s.Tick()

	if got := s.Snapshot().ElapsedSeconds; got != 3 {
		t.Errorf("elapsed = %d, want 3", got)
	}
}

func TestSession_ForcedFinishAtMaxDuration(t *testing.T) {
	device := &fakeDevice{}
	s := newTestSession(device, 3*time.Second)
	s.Start(context.Background())
	s.Append([]byte("abc"))

	forced := 0
	for i := 0; i < 5; i++ {
		if s.Tick() {
			forced++
		}
	}

	snap := s.Snapshot()
	if forced != 1 {
		t.Errorf("forced finish happened %d times, want 1", forced)
	}
	if snap.State != StateFinished {
		t.Errorf("state = %s, want finished", snap.State)
	}
	if snap.ElapsedSeconds != 3 || snap.RemainingSeconds != 0 {
		t.Errorf("elapsed=%d remaining=%d, want 3/0", snap.ElapsedSeconds, snap.RemainingSeconds)
	}
	if snap.ArtifactBytes != 3 {
		t.Errorf("artifact bytes = %d, want 3", snap.ArtifactBytes)
	}
	if _, released, _ := device.counts(); released != 1 {
		t.Errorf("released %d times, want 1", released)
	}
}

func TestSession_StopRacingForcedFinish(t *testing.T) {
	for i := 0; i < 200; i++ {
		device := &fakeDevice{}
		s := newTestSession(device, time.Second)
		s.Start(context.Background())

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); s.Tick() }()
		go func() { defer wg.Done(); s.Stop() }()
		wg.Wait()

		opened, released, _ := device.counts()
		if opened != 1 || released != 1 {
			t.Fatalf("iteration %d: opened=%d released=%d, want exactly one release", i, opened, released)
		}
		if st := s.Snapshot().State; st != StateFinished {
			t.Fatalf("iteration %d: state = %s, want finished", i, st)
		}
	}
}

func TestSession_AppendDroppedWhilePaused(t *testing.T) {
	s := newTestSession(&fakeDevice{}, DefaultMaxDuration)
	s.Start(context.Background())

	if ok, _ := s.Append([]byte("ab")); !ok {
		t.Fatal("chunk rejected while recording")
	}
	s.Pause()
	if ok, _ := s.Append([]byte("zz")); ok {
		t.Fatal("chunk accepted while paused")
	}
	s.Resume()
	s.Append([]byte("cd"))
	s.Stop()

	if got := s.Snapshot().ArtifactBytes; got != 4 {
		t.Errorf("artifact bytes = %d, want 4", got)
	}
}

func TestSession_CloseReleasesMicrophone(t *testing.T) {
	for _, pause := range []bool{false, true} {
		device := &fakeDevice{}
		s := newTestSession(device, DefaultMaxDuration)
		s.Start(context.Background())
		if pause {
			s.Pause()
		}

		s.Close()

		if _, released, _ := device.counts(); released != 1 {
			t.Errorf("pause=%v: released %d times, want 1", pause, released)
		}
		if snap := s.Snapshot(); snap.MicrophoneHeld {
			t.Errorf("pause=%v: microphone still held", pause)
		}
	}
}

func TestSession_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected unless finished", func(t *testing.T) {
		s := newTestSession(&fakeDevice{}, DefaultMaxDuration)
		s.Start(ctx)
		_, err := s.Save(ctx, "x", func(context.Context, *Artifact, string) (*models.Creation, error) {
			t.Fatal("saver called while recording")
			return nil, nil
		})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("success returns to idle", func(t *testing.T) {
		s := newTestSession(&fakeDevice{}, DefaultMaxDuration)
		s.Start(ctx)
		s.Append([]byte("audio"))
		s.Stop()

		var gotTitle string
		var gotSize int64
		c, err := s.Save(ctx, "Freestyle", func(_ context.Context, a *Artifact, title string) (*models.Creation, error) {
			gotTitle, gotSize = title, a.Size()
			return &models.Creation{ID: "c1", Title: title}, nil
		})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		if c.ID != "c1" || gotTitle != "Freestyle" || gotSize != 5 {
			t.Errorf("unexpected save: id=%s title=%q size=%d", c.ID, gotTitle, gotSize)
		}
		if snap := s.Snapshot(); snap.State != StateIdle || snap.ArtifactBytes != 0 {
			t.Errorf("after save: %+v", snap)
		}
	})

	t.Run("failure keeps artifact", func(t *testing.T) {
		s := newTestSession(&fakeDevice{}, DefaultMaxDuration)
		s.Start(ctx)
		s.Append([]byte("audio"))
		s.Stop()

		_, err := s.Save(ctx, "x", func(context.Context, *Artifact, string) (*models.Creation, error) {
			return nil, domain.ErrUploadFailed
		})
		if !errors.Is(err, domain.ErrUploadFailed) {
			t.Fatalf("expected ErrUploadFailed, got %v", err)
		}
		if snap := s.Snapshot(); snap.State != StateFinished || snap.ArtifactBytes != 5 {
			t.Errorf("after failed save: %+v", snap)
		}
	})

	t.Run("second save while first in flight", func(t *testing.T) {
		s := newTestSession(&fakeDevice{}, DefaultMaxDuration)
		s.Start(ctx)
		s.Append([]byte("audio"))
		s.Stop()

		entered := make(chan struct{})
		unblock := make(chan struct{})
		done := make(chan error, 1)
		go func() {
			_, err := s.Save(ctx, "first", func(context.Context, *Artifact, string) (*models.Creation, error) {
				close(entered)
				<-unblock
				return &models.Creation{ID: "c1"}, nil
			})
			done <- err
		}()

		<-entered
		_, err := s.Save(ctx, "second", func(context.Context, *Artifact, string) (*models.Creation, error) {
			t.Error("second saver must not run")
			return nil, nil
		})
		if !errors.Is(err, domain.ErrInProgress) {
			t.Errorf("expected ErrInProgress, got %v", err)
		}
		if snap := s.Reset(); snap.State != StateFinished {
			t.Errorf("reset during save changed state to %s", snap.State)
		}

		close(unblock)
		if err := <-done; err != nil {
			t.Fatalf("first save: %v", err)
		}
	})
}
