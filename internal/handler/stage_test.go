package handler

import (
	"net/http"
	"strings"
	"testing"

	"plume/internal/domain/models"
	"plume/internal/service/ai"
	"plume/internal/stage"
)

func TestStageRecordAndSave(t *testing.T) {
	s := newTestServer(t, ai.NewLoremGenerator())

	rec := s.do(t, "POST", "/api/stage/sessions", alice, nil)
	expectStatus(t, rec, http.StatusCreated)
	snap := decode[stage.Snapshot](t, rec)
	if snap.State != stage.StateIdle {
		t.Fatalf("opened in %s", snap.State)
	}
	path := "/api/stage/sessions/" + snap.ID

	// Another user cannot drive the session
	expectStatus(t, s.do(t, "POST", path+"/stop", bob, nil), http.StatusForbidden)

	rec = s.do(t, "POST", path+"/start", alice, map[string]string{"permission": "denied"})
	expectStatus(t, rec, http.StatusForbidden)
	if problem := decode[map[string]interface{}](t, rec); problem["code"] != "permission_denied" {
		t.Errorf("problem = %v", problem)
	}
	if s.device.OpenHandles() != 0 {
		t.Error("microphone held after denial")
	}

	rec = s.do(t, "POST", path+"/start", alice, map[string]string{"permission": "granted"})
	expectStatus(t, rec, http.StatusOK)
	if snap := decode[stage.Snapshot](t, rec); snap.State != stage.StateRecording || !snap.MicrophoneHeld {
		t.Fatalf("after start: %+v", snap)
	}

	for _, chunk := range []string{"abc", "def"} {
		rec = s.do(t, "POST", path+"/chunks", alice, []byte(chunk))
		expectStatus(t, rec, http.StatusOK)
		if got := decode[chunkResponse](t, rec); !got.Accepted {
			t.Errorf("chunk %q not accepted", chunk)
		}
	}

	// Paused audio is dropped
	expectStatus(t, s.do(t, "POST", path+"/pause", alice, nil), http.StatusOK)
	if got := decode[chunkResponse](t, s.do(t, "POST", path+"/chunks", alice, []byte("zzz"))); got.Accepted {
		t.Error("chunk accepted while paused")
	}
	expectStatus(t, s.do(t, "POST", path+"/resume", alice, nil), http.StatusOK)

	rec = s.do(t, "POST", path+"/stop", alice, nil)
	if snap := decode[stage.Snapshot](t, rec); snap.State != stage.StateFinished || snap.ArtifactBytes != 6 {
		t.Fatalf("after stop: %+v", snap)
	}
	if s.device.OpenHandles() != 0 {
		t.Error("microphone held after stop")
	}

	rec = s.do(t, "POST", path+"/save", alice, map[string]string{"title": "Freestyle"})
	expectStatus(t, rec, http.StatusCreated)
	saved := decode[models.Creation](t, rec)
	if saved.Kind != models.KindAudio || saved.Status != models.StatusDraft || saved.AudioRef == nil {
		t.Fatalf("saved = %+v", saved)
	}
	if !strings.HasPrefix(*saved.AudioRef, "audio/alice/") {
		t.Errorf("audio ref = %s", *saved.AudioRef)
	}

	rec = s.do(t, "GET", "/blobs/"+*saved.AudioRef, "", nil)
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "abcdef" {
		t.Errorf("blob = %q", rec.Body.String())
	}

	if snap := decode[stage.Snapshot](t, s.do(t, "GET", path, alice, nil)); snap.State != stage.StateIdle {
		t.Errorf("after save: %s", snap.State)
	}

	// Nothing left to save
	expectStatus(t, s.do(t, "POST", path+"/save", alice, map[string]string{"title": "again"}), http.StatusBadRequest)

	expectStatus(t, s.do(t, "DELETE", path, alice, nil), http.StatusNoContent)
	expectStatus(t, s.do(t, "GET", path, alice, nil), http.StatusNotFound)
}

func TestStageNavigateAwayReleasesMicrophone(t *testing.T) {
	s := newTestServer(t, ai.NewLoremGenerator())

	snap := decode[stage.Snapshot](t, s.do(t, "POST", "/api/stage/sessions", alice, nil))
	path := "/api/stage/sessions/" + snap.ID

	expectStatus(t, s.do(t, "POST", path+"/start", alice, map[string]string{"permission": "granted"}), http.StatusOK)
	s.do(t, "POST", path+"/chunks", alice, []byte("audio"))
	if s.device.OpenHandles() != 1 {
		t.Fatalf("open handles = %d, want 1", s.device.OpenHandles())
	}

	expectStatus(t, s.do(t, "DELETE", path, alice, nil), http.StatusNoContent)
	if s.device.OpenHandles() != 0 {
		t.Errorf("open handles = %d after leaving the stage", s.device.OpenHandles())
	}
	if len(s.store.Keys()) != 0 {
		t.Error("abandoned recording was uploaded")
	}
}

func TestStageUnavailableDevice(t *testing.T) {
	s := newTestServer(t, ai.NewLoremGenerator())

	snap := decode[stage.Snapshot](t, s.do(t, "POST", "/api/stage/sessions", alice, nil))
	rec := s.do(t, "POST", "/api/stage/sessions/"+snap.ID+"/start", alice, map[string]string{"permission": "unavailable"})
	expectStatus(t, rec, http.StatusConflict)
	if problem := decode[map[string]interface{}](t, rec); problem["code"] != "device_unavailable" {
		t.Errorf("problem = %v", problem)
	}
}
