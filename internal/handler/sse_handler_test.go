package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"plume/internal/domain/models"
	"plume/internal/service/ai"
)

type sseEvent struct {
	name string
	data string
}

// readEvents parses the stream into events until it ends.
func readEvents(body *bufio.Reader, out chan<- sseEvent) {
	defer close(out)
	var ev sseEvent
	for {
		line, err := body.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if ev.name != "" {
				out <- ev
			}
			ev = sseEvent{}
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func nextEvent(t *testing.T, events <-chan sseEvent) (string, refreshPayload) {
	t.Helper()
	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatal("stream ended")
		}
		var payload refreshPayload
		if err := json.Unmarshal([]byte(ev.data), &payload); err != nil {
			t.Fatalf("decode %s: %v", ev.data, err)
		}
		return ev.name, payload
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return "", refreshPayload{}
}

func TestStreamCreations(t *testing.T) {
	s := newTestServer(t, ai.NewLoremGenerator())
	srv := httptest.NewServer(s.handler)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, "GET", srv.URL+"/api/creations/stream?scope=mine&access_token="+alice, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "text/event-stream" {
		t.Fatalf("status %d, content type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	events := make(chan sseEvent, 4)
	go readEvents(bufio.NewReader(resp.Body), events)

	name, payload := nextEvent(t, events)
	if name != eventSnapshot || len(payload.Creations) != 0 {
		t.Fatalf("first event %s with %d creations", name, len(payload.Creations))
	}

	// Someone else's change is not in this list
	s.do(t, "POST", "/api/creations", bob, map[string]string{"title": "Bob", "body": "b"})

	expectStatus(t, s.do(t, "POST", "/api/creations", alice, map[string]string{"title": "Alice", "body": "a"}), http.StatusCreated)

	name, payload = nextEvent(t, events)
	if name != eventRefresh || payload.Event == nil || payload.Event.Type != models.EventCreated {
		t.Fatalf("got %s %+v", name, payload.Event)
	}
	if len(payload.Creations) != 1 || payload.Creations[0].AuthorID != "alice" {
		t.Errorf("refreshed list = %+v", payload.Creations)
	}
}

func TestStreamCreationsRejectsUnknownScope(t *testing.T) {
	s := newTestServer(t, ai.NewLoremGenerator())

	expectStatus(t, s.do(t, "GET", "/api/creations/stream?scope=everyone", alice, nil), http.StatusBadRequest)
	expectStatus(t, s.do(t, "GET", "/api/creations/stream", "", nil), http.StatusUnauthorized)
	if s.hub.Len() != 0 {
		t.Errorf("subscribers left: %d", s.hub.Len())
	}
}
