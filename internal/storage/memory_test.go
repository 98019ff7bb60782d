package storage

import (
	"context"
	"strings"
	"testing"
)

func TestMemoryStore_PutRemove(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("http://localhost:8080/blobs/")

	if err := s.Put(ctx, "audio/u1/a.webm", strings.NewReader("abc"), 3, "audio/webm"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	url, err := s.URL(ctx, "audio/u1/a.webm")
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	if url != "http://localhost:8080/blobs/audio/u1/a.webm" {
		t.Errorf("url = %s", url)
	}

	data, ct, ok := s.Get("audio/u1/a.webm")
	if !ok || string(data) != "abc" || ct != "audio/webm" {
		t.Errorf("Get = %q %q %v", data, ct, ok)
	}

	if err := s.Remove(ctx, "audio/u1/a.webm"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(ctx, "audio/u1/a.webm"); err != nil {
		t.Errorf("removing a missing key should succeed: %v", err)
	}
	if len(s.Keys()) != 0 {
		t.Errorf("keys left: %v", s.Keys())
	}
	if _, err := s.URL(ctx, "audio/u1/a.webm"); err == nil {
		t.Error("URL of a removed object should fail")
	}
}
