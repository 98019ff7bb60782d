package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"plume/internal/domain"
)

func TestMemoryGuard(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGuard()

	release, err := g.Acquire(ctx, "save:alice:k1", time.Minute)
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	if _, err := g.Acquire(ctx, "save:alice:k1", time.Minute); !errors.Is(err, domain.ErrInProgress) {
		t.Fatalf("expected ErrInProgress, got %v", err)
	}
	if _, err := g.Acquire(ctx, "save:alice:k2", time.Minute); err != nil {
		t.Fatalf("independent key: %v", err)
	}

	release()
	release()

	if _, err := g.Acquire(ctx, "save:alice:k1", time.Minute); err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
}

func TestMemoryGuard_Expiry(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGuard()

	stale, _ := g.Acquire(ctx, "k", 20*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	if _, err := g.Acquire(ctx, "k", time.Minute); err != nil {
		t.Fatalf("expired marker still blocks: %v", err)
	}

	// Releasing the stale holder must not drop the new one
	stale()
	if _, err := g.Acquire(ctx, "k", time.Minute); !errors.Is(err, domain.ErrInProgress) {
		t.Errorf("expected ErrInProgress after stale release, got %v", err)
	}
}
