package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"plume/internal/domain"
	"plume/internal/domain/repositories"
)

// MemoryGuard is the single-instance InFlightGuard. Markers expire on
// their own if a holder never releases.
type MemoryGuard struct {
	mu      sync.Mutex // pairs the token check with the delete on release
	markers *gocache.Cache
	seq     atomic.Uint64
}

// NewMemoryGuard creates an empty guard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{markers: gocache.New(gocache.NoExpiration, time.Minute)}
}

var _ repositories.InFlightGuard = (*MemoryGuard)(nil)

func (g *MemoryGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	token := g.seq.Add(1)
	g.mu.Lock()
	err := g.markers.Add(key, token, ttl)
	g.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, domain.ErrInProgress)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if held, ok := g.markers.Get(key); ok && held.(uint64) == token {
				g.markers.Delete(key)
			}
		})
	}, nil
}
