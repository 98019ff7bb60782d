package repositories

import (
	"context"
	"time"
)

// InFlightGuard suppresses duplicate submissions of the same operation.
type InFlightGuard interface {
	// Acquire claims key for at most ttl. Returns domain.ErrInProgress while
	// another holder has it. release is safe to call more than once.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}
