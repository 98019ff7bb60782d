package sse

import (
	"log/slog"
	"sync"
	"time"
)

// KeepAliveStrategy sends keep-alive pings for the lifetime of a stream.
type KeepAliveStrategy interface {
	// Start begins pinging through writer. The returned channel closes when
	// pinging ends, either on Stop or on the first failed write.
	Start(writer KeepAliveWriter, logger *slog.Logger) <-chan struct{}

	// Stop ends pinging and waits for an in-flight write to return, so the
	// writer is unused once Stop returns. Safe to call more than once.
	Stop()
}

// KeepAliveWriter writes a single keep-alive message.
type KeepAliveWriter interface {
	WriteKeepAlive() error
}

// TickerKeepAlive pings at a fixed interval.
type TickerKeepAlive struct {
	interval time.Duration
	done     chan struct{}
	once     sync.Once
	exited   chan struct{}
}

// NewTickerKeepAlive creates a keep-alive that pings every interval.
func NewTickerKeepAlive(interval time.Duration) *TickerKeepAlive {
	return &TickerKeepAlive{
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (k *TickerKeepAlive) Start(writer KeepAliveWriter, logger *slog.Logger) <-chan struct{} {
	ticker := time.NewTicker(k.interval)
	stopped := make(chan struct{})
	k.exited = stopped

	go func() {
		defer close(stopped)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := writer.WriteKeepAlive(); err != nil {
					logger.Debug("keep-alive write failed, stopping", "error", err)
					return
				}
			case <-k.done:
				return
			}
		}
	}()

	return stopped
}

func (k *TickerKeepAlive) Stop() {
	k.once.Do(func() { close(k.done) })
	if k.exited != nil {
		<-k.exited
	}
}
