package sse

import "time"

const (
	defaultKeepAlive = 10 * time.Second // below the usual 30s proxy idle cutoff
	defaultRetry     = 3 * time.Second
)

// Config tunes live streams. A zero RetryInterval sends no retry field, so
// the browser keeps its own reconnect delay.
type Config struct {
	KeepAliveInterval time.Duration
	RetryInterval     time.Duration
}

func DefaultConfig() *Config {
	return New(defaultKeepAlive, defaultRetry)
}

// New builds a Config; a non-positive keep-alive falls back to the default
// since a stream without one is cut by proxies.
func New(keepAlive, retry time.Duration) *Config {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	if retry < 0 {
		retry = 0
	}
	return &Config{KeepAliveInterval: keepAlive, RetryInterval: retry}
}
