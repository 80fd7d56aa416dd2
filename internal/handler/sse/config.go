package sse

import "time"

// Config tunes dashboard event streams.
type Config struct {
	// KeepAliveInterval must stay below the idle timeout of any proxy in
	// front of the server.
	KeepAliveInterval time.Duration

	// MaxDuration closes a stream after this long; clients reconnect.
	// Zero means no limit.
	MaxDuration time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		KeepAliveInterval: 10 * time.Second,
		MaxDuration:       30 * time.Minute,
	}
}
