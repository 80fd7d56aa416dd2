package sse

import (
	"log/slog"
	"sync"
	"time"
)

// KeepAliveWriter writes an SSE comment line.
type KeepAliveWriter interface {
	WriteKeepAlive() error
}

// TickerKeepAlive pings a stream at a fixed interval so proxies do not close
// an idle countdown connection.
type TickerKeepAlive struct {
	interval time.Duration
	done     chan struct{}
	once     sync.Once
}

func NewTickerKeepAlive(interval time.Duration) *TickerKeepAlive {
	return &TickerKeepAlive{interval: interval, done: make(chan struct{})}
}

// Start pings writer until Stop is called or a write fails. The returned
// channel closes when pinging has ended, so a handler can notice a dropped
// client even while no events are flowing.
func (k *TickerKeepAlive) Start(writer KeepAliveWriter, logger *slog.Logger) <-chan struct{} {
	ended := make(chan struct{})
	ticker := time.NewTicker(k.interval)

	go func() {
		defer close(ended)
		defer ticker.Stop()
		for {
			select {
			case <-k.done:
				return
			case <-ticker.C:
				if err := writer.WriteKeepAlive(); err != nil {
					logger.Debug("keep-alive failed, client gone", "error", err)
					return
				}
			}
		}
	}()
	return ended
}

// Stop ends pinging. Safe to call more than once.
func (k *TickerKeepAlive) Stop() {
	k.once.Do(func() { close(k.done) })
}
