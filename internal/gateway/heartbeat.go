package gateway

import (
	"context"
	"log"
	"time"

	"github.com/whisper/replybot/internal/protocol"
)

// HeartbeatConfig holds heartbeat tuning parameters.
type HeartbeatConfig struct {
	Interval time.Duration // how often to ping (default: 30s)
	Timeout  time.Duration // max time to wait for any frame after a ping (default: 10s)
}

// DefaultHeartbeatConfig returns sensible defaults for heartbeat monitoring.
func DefaultHeartbeatConfig() HeartbeatConfig {
	return HeartbeatConfig{
		Interval: 30 * time.Second,
		Timeout:  10 * time.Second,
	}
}

// heartbeat pings the gateway every Interval and closes the connection when
// nothing has been read for Interval + Timeout. Closing unblocks the read
// loop, which then ends Run with an error.
func (c *Client) heartbeat(ctx context.Context, s *socket) {
	cfg := c.config.Heartbeat
	if cfg.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	deadline := cfg.Interval + cfg.Timeout
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			idle := time.Since(time.Unix(0, s.lastSeen.Load()))
			if idle > deadline {
				log.Printf("[gateway] heartbeat timeout last_activity=%s ago", idle.Round(time.Second))
				s.close()
				return
			}

			data, err := protocol.NewClientMessage(protocol.TypePing, protocol.PingMsg{})
			if err != nil {
				log.Printf("[gateway] failed to build ping: %v", err)
				continue
			}
			if err := s.write(data); err != nil {
				log.Printf("[gateway] heartbeat ping failed: %v", err)
				s.close()
				return
			}
		}
	}
}
