package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// channelName is the Postgres NOTIFY channel the schema triggers publish on.
const channelName = "freightdeck_changes"

const (
	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	pingInterval         = 90 * time.Second
)

// Listener bridges Postgres LISTEN/NOTIFY into the hub.
type Listener struct {
	databaseURL string
	hub         *Hub
	logger      *slog.Logger
}

// NewListener constructs a Listener. Run starts it.
func NewListener(databaseURL string, hub *Hub, logger *slog.Logger) *Listener {
	return &Listener{
		databaseURL: databaseURL,
		hub:         hub,
		logger:      logger,
	}
}

// Run listens for notifications until the context is cancelled. Connection
// drops are retried by the underlying pq listener; notifications raised while
// disconnected are lost, which subscribers must tolerate.
func (l *Listener) Run(ctx context.Context) error {
	pl := pq.NewListener(l.databaseURL, minReconnectInterval, maxReconnectInterval,
		func(event pq.ListenerEventType, err error) {
			if err != nil {
				l.logger.Warn("change feed listener event", "event", int(event), "error", err)
			}
		})
	defer pl.Close()

	if err := pl.Listen(channelName); err != nil {
		return fmt.Errorf("listen on %s: %w", channelName, err)
	}
	l.logger.Info("change feed listener started", "channel", channelName)

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-pl.Notify:
			// A nil notification signals a re-established connection.
			if n == nil {
				continue
			}
			ev, err := parseEvent([]byte(n.Extra))
			if err != nil {
				l.logger.Warn("skipping malformed change notification", "error", err)
				continue
			}
			l.hub.Publish(ev)
		case <-ping.C:
			if err := pl.Ping(); err != nil {
				l.logger.Warn("change feed ping failed", "error", err)
			}
		}
	}
}

func parseEvent(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, fmt.Errorf("decode change payload: %w", err)
	}
	if ev.Table == "" {
		return Event{}, fmt.Errorf("change payload missing table")
	}
	return ev, nil
}
