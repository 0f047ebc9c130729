package interview

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/safal938/nurse-sim/logging"
)

// DefaultDeliveryTimeout bounds how long a relayed event may wait for the
// client connection.
const DefaultDeliveryTimeout = time.Second

// Relay lets the background monitor push events to the client without
// ever stalling on it. Delivery is best effort: an event that cannot be
// written within the timeout is dropped and counted.
type Relay struct {
	conn    Connection
	timeout time.Duration
	logger  logging.Logger
	sent    atomic.Int64
	dropped atomic.Int64
}

// NewRelay creates a relay onto conn. A non-positive timeout selects
// DefaultDeliveryTimeout.
func NewRelay(conn Connection, timeout time.Duration, logger logging.Logger) *Relay {
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Relay{conn: conn, timeout: timeout, logger: logger}
}

// Push delivers ev and reports whether it reached the client.
func (r *Relay) Push(ctx context.Context, ev Event) bool {
	if r.conn.Disconnected() {
		r.dropped.Add(1)
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.conn.Send(ctx, ev); err != nil {
		r.dropped.Add(1)
		r.logger.Debug("relay dropped event", "type", ev.Type, "error", err)
		return false
	}
	r.sent.Add(1)
	return true
}

// Sent returns the number of delivered events.
func (r *Relay) Sent() int64 { return r.sent.Load() }

// Dropped returns the number of events given up on.
func (r *Relay) Dropped() int64 { return r.dropped.Load() }
