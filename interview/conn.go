package interview

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/safal938/nurse-sim/logging"
)

var (
	// ErrClosed is returned by Send after Close.
	ErrClosed = errors.New("connection closed")
	// ErrDisconnected is returned by Send once the client has gone away.
	ErrDisconnected = errors.New("client disconnected")
)

// Connection is the outbound side of a client session as seen by the
// orchestrator, the turn controller and the relay.
type Connection interface {
	// Send delivers ev or returns an error. It never blocks past ctx.
	Send(ctx context.Context, ev Event) error
	// Disconnected reports whether the client has gone away.
	Disconnected() bool
}

// Transport writes one serialized event to the client.
type Transport interface {
	Write(ctx context.Context, ev Event) error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, ev Event) error

// Write implements Transport.
func (f TransportFunc) Write(ctx context.Context, ev Event) error { return f(ctx, ev) }

// ConnOptions configure a Conn.
type ConnOptions struct {
	// QueueSize is the number of sends that may wait for the writer.
	QueueSize int
	// WriteTimeout bounds a single transport write.
	WriteTimeout time.Duration
	Logger       logging.Logger
}

type delivery struct {
	ctx    context.Context
	ev     Event
	result chan error
}

// Conn serializes writes from any number of goroutines onto one Transport.
// A single writer goroutine owns the transport; callers hand it events and
// wait for the outcome. A failed write marks the connection disconnected.
type Conn struct {
	transport    Transport
	opts         ConnOptions
	queue        chan delivery
	done         chan struct{}
	stopped      chan struct{}
	closeOnce    sync.Once
	disconnected atomic.Bool
}

// NewConn starts the writer goroutine for t.
func NewConn(t Transport, optFns ...func(o *ConnOptions)) *Conn {
	opts := ConnOptions{QueueSize: 64, WriteTimeout: 10 * time.Second, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	c := &Conn{
		transport: t,
		opts:      opts,
		queue:     make(chan delivery, opts.QueueSize),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go c.writeLoop()
	return c
}

func (c *Conn) writeLoop() {
	defer close(c.stopped)
	for {
		select {
		case <-c.done:
			return
		case d := <-c.queue:
			d.result <- c.write(d)
		}
	}
}

func (c *Conn) write(d delivery) error {
	if err := d.ctx.Err(); err != nil {
		return err
	}
	if c.disconnected.Load() {
		return ErrDisconnected
	}
	// The caller's deadline bounds its wait only; a started write is
	// bounded by WriteTimeout.
	ctx := context.WithoutCancel(d.ctx)
	if c.opts.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.WriteTimeout)
		defer cancel()
	}
	if err := c.transport.Write(ctx, d.ev); err != nil {
		c.opts.Logger.Debug("client write failed", "type", d.ev.Type, "error", err)
		c.MarkDisconnected()
		return err
	}
	return nil
}

// Send queues ev for the writer and waits for the result. If ctx ends
// before the write starts the event is dropped unwritten; if it ends during
// the write, Send returns ctx.Err() while the write finishes in the
// background.
func (c *Conn) Send(ctx context.Context, ev Event) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	if c.disconnected.Load() {
		return ErrDisconnected
	}
	d := delivery{ctx: ctx, ev: ev, result: make(chan error, 1)}
	select {
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case c.queue <- d:
	}
	select {
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case err := <-d.result:
		return err
	}
}

// MarkDisconnected records that the client went away. Further sends fail
// fast with ErrDisconnected.
func (c *Conn) MarkDisconnected() { c.disconnected.Store(true) }

// Disconnected implements Connection.
func (c *Conn) Disconnected() bool { return c.disconnected.Load() }

// Close stops the writer and waits for it to exit. Pending sends return
// ErrClosed. Close is idempotent.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.MarkDisconnected()
		close(c.done)
	})
	<-c.stopped
	return nil
}
