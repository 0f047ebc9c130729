package interview

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelay_Push(t *testing.T) {
	conn := &recordingConn{}
	r := NewRelay(conn, 0, nil)

	assert.True(t, r.Push(t.Context(), SystemEvent("hello")))
	assert.Equal(t, int64(1), r.Sent())
	assert.Equal(t, int64(0), r.Dropped())
	assert.Len(t, conn.Events(), 1)
}

func TestRelay_DropsAfterTimeout(t *testing.T) {
	conn := &recordingConn{block: make(chan struct{})}
	r := NewRelay(conn, 20*time.Millisecond, nil)

	start := time.Now()
	assert.False(t, r.Push(t.Context(), QuestionsEvent(nil)))
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int64(1), r.Dropped())
	assert.Empty(t, conn.Events())
}

func TestRelay_Disconnected(t *testing.T) {
	conn := &recordingConn{}
	conn.disconnect()
	r := NewRelay(conn, time.Second, nil)

	assert.False(t, r.Push(t.Context(), SystemEvent("late")))
	assert.Equal(t, int64(1), r.Dropped())
}

func TestRelay_SlowClientStaysConnected(t *testing.T) {
	var (
		mu      sync.Mutex
		written []Event
	)
	conn := NewConn(TransportFunc(func(ctx context.Context, ev Event) error {
		select {
		case <-time.After(300 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
		mu.Lock()
		written = append(written, ev)
		mu.Unlock()
		return nil
	}))
	defer conn.Close()
	r := NewRelay(conn, 100*time.Millisecond, nil)

	assert.False(t, r.Push(t.Context(), SystemEvent("x")))
	assert.False(t, conn.Disconnected())
	assert.Equal(t, int64(1), r.Dropped())

	// The write already under way still reaches the client.
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(written) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.False(t, conn.Disconnected())
	require.NoError(t, conn.Send(t.Context(), SystemEvent("y")))
}
