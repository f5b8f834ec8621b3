package server

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// stubConn is a messageConn that records writes and never blocks.
type stubConn struct {
	mu     sync.Mutex
	writes [][]byte
	closed bool
}

func (c *stubConn) ReadMessage() ([]byte, error) {
	return nil, errors.New("no data")
}

func (c *stubConn) WriteMessage(data []byte, _ time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, data)
	return nil
}

func (c *stubConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *stubConn) RemoteAddr() string { return "stub" }

func (c *stubConn) writeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

func (c *stubConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func newStubSession(queueSize int) (*session, *stubConn) {
	conn := &stubConn{}
	return newSession(conn, queueSize), conn
}

func TestRegistryAssignTwoSeatsThenFull(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	s1, _ := newStubSession(4)
	s2, _ := newStubSession(4)
	s3, _ := newStubSession(4)

	seat, reconnect, ok := r.assign(s1)
	require.True(t, ok)
	assert.Equal(t, 1, seat)
	assert.False(t, reconnect)

	seat, reconnect, ok = r.assign(s2)
	require.True(t, ok)
	assert.Equal(t, 2, seat)
	assert.False(t, reconnect)

	_, _, ok = r.assign(s3)
	assert.False(t, ok, "third connection is rejected")
	assert.Equal(t, []int{1, 2}, r.ConnectedSeats())
}

func TestRegistryReassignIsReconnect(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	s1, _ := newStubSession(4)
	seat, _, ok := r.assign(s1)
	require.True(t, ok)

	require.True(t, r.release(seat, s1))
	assert.Empty(t, r.ConnectedSeats())

	s2, _ := newStubSession(4)
	seat2, reconnect, ok := r.assign(s2)
	require.True(t, ok)
	assert.Equal(t, seat, seat2, "the freed seat is reused")
	assert.True(t, reconnect, "a previously used seat reports a reconnect")
}

func TestRegistryReleaseIdentityChecked(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	old, _ := newStubSession(4)
	seat, _, ok := r.assign(old)
	require.True(t, ok)
	require.True(t, r.release(seat, old))

	// The seat now belongs to a new session; the old session's late release
	// must not evict it.
	replacement, _ := newStubSession(4)
	seat2, _, ok := r.assign(replacement)
	require.True(t, ok)
	require.Equal(t, seat, seat2)

	assert.False(t, r.release(seat, old))
	assert.Equal(t, []int{seat}, r.ConnectedSeats())
}

func TestRegistrySendToEmptySeatDropped(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	r.Send(1, []byte("x")) // no panic, nothing to assert beyond that
	r.Send(0, []byte("x"))
	r.Send(99, []byte("x"))
}

func TestRegistrySendOverflowClosesSession(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	s, conn := newStubSession(1)
	_, _, ok := r.assign(s)
	require.True(t, ok)

	r.Send(1, []byte("first"))  // fills the queue
	r.Send(1, []byte("second")) // overflow: the session is dropped

	select {
	case <-s.closed:
	default:
		t.Fatal("overflowing session was not closed")
	}
	assert.True(t, conn.isClosed())
}

func TestRegistryBroadcastReachesAllSeats(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	s1, _ := newStubSession(4)
	s2, _ := newStubSession(4)
	_, _, ok := r.assign(s1)
	require.True(t, ok)
	_, _, ok = r.assign(s2)
	require.True(t, ok)

	r.Broadcast([]byte("hello"))

	assert.Len(t, s1.outbound, 1)
	assert.Len(t, s2.outbound, 1)
}

func TestSessionWriteLoopDrainsAndStopsOnClose(t *testing.T) {
	s, conn := newStubSession(4)
	require.True(t, s.enqueue([]byte("a")))
	require.True(t, s.enqueue([]byte("b")))

	done := make(chan error, 1)
	go func() { done <- s.writeLoop(time.Second) }()

	assert.Eventually(t, func() bool {
		return conn.writeCount() == 2
	}, time.Second, 5*time.Millisecond)

	s.close()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("write loop did not stop on close")
	}
}

func TestSessionEnqueueAfterCloseIsDropped(t *testing.T) {
	s, _ := newStubSession(1)
	s.close()
	assert.True(t, s.enqueue([]byte("late")), "drops silently instead of reporting overflow")
	assert.Empty(t, s.outbound)
}
