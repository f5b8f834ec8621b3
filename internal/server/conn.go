package server

import (
	"bufio"
	"bytes"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// messageConn is one client connection carrying whole JSON messages,
// independent of the framing underneath (newline on TCP, one text frame on
// WebSocket).
type messageConn interface {
	// ReadMessage blocks for the next complete message.
	ReadMessage() ([]byte, error)
	// WriteMessage writes one message, giving up at the deadline.
	WriteMessage(data []byte, deadline time.Time) error
	Close() error
	RemoteAddr() string
}

// session pairs a connection with its bounded outbound queue. The write loop
// is the only goroutine that touches the connection for writing.
type session struct {
	id       string
	conn     messageConn
	outbound chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func newSession(conn messageConn, queueSize int) *session {
	return &session{
		id:       uuid.NewString(),
		conn:     conn,
		outbound: make(chan []byte, queueSize),
		closed:   make(chan struct{}),
	}
}

// enqueue queues an outbound message without blocking. Returns false when the
// queue is full.
func (s *session) enqueue(data []byte) bool {
	select {
	case <-s.closed:
		return true // silently dropped, session is going away
	default:
	}
	select {
	case s.outbound <- data:
		return true
	default:
		return false
	}
}

// writeLoop drains the outbound queue onto the connection. Every write
// carries a deadline so a stalled client cannot pin the loop. Returns the
// first write error, or nil on a clean close.
func (s *session) writeLoop(timeout time.Duration) error {
	for {
		select {
		case <-s.closed:
			return nil
		case data := <-s.outbound:
			if err := s.conn.WriteMessage(data, time.Now().Add(timeout)); err != nil {
				return err
			}
		}
	}
}

// close shuts the session down once; the underlying close unblocks both the
// read and write loops.
func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.conn.Close()
	})
}

// tcpConn frames one JSON object per newline-terminated line.
type tcpConn struct {
	conn   net.Conn
	reader *bufio.Reader
}

func newTCPConn(conn net.Conn) *tcpConn {
	return &tcpConn{conn: conn, reader: bufio.NewReader(conn)}
}

func (c *tcpConn) ReadMessage() ([]byte, error) {
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	return bytes.TrimSpace(line), nil
}

func (c *tcpConn) WriteMessage(data []byte, deadline time.Time) error {
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	buf := make([]byte, 0, len(data)+1)
	buf = append(buf, data...)
	buf = append(buf, '\n')
	_, err := c.conn.Write(buf)
	return err
}

func (c *tcpConn) Close() error {
	return c.conn.Close()
}

func (c *tcpConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// wsConn frames one JSON object per text frame.
type wsConn struct {
	conn *websocket.Conn
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn}
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) WriteMessage(data []byte, deadline time.Time) error {
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

func (c *wsConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
