// Package server owns everything between the sockets and the engine: the
// fixed two-seat session registry, the line-delimited JSON TCP transport, and
// the same protocol served over WebSocket. It never mutates game state; it
// only enqueues inbound messages and drains outbound ones.
package server

import (
	"sync"

	"go.uber.org/zap"

	"github.com/cardnet/cardnet-server-go/internal/game"
)

type seatState struct {
	session *session
	used    bool // seat was occupied at some point this process
}

// Registry maps the fixed seat numbers to live sessions. It implements
// game.Transport; the engine only ever asks it to send and to list connected
// seats.
type Registry struct {
	mu    sync.RWMutex
	log   *zap.Logger
	seats [game.NumSeats + 1]seatState // index 0 unused, seats are 1-based
}

// NewRegistry returns an empty seat table.
func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{log: log}
}

// assign seats a session in the first available disconnected slot. reconnect
// is true when the slot was occupied earlier. ok is false when both seats are
// taken.
func (r *Registry) assign(s *session) (seat int, reconnect bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 1; i <= game.NumSeats; i++ {
		if r.seats[i].session != nil {
			continue
		}
		reconnect = r.seats[i].used
		r.seats[i].session = s
		r.seats[i].used = true
		return i, reconnect, true
	}
	return 0, false, false
}

// release frees a seat, but only if the given session still holds it; a
// racing reconnect keeps the new session. Reports whether the seat was
// actually released.
func (r *Registry) release(seat int, s *session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seat < 1 || seat > game.NumSeats || r.seats[seat].session != s {
		return false
	}
	r.seats[seat].session = nil
	return true
}

// Send queues a message for one seat. Messages to empty seats are dropped. A
// session whose outbound queue is full is treated as stalled and closed; the
// engine tick must never wait on a slow client.
func (r *Registry) Send(seat int, data []byte) {
	r.mu.RLock()
	var s *session
	if seat >= 1 && seat <= game.NumSeats {
		s = r.seats[seat].session
	}
	r.mu.RUnlock()
	if s == nil {
		return
	}
	if !s.enqueue(data) {
		r.log.Warn("outbound queue overflow, dropping session",
			zap.Int("seat", seat),
			zap.String("remote", s.conn.RemoteAddr()),
		)
		s.close()
	}
}

// Broadcast queues a message for every connected seat.
func (r *Registry) Broadcast(data []byte) {
	for _, seat := range r.ConnectedSeats() {
		r.Send(seat, data)
	}
}

// ConnectedSeats lists the occupied seats in ascending order.
func (r *Registry) ConnectedSeats() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []int
	for i := 1; i <= game.NumSeats; i++ {
		if r.seats[i].session != nil {
			out = append(out, i)
		}
	}
	return out
}
