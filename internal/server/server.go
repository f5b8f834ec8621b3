package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/cardnet/cardnet-server-go/internal/game"
)

// Config carries the transport settings.
type Config struct {
	TCPAddress        string
	WebSocketAddress  string
	WriteTimeout      time.Duration
	OutboundQueueSize int
}

// Server accepts client connections over TCP and WebSocket and bridges them
// to the engine: reads enqueue commands, writes drain the per-seat queue.
type Server struct {
	log      *zap.Logger
	cfg      Config
	engine   *game.Engine
	registry *Registry
}

// New builds a server over an engine and its seat registry.
func New(cfg Config, engine *game.Engine, registry *Registry, log *zap.Logger) *Server {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.OutboundQueueSize <= 0 {
		cfg.OutboundQueueSize = 64
	}
	return &Server{log: log, cfg: cfg, engine: engine, registry: registry}
}

// ListenTCP serves the line-delimited JSON protocol until the context is
// canceled.
func (s *Server) ListenTCP(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.cfg.TCPAddress)
	if err != nil {
		return fmt.Errorf("listen tcp: %w", err)
	}
	go func() {
		<-ctx.Done()
		lis.Close()
	}()
	s.log.Info("TCP server listening", zap.String("address", s.cfg.TCPAddress))

	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.serveConn(newTCPConn(conn))
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Game clients connect from arbitrary origins (desktop client, web demo).
	CheckOrigin: func(*http.Request) bool { return true },
}

// ListenWebSocket serves the same message protocol over WebSocket, one JSON
// object per text frame.
func (s *Server) ListenWebSocket(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		s.serveConn(newWSConn(conn))
	})

	srv := &http.Server{Addr: s.cfg.WebSocketAddress, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Info("WebSocket server listening", zap.String("address", s.cfg.WebSocketAddress))

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("websocket server: %w", err)
	}
	return nil
}

// serveConn seats the connection and runs its read loop. The write loop runs
// in its own goroutine; either side failing tears the session down and
// notifies the engine.
func (s *Server) serveConn(conn messageConn) {
	sess := newSession(conn, s.cfg.OutboundQueueSize)
	remote := conn.RemoteAddr()

	seat, reconnect, ok := s.registry.assign(sess)
	if !ok {
		s.log.Warn("connection rejected, all seats taken", zap.String("remote", remote))
		if data, err := game.EncodeMessage(game.EventGameFull, nil); err == nil {
			_ = conn.WriteMessage(data, time.Now().Add(s.cfg.WriteTimeout))
		}
		sess.close()
		return
	}
	s.log.Info("client connected",
		zap.String("remote", remote),
		zap.Int("seat", seat),
		zap.Bool("reconnect", reconnect),
	)

	go func() {
		if err := sess.writeLoop(s.cfg.WriteTimeout); err != nil {
			s.log.Warn("write fault",
				zap.String("remote", remote),
				zap.Int("seat", seat),
				zap.Error(err),
			)
			sess.close()
		}
	}()

	s.engine.Connect(seat, reconnect)

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if len(data) == 0 {
			continue
		}
		s.engine.Enqueue(seat, data)
	}

	sess.close()
	if s.registry.release(seat, sess) {
		s.engine.Disconnect(seat)
	}
	s.log.Info("client disconnected", zap.String("remote", remote), zap.Int("seat", seat))
}
