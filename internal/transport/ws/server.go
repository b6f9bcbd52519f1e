// Package ws streams room events to observers over WebSocket.
//
// An observer connects to the handler with ?room=<id> (or no room for every
// room) and receives each event as one JSON text message. The stream is
// best-effort: a slow observer misses events and must re-fetch the room
// snapshot to reconcile.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mmynk/draftbid/internal/events"
)

const (
	writeTimeout = 5 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 25 * time.Second
)

// Server upgrades observer connections and feeds them from the hub.
type Server struct {
	hub *events.Hub
	log *slog.Logger

	upgrader websocket.Upgrader
	active   atomic.Int64
}

// NewServer creates an observer server over hub.
func NewServer(hub *events.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		hub: hub,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Active returns the number of connected observers.
func (s *Server) Active() int64 {
	return s.active.Load()
}

// Handler returns the HTTP handler for the observer endpoint.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		roomID := r.URL.Query().Get("room")

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.log.Debug("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		sub := s.hub.Subscribe(roomID)
		defer sub.Close()

		s.active.Add(1)
		defer s.active.Add(-1)
		s.log.Info("observer connected", "room_id", roomID, "remote_addr", r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			writeErr <- s.writeLoop(ctx, conn, sub)
		}()

		// Reader loop: observers send nothing, but reading processes pongs
		// and notices the close.
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongTimeout))
		})
		for {
			_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second))

		select {
		case err := <-writeErr:
			if err != nil && ctx.Err() == nil {
				s.log.Debug("observer write failed", "room_id", roomID, "error", err)
			}
		case <-time.After(500 * time.Millisecond):
		}
		s.log.Info("observer disconnected", "room_id", roomID)
	}
}

func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, sub *events.Subscription) error {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub.C:
			if !ok {
				// Hub closed.
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(time.Second))
				return nil
			}
			b, err := json.Marshal(ev)
			if err != nil {
				s.log.Error("failed to encode event", "event", ev.Type, "error", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return err
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return err
			}
		}
	}
}
