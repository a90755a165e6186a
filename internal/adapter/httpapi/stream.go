package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/echoverse/echoverse/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	streamBuffer   = 256
)

// eventMessage is the JSON envelope of a streamed event.
type eventMessage struct {
	Type      domain.EventType `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Data      domain.Event     `json:"data"`
}

// handleEvents upgrades to a websocket and forwards bus events until the
// client disconnects or the server shuts down. The optional "types" query
// parameter is a comma-separated list of event types to forward.
// Events are dropped for a client that falls streamBuffer events behind.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var wanted map[domain.EventType]bool
	if types := r.URL.Query().Get("types"); types != "" {
		wanted = make(map[domain.EventType]bool)
		for _, t := range strings.Split(types, ",") {
			wanted[domain.EventType(strings.TrimSpace(t))] = true
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	s.streams.Add(1)
	defer s.streams.Done()

	events := make(chan domain.Event, streamBuffer)
	subID := s.deps.Bus.SubscribeAll(func(e domain.Event) {
		if wanted != nil && !wanted[e.Type()] {
			return
		}
		select {
		case events <- e:
		default:
			s.logger.Debug("event stream client lagging, event dropped", slog.String("type", string(e.Type())))
		}
	})
	defer s.deps.Bus.Unsubscribe(subID)

	s.logger.Info("event stream connected", slog.String("remote", r.RemoteAddr))

	// The read loop only services control frames and detects disconnects.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(maxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Debug("event stream read failed", slog.Any("error", err))
				}
				return
			}
		}
	}()
	defer func() {
		conn.Close()
		<-closed
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case e := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			msg := eventMessage{Type: e.Type(), Timestamp: e.Timestamp(), Data: e}
			if err := conn.WriteJSON(msg); err != nil {
				s.logger.Debug("event stream write failed", slog.Any("error", err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			s.logger.Info("event stream disconnected", slog.String("remote", r.RemoteAddr))
			return
		case <-s.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		}
	}
}
