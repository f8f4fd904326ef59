package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendQueueSize  = 64
)

// Session is one websocket connection of an authenticated user.
type Session struct {
	hub  *Hub
	conn *websocket.Conn
	user uuid.UUID
	send chan []byte
	done chan struct{}
	once sync.Once

	// guarded by hub.mu
	rooms []uuid.UUID
}

// Serve runs the session until the connection drops or the hub closes.
// It blocks the calling goroutine on the read loop.
func (h *Hub) Serve(conn *websocket.Conn, user uuid.UUID) {
	s := &Session{
		hub:  h,
		conn: conn,
		user: user,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
	h.add(s)
	h.logger.Debug("socket connected", slog.String("user_id", user.String()))

	go s.writeLoop()
	s.readLoop()

	h.remove(s)
	s.close()
	h.logger.Debug("socket disconnected", slog.String("user_id", user.String()))
}

func (s *Session) readLoop() {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.hub.logger.Warn("socket read failed", slog.Any("err", err))
			}
			return
		}
		s.handle(msg)
	}
}

func (s *Session) handle(msg Message) {
	switch msg.Event {
	case "join":
		var raw string
		if err := json.Unmarshal(msg.Data, &raw); err != nil {
			s.hub.logger.Warn("malformed join", slog.String("user_id", s.user.String()))
			return
		}
		room, err := uuid.Parse(raw)
		if err != nil || room != s.user {
			s.hub.logger.Warn("ignored join for another user",
				slog.String("user_id", s.user.String()),
				slog.String("room", raw),
			)
			return
		}
		s.hub.join(s, room)
		s.hub.logger.Debug("socket joined room", slog.String("user_id", s.user.String()))
	default:
		s.hub.logger.Debug("ignored socket event", slog.String("event", msg.Event))
	}
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		}
	}
}

// enqueue never blocks; a full queue drops the frame.
func (s *Session) enqueue(frame []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- frame:
		return true
	default:
		s.hub.logger.Debug("socket queue full, dropped frame", slog.String("user_id", s.user.String()))
		return false
	}
}

func (s *Session) close() {
	s.once.Do(func() { close(s.done) })
}
