// Package realtime fans committed changes out to the websocket sessions
// of the owning user.
package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Message is the frame exchanged in both directions.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Hub tracks live sessions and the per-user rooms they joined.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
	rooms    map[uuid.UUID]map[*Session]struct{}
	logger   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		sessions: make(map[*Session]struct{}),
		rooms:    make(map[uuid.UUID]map[*Session]struct{}),
		logger:   logger,
	}
}

func (h *Hub) add(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s] = struct{}{}
}

func (h *Hub) join(s *Session, room uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Session]struct{})
		h.rooms[room] = members
	}
	if _, ok := members[s]; ok {
		return
	}
	members[s] = struct{}{}
	s.rooms = append(s.rooms, room)
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.sessions, s)
	for _, room := range s.rooms {
		members := h.rooms[room]
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	s.rooms = nil
}

// Emit queues event to every session in room and reports how many
// sessions it reached. Sessions with a full queue miss the event.
func (h *Hub) Emit(room uuid.UUID, event string, data any) int {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("could not marshal event payload",
			slog.String("event", event), slog.Any("err", err))
		return 0
	}
	frame, err := json.Marshal(Message{Event: event, Data: payload})
	if err != nil {
		h.logger.Error("could not marshal event frame",
			slog.String("event", event), slog.Any("err", err))
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for s := range h.rooms[room] {
		if s.enqueue(frame) {
			sent++
		}
	}
	return sent
}

// RoomSize counts the sessions joined to room.
func (h *Hub) RoomSize(room uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Close disconnects every session.
func (h *Hub) Close() {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		s.close()
	}
}
