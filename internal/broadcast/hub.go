// Package broadcast delivers generated messages to live room viewers over
// websockets. The hub is an explicitly owned pub/sub component injected into
// the engine; nothing here is global.
package broadcast

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"antfarm/internal/domain"
	"antfarm/internal/logging"
)

// Broadcaster is what the engine sees: fire-and-forget delivery of a freshly
// posted message to whoever is watching the room.
type Broadcaster interface {
	Publish(roomID string, msg domain.Message)
}

// NopBroadcaster discards everything. Used in tests and headless runs.
type NopBroadcaster struct{}

func (NopBroadcaster) Publish(string, domain.Message) {}

const (
	writeTimeout   = 10 * time.Second
	sendBufferSize = 32
)

// wireMessage is the JSON shape pushed to viewers.
type wireMessage struct {
	ID         string `json:"id"`
	RoomID     string `json:"roomId"`
	AuthorType string `json:"authorType"`
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName"`
	Content    string `json:"content"`
	CreatedAt  int64  `json:"createdAt"`
}

// Hub fans messages out to per-room subscriber sets.
type Hub struct {
	logger logging.Logger

	mu    sync.Mutex
	rooms map[string]map[*subscriber]struct{}
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(logger logging.Logger) *Hub {
	return &Hub{
		logger: logging.OrNop(logger),
		rooms:  make(map[string]map[*subscriber]struct{}),
	}
}

// Publish sends msg to every subscriber of roomID. Slow subscribers are
// dropped rather than allowed to stall the engine.
func (h *Hub) Publish(roomID string, msg domain.Message) {
	payload, err := json.Marshal(wireMessage{
		ID:         msg.ID,
		RoomID:     msg.RoomID,
		AuthorType: string(msg.AuthorType),
		AuthorID:   msg.AuthorID,
		AuthorName: msg.AuthorName,
		Content:    msg.Content,
		CreatedAt:  msg.CreatedAt.UnixMilli(),
	})
	if err != nil {
		h.logger.Error("marshal broadcast message roomId=%s: %v", roomID, err)
		return
	}

	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.rooms[roomID]))
	for s := range h.rooms[roomID] {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		select {
		case s.send <- payload:
		default:
			h.logger.Warn("dropping slow subscriber roomId=%s", roomID)
			h.detach(roomID, s)
		}
	}
}

// Attach registers conn as a viewer of roomID and owns it until the
// connection dies. Blocks until the read side closes.
func (h *Hub) Attach(roomID string, conn *websocket.Conn) {
	s := &subscriber{conn: conn, send: make(chan []byte, sendBufferSize)}

	h.mu.Lock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*subscriber]struct{})
	}
	h.rooms[roomID][s] = struct{}{}
	h.mu.Unlock()

	go s.writeLoop()

	// Read loop exists only to observe the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.detach(roomID, s)
}

// SubscriberCount reports live viewers of a room.
func (h *Hub) SubscriberCount(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}

func (h *Hub) detach(roomID string, s *subscriber) {
	h.mu.Lock()
	if set, ok := h.rooms[roomID]; ok {
		if _, present := set[s]; present {
			delete(set, s)
			close(s.send)
			if len(set) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	h.mu.Unlock()
	_ = s.conn.Close()
}

func (s *subscriber) writeLoop() {
	for payload := range s.send {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
