package notify

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeTimeout    = 5 * time.Second
	sendBufferDepth = 32
)

// Hub is a websocket Publisher: one subscriber set per match topic, one
// writer goroutine per connection. Slow subscribers get dropped rather
// than stalling the match.
type Hub struct {
	logger *zap.Logger

	mu     sync.RWMutex
	topics map[string]map[*subscriber]struct{}
}

type subscriber struct {
	conn *websocket.Conn
	send chan envelope
	once sync.Once
}

type envelope struct {
	MatchID string `json:"matchId"`
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		topics: make(map[string]map[*subscriber]struct{}),
	}
}

// Subscribe registers a websocket connection on a match topic and services
// it until the connection dies. Blocks; callers run it per connection.
func (h *Hub) Subscribe(matchID string, conn *websocket.Conn) {
	sub := &subscriber{
		conn: conn,
		send: make(chan envelope, sendBufferDepth),
	}

	h.mu.Lock()
	set, ok := h.topics[matchID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.topics[matchID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("subscriber joined", zap.String("match_id", matchID))

	go h.writeLoop(sub)

	// Reader exists only to detect close; clients never send on this socket.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(matchID, sub)
}

func (h *Hub) writeLoop(sub *subscriber) {
	for ev := range sub.send {
		_ = sub.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := sub.conn.WriteJSON(ev); err != nil {
			return
		}
	}
}

func (h *Hub) drop(matchID string, sub *subscriber) {
	h.mu.Lock()
	if set, ok := h.topics[matchID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.topics, matchID)
		}
	}
	h.mu.Unlock()
	sub.once.Do(func() { close(sub.send) })
	_ = sub.conn.Close()
}

// Publish fans the event out to the topic's subscribers. Never blocks: a
// subscriber with a full buffer misses the event and resyncs later.
func (h *Hub) Publish(matchID, event string, payload any) {
	ev := envelope{MatchID: matchID, Event: event, Payload: payload}

	h.mu.RLock()
	subs := make([]*subscriber, 0, len(h.topics[matchID]))
	for sub := range h.topics[matchID] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.send <- ev:
		default:
			h.logger.Debug("subscriber buffer full, event dropped",
				zap.String("match_id", matchID),
				zap.String("event", event),
			)
		}
	}
}
