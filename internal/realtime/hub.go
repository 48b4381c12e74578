package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gabotrixinc/call-scribe-nexus-sub001/pkg/logger"
	"github.com/gabotrixinc/call-scribe-nexus-sub001/pkg/redis"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event is a single realtime notification pushed to dashboard clients.
type Event struct {
	Type      string      `json:"type"` // call.updated, message.created, conversation.updated
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Hub broadcasts events to connected websocket clients. When a redis
// service is supplied, events travel through a pub/sub channel so every
// instance re-broadcasts them to its own clients.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	redisSvc *redis.Service
	upgrader websocket.Upgrader
}

// NewHub creates a hub. redisSvc may be nil; events then stay in-process.
func NewHub(redisSvc *redis.Service) *Hub {
	return &Hub{
		clients:  make(map[*websocket.Conn]struct{}),
		redisSvc: redisSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Run subscribes to the redis events channel. Without redis it is a no-op.
func (h *Hub) Run(ctx context.Context) {
	if h.redisSvc == nil {
		return
	}
	err := h.redisSvc.Subscribe(ctx, redis.EventsChannel, func(payload string) {
		h.broadcastLocal([]byte(payload))
	})
	if err != nil {
		logger.Base().Warn("failed to subscribe to events channel, realtime limited to this instance", zap.Error(err))
		h.redisSvc = nil
	}
}

// HandleWS upgrades the request and registers the connection. Client frames
// are read and discarded; the connection is write-only from our side.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Base().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	logger.Base().Info("websocket client connected", zap.Int("clients", count))

	go func() {
		defer h.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish fans an event out to every instance's clients.
func (h *Hub) Publish(eventType string, data interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}

	if h.redisSvc != nil {
		// Local delivery happens when the subscription echoes it back.
		if err := h.redisSvc.Publish(context.Background(), redis.EventsChannel, event); err != nil {
			logger.Base().Warn("failed to publish event to redis, delivering locally", zap.Error(err))
		} else {
			return
		}
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Base().Error("failed to marshal realtime event", zap.Error(err))
		return
	}
	h.broadcastLocal(payload)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcastLocal(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			// Slow or gone; drop the client.
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	conn.Close()
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}
