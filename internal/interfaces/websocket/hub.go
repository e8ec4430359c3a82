// Package websocket implements the notification fan-out surface. Clients
// connect once and are subscribed to their personal channel plus their role
// channel; adjudication events are pushed as JSON frames.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/insurhub/underwriter/internal/application/port"
	"github.com/insurhub/underwriter/internal/domain/entity"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer bounds per-client queueing; a slow client drops frames
	// rather than blocking the publisher.
	sendBuffer = 16
)

// Frame is the message pushed to connected clients.
type Frame struct {
	Channel string                   `json:"channel"`
	Event   entity.NotificationEvent `json:"event"`
}

type client struct {
	conn     *websocket.Conn
	send     chan []byte
	channels []string
}

// Hub tracks connected clients by channel and implements
// port.NotificationPublisher. Delivery is at-most-once: frames to absent or
// slow clients are dropped, the persisted notification row remains the
// source of truth.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*client]struct{}
	upgrader    websocket.Upgrader
	logger      *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Publish implements port.NotificationPublisher. It returns an error only
// when the event cannot be serialized; absent subscribers are not a failure.
func (h *Hub) Publish(ctx context.Context, channel string, event entity.NotificationEvent) error {
	data, err := json.Marshal(Frame{Channel: channel, Event: event})
	if err != nil {
		return fmt.Errorf("marshal notification frame: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.subscribers[channel] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("Dropping frame for slow websocket client", zap.String("channel", channel))
		}
	}
	return nil
}

// Serve upgrades the request and subscribes the connection to the user's
// personal channel and their role channel. Blocks until the client
// disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID int64, role entity.Role) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade websocket: %w", err)
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		channels: []string{
			fmt.Sprintf("user:%d", userID),
			fmt.Sprintf("role:%s", role),
		},
	}

	h.register(c)
	h.logger.Info("Websocket client connected",
		zap.Int64("user_id", userID),
		zap.String("role", string(role)))

	go c.writePump()
	c.readPump()

	h.unregister(c)
	h.logger.Info("Websocket client disconnected", zap.Int64("user_id", userID))
	return nil
}

// ChannelCount reports how many clients are subscribed to a channel.
func (h *Hub) ChannelCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[channel])
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range c.channels {
		if h.subscribers[ch] == nil {
			h.subscribers[ch] = make(map[*client]struct{})
		}
		h.subscribers[ch][c] = struct{}{}
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range c.channels {
		delete(h.subscribers[ch], c)
		if len(h.subscribers[ch]) == 0 {
			delete(h.subscribers, ch)
		}
	}
	close(c.send)
}

// readPump drains the connection until close. Clients do not send
// application data; reads exist to process control frames.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Verify interface compliance
var _ port.NotificationPublisher = (*Hub)(nil)
