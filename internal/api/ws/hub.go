// Package ws exposes the event bus's per-(topic,key) streams over
// WebSocket, generalizing the teacher's client-registry hub from a single
// broadcast channel into direct passthrough subscriptions against
// internal/eventbus.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/PxPatel/trading-system/internal/api/logger"
	"github.com/PxPatel/trading-system/internal/eventbus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	sendBufferSize = 256
)

// Hub upgrades HTTP connections to WebSocket and lets each client
// subscribe directly to eventbus topic/key streams.
type Hub struct {
	bus *eventbus.Bus
}

// NewHub creates a Hub over bus.
func NewHub(bus *eventbus.Bus) *Hub {
	return &Hub{bus: bus}
}

// wsRequest is a client-issued subscribe/unsubscribe command.
type wsRequest struct {
	Op    string `json:"op"` // "subscribe" | "unsubscribe"
	Topic string `json:"topic"`
	Key   string `json:"key"`
}

// wsEvent is what a client receives after subscribing.
type wsEvent struct {
	Topic string      `json:"topic"`
	Key   string      `json:"key"`
	Type  string      `json:"type"`
	Data  interface{} `json:"data"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu   sync.Mutex
	subs map[string]func()
}

func subKey(topic, key string) string { return topic + "|" + key }

func (c *client) subscribe(topic, key string) {
	k := subKey(topic, key)

	c.mu.Lock()
	if _, exists := c.subs[k]; exists {
		c.mu.Unlock()
		return
	}
	ch, unsub := c.hub.bus.Subscribe(eventbus.Topic(topic), key)
	c.subs[k] = unsub
	c.mu.Unlock()

	go c.forward(ch, topic, key)
}

func (c *client) unsubscribe(topic, key string) {
	k := subKey(topic, key)
	c.mu.Lock()
	unsub, exists := c.subs[k]
	if exists {
		delete(c.subs, k)
	}
	c.mu.Unlock()
	if exists {
		unsub()
	}
}

func (c *client) forward(ch <-chan eventbus.Event, topic, key string) {
	for ev := range ch {
		payload, err := json.Marshal(wsEvent{Topic: topic, Key: key, Type: ev.Type, Data: ev.Data})
		if err != nil {
			continue
		}
		select {
		case c.send <- payload:
		default:
			// client too slow to drain, drop this event
		}
	}
}

func (c *client) closeAllSubs() {
	c.mu.Lock()
	subs := c.subs
	c.subs = make(map[string]func())
	c.mu.Unlock()
	for _, unsub := range subs {
		unsub()
	}
}

func (c *client) readPump() {
	defer func() {
		c.closeAllSubs()
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error", map[string]interface{}{"error": err.Error()})
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(message, &req); err != nil {
			continue
		}
		switch req.Op {
		case "subscribe":
			c.subscribe(req.Topic, req.Key)
		case "unsubscribe":
			c.unsubscribe(req.Topic, req.Key)
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
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS upgrades the connection and starts its read/write pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		subs: make(map[string]func()),
	}

	go c.writePump()
	go c.readPump()
}
