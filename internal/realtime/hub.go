package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/pkg/logger"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second

	// Viewers only listen; anything beyond a pong frame is noise
	maxMessageSize = 512

	clientSendBuffer = 64
	broadcastBuffer  = 256
)

// Hub fans settled price ticks out to connected market viewers over
// websocket. Implements contracts.TickPublisher. Slow clients are
// dropped rather than allowed to stall the broadcast loop.
type Hub struct {
	logger   *logger.Logger
	upgrader websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*hubClient]bool

	broadcast  chan contracts.PriceTick
	register   chan *hubClient
	unregister chan *hubClient

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHub creates a websocket ticker hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Price ticks are public market data
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:    make(map[*hubClient]bool),
		broadcast:  make(chan contracts.PriceTick, broadcastBuffer),
		register:   make(chan *hubClient),
		unregister: make(chan *hubClient),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start runs the broadcast loop
func (h *Hub) Start() {
	h.logger.Info("Starting price ticker hub")
	go h.run()
}

// Stop closes every client connection and stops the loop
func (h *Hub) Stop() {
	h.logger.Info("Stopping price ticker hub")
	close(h.stopCh)
	<-h.doneCh
}

// Publish queues a tick for broadcast. Never blocks: when the
// broadcast queue is full the tick is dropped, since a newer price
// is already on its way.
func (h *Hub) Publish(tick contracts.PriceTick) {
	select {
	case h.broadcast <- tick:
	default:
		h.logger.WithField("entity_id", tick.EntityID).Warn("Broadcast queue full, dropping tick")
	}
}

// ClientCount returns the number of connected viewers
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	return len(h.clients)
}

// ServeWS upgrades an HTTP request into a ticker subscription
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithField("error", err.Error()).Warn("WebSocket upgrade failed")
		return
	}

	client := &hubClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (h *Hub) run() {
	defer close(h.doneCh)

	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client] = true
			h.clientsMu.Unlock()
			h.logger.WithField("clients", h.ClientCount()).Debug("Viewer connected")

		case client := <-h.unregister:
			h.removeClient(client)

		case tick := <-h.broadcast:
			payload, err := json.Marshal(tick)
			if err != nil {
				h.logger.WithField("error", err.Error()).Error("Failed to marshal price tick")
				continue
			}
			h.clientsMu.RLock()
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// Writer is stuck; closing send makes writePump exit
					go client.detach()
				}
			}
			h.clientsMu.RUnlock()

		case <-h.stopCh:
			h.clientsMu.Lock()
			for client := range h.clients {
				close(client.send)
				client.conn.Close()
				delete(h.clients, client)
			}
			h.clientsMu.Unlock()
			return
		}
	}
}

func (h *Hub) removeClient(client *hubClient) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.logger.WithField("clients", len(h.clients)).Debug("Viewer disconnected")
	}
}

type hubClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// detach hands the client back to the hub for removal without
// blocking when the hub has already stopped
func (c *hubClient) detach() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.stopCh:
	}
}

// readPump drains the connection so close frames and pongs are seen
func (c *hubClient) readPump() {
	defer func() {
		c.detach()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump pushes queued ticks and keepalive pings to the viewer
func (c *hubClient) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
