package server

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"smpctl/cache"
	"smpctl/core/engine"
	"smpctl/logger"
)

const sendBufferSize = 64

// wsClient is one websocket subscriber.
type wsClient struct {
	hub  *EventHub
	conn *websocket.Conn
	send chan []byte
}

// EventHub fans command results out to websocket clients. It implements
// engine.Observer.
type EventHub struct {
	session string

	clients map[*wsClient]bool

	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte

	mu       sync.RWMutex
	done     chan struct{}
	stopOnce sync.Once
}

func NewEventHub(session string) *EventHub {
	return &EventHub{
		session:    session,
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run 启动 Hub 主循环
func (h *EventHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.Debug("event client registered", logger.Int("clients", h.ClientCount()))

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeClient(client)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.fanOut(msg)

		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop 停止 Hub
func (h *EventHub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// removeClient needs h.mu held.
func (h *EventHub) removeClient(client *wsClient) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *EventHub) fanOut(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			// slow consumer
			h.removeClient(client)
		}
	}
}

func (h *EventHub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[*wsClient]bool)
}

// Register 注册客户端. It reports false once the hub has stopped.
func (h *EventHub) Register(client *wsClient) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister 注销客户端
func (h *EventHub) Unregister(client *wsClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Observe publishes a result to every client. Events are dropped rather
// than blocking the engine caller when the hub is backed up.
func (h *EventHub) Observe(_ context.Context, res *engine.Result) {
	data, err := json.Marshal(cache.NewEvent(h.session, res))
	if err != nil {
		logger.Warn("failed to encode event", logger.ErrorField(err))
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		logger.Warn("event hub backed up, dropping event", logger.String("command", res.Name))
	}
}
