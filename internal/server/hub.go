package server

import (
	"net"
	"sync"

	"github.com/rs/zerolog/log"
)

// Client represents one connected chat client.
type Client struct {
	Conn       net.Conn
	Name       string
	Registered bool
	Outgoing   chan string
}

// NewClient creates a client with a buffered outgoing queue.
func NewClient() *Client {
	return &Client{Outgoing: make(chan string, 16)}
}

// Hub manages all connected clients. Join order is preserved because it is
// the membership order reported to every client in users snapshots.
type Hub struct {
	clients []*Client
	mu      sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients = append(h.clients, client)
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, c := range h.clients {
		if c == client {
			h.clients = append(h.clients[:i], h.clients[i+1:]...)
			return
		}
	}
}

// SetName records a client's display name from its register envelope and
// marks it part of the membership. Guarded by the hub lock because Names
// reads these fields from other client goroutines.
func (h *Hub) SetName(client *Client, name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.Name = name
	client.Registered = true
}

// Names returns the display names of registered clients in join order.
// Clients that connected but have not sent a register envelope yet are not
// part of the membership.
func (h *Hub) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.clients))
	for _, c := range h.clients {
		if c.Registered {
			names = append(names, c.Name)
		}
	}
	return names
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every client connection. Websocket connections are
// hijacked from the http server, so shutdown has to close them here.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		if c.Conn != nil {
			c.Conn.Close()
		}
	}
}

// Broadcast queues a frame for every connected client, the sender included.
// A client whose queue is full is skipped rather than blocking the hub.
func (h *Hub) Broadcast(text string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.Outgoing <- text:
		default:
			log.Warn().Str("client", c.Name).Msg("client queue full, dropping frame")
		}
	}
}
