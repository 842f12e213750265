// Package ws provides the websocket transport channel to the chat server:
// outbound text sends plus a single-consumer channel of inbound frames, in
// arrival order.
package ws

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ErrNotConnected is returned by Send before Connect or after Close.
var ErrNotConnected = fmt.Errorf("not connected to server")

// Conn is a websocket connection to the chat server. Each received text
// frame is delivered exactly once on the Frames channel.
type Conn struct {
	address    string
	conn       *websocket.Conn
	frames     chan string
	framesOnce sync.Once
	mu         sync.RWMutex
	done       chan struct{}
	doneOnce   sync.Once
	wg         sync.WaitGroup
	isShutdown bool
}

// New creates a Conn for the given ws:// address.
func New(address string) *Conn {
	return &Conn{
		address: address,
		frames:  make(chan string, 16),
		done:    make(chan struct{}),
	}
}

// Connect establishes the websocket connection and starts the receive loop.
func (c *Conn) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.address, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.wg.Add(1)
	go c.receiveFrames()

	return nil
}

// Close closes the connection and stops the receive loop. The frames
// channel is closed once the loop has drained.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.isShutdown {
		c.mu.Unlock()
		return
	}
	c.isShutdown = true
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	c.doneOnce.Do(func() {
		close(c.done)
	})
	c.wg.Wait()
	c.framesOnce.Do(func() {
		close(c.frames)
	})
}

// IsConnected returns whether the connection is open.
func (c *Conn) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil
}

// Send writes one text frame to the server. Satisfies session.Transport.
func (c *Conn) Send(text string) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("failed to send frame: %w", err)
	}
	return nil
}

// Frames returns the channel of inbound text frames. It is closed by Close
// or when the server ends the connection.
func (c *Conn) Frames() <-chan string {
	return c.frames
}

func (c *Conn) receiveFrames() {
	defer c.wg.Done()
	defer c.framesOnce.Do(func() {
		close(c.frames)
	})

	for {
		select {
		case <-c.done:
			return
		default:
			c.mu.RLock()
			conn := c.conn
			c.mu.RUnlock()

			if conn == nil {
				return
			}

			messageType, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Msg("websocket read failed")
				}
				return
			}

			if messageType != websocket.TextMessage {
				continue
			}

			select {
			case c.frames <- string(data):
			case <-c.done:
				return
			}
		}
	}
}
