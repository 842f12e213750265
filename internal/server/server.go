// Package server implements the chat server side of the envelope protocol:
// it tracks registered users, broadcasts full membership snapshots, and
// fans chat messages out to every client.
package server

import (
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/rs/zerolog/log"

	"letschat/pkg/protocol"
)

// Server accepts websocket connections and speaks the envelope protocol.
type Server struct {
	address  string
	listener net.Listener
	server   *http.Server
	hub      *Hub
	quit     chan struct{}
	wg       sync.WaitGroup
}

// New creates a Server listening on the given address.
func New(address string) *Server {
	return &Server{
		address: address,
		hub:     NewHub(),
		quit:    make(chan struct{}),
	}
}

// Start listens and serves until Stop is called.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleUpgrade)
	s.server = &http.Server{Handler: mux}

	log.Info().Str("addr", listener.Addr().String()).Msg("chat server started")

	if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// Stop shuts the server down and waits for client handlers to finish.
func (s *Server) Stop() {
	close(s.quit)
	if s.server != nil {
		s.server.Close()
	}
	s.hub.CloseAll()
	s.wg.Wait()
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// Hub exposes the client registry, mainly for tests.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient()
	client.Conn = conn
	s.hub.Register(client)

	s.wg.Add(2)
	go s.readLoop(client, conn)
	go s.writeLoop(client, conn)
}

// readLoop consumes frames from one client until it disconnects.
func (s *Server) readLoop(client *Client, conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		wasRegistered := client.Registered
		s.hub.Unregister(client)
		close(client.Outgoing)
		conn.Close()
		if wasRegistered {
			log.Info().Str("user", client.Name).Msg("user left")
			s.broadcastUsers()
		}
	}()

	for {
		data, err := wsutil.ReadClientText(conn)
		if err != nil {
			select {
			case <-s.quit:
			default:
				log.Debug().Err(err).Msg("client read ended")
			}
			return
		}

		env, err := protocol.Decode(string(data))
		if err != nil {
			log.Warn().Err(err).Msg("dropping malformed frame")
			continue
		}

		switch env.Kind {
		case protocol.KindRegister:
			s.hub.SetName(client, *env.Data)
			log.Info().Str("user", client.Name).Msg("user registered")
			s.broadcastUsers()
		case protocol.KindMessage:
			if !client.Registered {
				log.Warn().Msg("dropping message from unregistered client")
				continue
			}
			s.broadcastChat(client.Name, *env.Data)
		default:
			log.Warn().Stringer("kind", env.Kind).Msg("dropping unsupported envelope")
		}
	}
}

// writeLoop drains one client's outgoing queue onto its connection.
func (s *Server) writeLoop(client *Client, conn net.Conn) {
	defer s.wg.Done()
	for text := range client.Outgoing {
		if err := wsutil.WriteServerText(conn, []byte(text)); err != nil {
			log.Debug().Err(err).Msg("client write ended")
			return
		}
	}
	_ = wsutil.WriteServerMessage(conn, ws.OpClose, nil)
}

// broadcastUsers sends the full membership snapshot to every client.
func (s *Server) broadcastUsers() {
	text, err := protocol.NewUsers(s.hub.Names()).Encode()
	if err != nil {
		log.Error().Err(err).Msg("failed to encode users envelope")
		return
	}
	s.hub.Broadcast(text)
}

// broadcastChat wraps a raw message body with its sender and fans it out to
// every client, the sender included. Clients render their own messages from
// this echo.
func (s *Server) broadcastChat(from, body string) {
	env, err := protocol.NewChat(from, body)
	if err != nil {
		log.Error().Err(err).Msg("failed to build chat envelope")
		return
	}
	text, err := env.Encode()
	if err != nil {
		log.Error().Err(err).Msg("failed to encode chat envelope")
		return
	}
	s.hub.Broadcast(text)
}
