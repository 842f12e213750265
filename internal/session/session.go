// Package session implements the client-side chat state machine: the
// presence directory and message log, mutated only by inbound envelopes
// delivered through HandleFrame.
package session

import (
	"fmt"
	"sync"

	"letschat/pkg/protocol"
)

// Transport is the outbound half of the connection to the server. Sends are
// one-shot and unacknowledged; a failed send is reported through the
// session's error handler and never retried.
type Transport interface {
	Send(text string) error
}

// UserProfile is one entry of the presence directory.
type UserProfile struct {
	Name      string
	AvatarURL string
}

// ChatMessage is one entry of the message log.
type ChatMessage struct {
	Sender string
	Body   string
}

// AvatarURL derives the avatar image URL for a display name. It is a pure
// function of the name, so avatar lookups for message authors stay stable
// even while the author is absent from the presence directory.
func AvatarURL(name string) string {
	return fmt.Sprintf("https://api.dicebear.com/8.x/adventurer-neutral/svg?seed=%s", name)
}

// Option configures a Session at construction.
type Option func(*Session)

// WithOnChange registers a hook invoked after every state mutation. The
// rendering layer observes it to know when to re-project the view.
func WithOnChange(fn func()) Option {
	return func(s *Session) { s.onChange = fn }
}

// WithErrorHandler registers the host's policy for decode and send
// failures. The default is to discard them; no failure in this core is ever
// surfaced to the user.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Session) { s.onError = fn }
}

// WithMaxMessages caps the message log at the most recent n entries.
// The default is unbounded growth; capping is an explicit host choice since
// it changes observable behavior (oldest messages disappear).
func WithMaxMessages(n int) Option {
	return func(s *Session) { s.maxMessages = n }
}

// Session holds the client's synchronized view of the chat: who is present
// and what has been said. All mutation happens on the HandleFrame path, in
// delivery order.
type Session struct {
	identity  string
	transport Transport

	mu       sync.RWMutex
	users    []UserProfile
	messages []ChatMessage

	maxMessages int
	onChange    func()
	onError     func(error)
}

// New creates a session for the given identity and registers it with the
// server over the transport. Registration is fire-and-forget: a send
// failure goes to the error handler and the session is returned regardless,
// trusting the server to include us in future users broadcasts.
func New(identity string, transport Transport, opts ...Option) *Session {
	s := &Session{
		identity:  identity,
		transport: transport,
		onChange:  func() {},
		onError:   func(error) {},
	}
	for _, opt := range opts {
		opt(s)
	}

	text, err := protocol.NewRegister(identity).Encode()
	if err != nil {
		s.onError(fmt.Errorf("failed to encode register envelope: %w", err))
		return s
	}
	if err := s.transport.Send(text); err != nil {
		s.onError(fmt.Errorf("failed to register: %w", err))
	}
	return s
}

// Identity returns the local display name.
func (s *Session) Identity() string {
	return s.identity
}

// HandleFrame decodes one inbound frame and applies it to the session
// state. A malformed frame is reported to the error handler and dropped;
// one bad frame never takes down the session. Unknown envelope kinds are
// ignored.
func (s *Session) HandleFrame(text string) {
	env, err := protocol.Decode(text)
	if err != nil {
		s.onError(err)
		return
	}

	switch env.Kind {
	case protocol.KindUsers:
		s.applyUsers(env.DataArray)
		s.onChange()
	case protocol.KindMessage:
		payload, err := env.ChatPayload()
		if err != nil {
			s.onError(err)
			return
		}
		s.applyMessage(payload.From, payload.Message)
		s.onChange()
	}
}

// Send encodes the input text as an outgoing message envelope and sends it.
// Empty input is not rejected here; a send failure goes to the error
// handler only. The local log is not touched — our own messages appear via
// the server echo.
func (s *Session) Send(text string) {
	encoded, err := protocol.NewOutgoing(text).Encode()
	if err != nil {
		s.onError(fmt.Errorf("failed to encode message envelope: %w", err))
		return
	}
	if err := s.transport.Send(encoded); err != nil {
		s.onError(fmt.Errorf("failed to send message: %w", err))
	}
}

// Users returns a copy of the presence directory in server order.
func (s *Session) Users() []UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]UserProfile, len(s.users))
	copy(users, s.users)
	return users
}

// Messages returns a copy of the message log in arrival order.
func (s *Session) Messages() []ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	messages := make([]ChatMessage, len(s.messages))
	copy(messages, s.messages)
	return messages
}

// applyUsers replaces the presence directory wholesale with one profile per
// name, in the order the server sent them. The server is authoritative for
// membership; duplicates in the snapshot produce duplicate profiles.
func (s *Session) applyUsers(names []string) {
	users := make([]UserProfile, 0, len(names))
	for _, name := range names {
		users = append(users, UserProfile{Name: name, AvatarURL: AvatarURL(name)})
	}

	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
}

// applyMessage appends to the message log. Delivery of the same message
// twice appends twice; at-most-once delivery is the transport's concern.
func (s *Session) applyMessage(from, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, ChatMessage{Sender: from, Body: body})
	if s.maxMessages > 0 && len(s.messages) > s.maxMessages {
		s.messages = s.messages[len(s.messages)-s.maxMessages:]
	}
}
