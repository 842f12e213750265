// Package protocol defines the wire protocol spoken between chat clients
// and the server: a JSON envelope tagged by message kind, carrying either
// a single string payload or a list of strings.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind identifies the type of an envelope.
type Kind int

const (
	// KindUnknown is produced when decoding an unrecognized messageType tag.
	// It is a distinct variant rather than an error so that callers can
	// ignore kinds introduced by newer servers.
	KindUnknown Kind = iota
	KindRegister
	KindUsers
	KindMessage
)

// String returns the wire tag for the kind.
func (k Kind) String() string {
	switch k {
	case KindRegister:
		return "register"
	case KindUsers:
		return "users"
	case KindMessage:
		return "message"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind as its lowercase wire tag.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a lowercase wire tag. Unrecognized tags map to
// KindUnknown without error.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("failed to decode message type: %w", err)
	}
	switch tag {
	case "register":
		*k = KindRegister
	case "users":
		*k = KindUsers
	case "message":
		*k = KindMessage
	default:
		*k = KindUnknown
	}
	return nil
}

// ErrMissingPayload indicates an envelope whose required payload field for
// its kind is absent.
var ErrMissingPayload = errors.New("missing payload")

// Envelope is a single unit of wire-protocol data.
//
// Exactly one payload field is populated per kind: register and message
// carry Data, users carries DataArray. Nil fields serialize as JSON null.
type Envelope struct {
	Kind      Kind     `json:"messageType"`
	DataArray []string `json:"dataArray"`
	Data      *string  `json:"data"`
}

// ChatPayload is the nested payload of an inbound message envelope,
// JSON-encoded inside the envelope's Data field.
type ChatPayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// NewRegister builds the registration envelope sent once at session start.
func NewRegister(name string) Envelope {
	return Envelope{Kind: KindRegister, Data: &name}
}

// NewUsers builds a full-membership snapshot envelope.
func NewUsers(names []string) Envelope {
	if names == nil {
		names = []string{}
	}
	return Envelope{Kind: KindUsers, DataArray: names}
}

// NewOutgoing builds the client-to-server message envelope. The body is
// carried raw; the server attaches the sender when it fans the message out.
func NewOutgoing(text string) Envelope {
	return Envelope{Kind: KindMessage, Data: &text}
}

// NewChat builds the server-to-client message envelope, with the sender and
// body encoded as a nested JSON object in Data.
func NewChat(from, body string) (Envelope, error) {
	nested, err := json.Marshal(ChatPayload{From: from, Message: body})
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to encode chat payload: %w", err)
	}
	data := string(nested)
	return Envelope{Kind: KindMessage, Data: &data}, nil
}

// Encode serializes the envelope to its wire form.
func (e Envelope) Encode() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("failed to encode envelope: %w", err)
	}
	return string(data), nil
}

// Decode parses a wire frame into an Envelope.
//
// Decoding is strict about payload shape: register and message envelopes
// must carry data, users envelopes must carry dataArray. An unrecognized
// messageType decodes successfully as KindUnknown; payload validation is
// skipped for it since its requirements are unknowable.
func Decode(text string) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal([]byte(text), &e); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode envelope: %w", err)
	}
	switch e.Kind {
	case KindRegister, KindMessage:
		if e.Data == nil {
			return Envelope{}, fmt.Errorf("%s envelope: %w: data", e.Kind, ErrMissingPayload)
		}
	case KindUsers:
		if e.DataArray == nil {
			return Envelope{}, fmt.Errorf("%s envelope: %w: dataArray", e.Kind, ErrMissingPayload)
		}
	}
	return e, nil
}

// ChatPayload decodes the nested {from, message} object carried by an
// inbound message envelope. This is the second stage of message decoding;
// failure here is a decode error just as at the envelope stage.
func (e Envelope) ChatPayload() (ChatPayload, error) {
	if e.Kind != KindMessage {
		return ChatPayload{}, fmt.Errorf("chat payload requested from %s envelope", e.Kind)
	}
	if e.Data == nil {
		return ChatPayload{}, fmt.Errorf("message envelope: %w: data", ErrMissingPayload)
	}
	var p ChatPayload
	if err := json.Unmarshal([]byte(*e.Data), &p); err != nil {
		return ChatPayload{}, fmt.Errorf("failed to decode chat payload: %w", err)
	}
	return p, nil
}
