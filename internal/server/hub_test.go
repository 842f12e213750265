package server_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"letschat/internal/server"
)

func TestHub_Register(t *testing.T) {
	hub := server.NewHub()
	client := server.NewClient()

	hub.Register(client)

	assert.Equal(t, 1, hub.ClientCount())
}

func TestHub_Unregister(t *testing.T) {
	hub := server.NewHub()
	client := server.NewClient()

	hub.Register(client)
	hub.Unregister(client)

	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_Names_JoinOrder(t *testing.T) {
	hub := server.NewHub()

	a := server.NewClient()
	b := server.NewClient()
	c := server.NewClient()
	hub.Register(a)
	hub.Register(b)
	hub.Register(c)

	hub.SetName(a, "alice")
	hub.SetName(c, "carol")

	// b never registered, so it is not part of the membership.
	assert.Equal(t, []string{"alice", "carol"}, hub.Names())
}

func TestHub_Names_AfterLeave(t *testing.T) {
	hub := server.NewHub()

	a := server.NewClient()
	b := server.NewClient()
	hub.Register(a)
	hub.Register(b)
	hub.SetName(a, "alice")
	hub.SetName(b, "bob")

	hub.Unregister(a)

	assert.Equal(t, []string{"bob"}, hub.Names())
}

func TestHub_Broadcast_ReachesAllClients(t *testing.T) {
	hub := server.NewHub()

	a := server.NewClient()
	b := server.NewClient()
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast("frame")

	for _, c := range []*server.Client{a, b} {
		select {
		case got := <-c.Outgoing:
			assert.Equal(t, "frame", got)
		default:
			t.Error("client did not receive broadcast")
		}
	}
}

func TestHub_Broadcast_SkipsFullQueue(t *testing.T) {
	hub := server.NewHub()

	full := &server.Client{Outgoing: make(chan string)}
	ok := server.NewClient()
	hub.Register(full)
	hub.Register(ok)

	// Must not block on the unbuffered, unread queue.
	hub.Broadcast("frame")

	select {
	case got := <-ok.Outgoing:
		require.Equal(t, "frame", got)
	default:
		t.Error("healthy client did not receive broadcast")
	}
}
