package test

import (
	"fmt"
	"testing"
	"time"

	"letschat/internal/client/ws"
	"letschat/internal/server"
	"letschat/internal/session"
	"letschat/internal/view"
)

// pump forwards inbound frames into the session until the connection ends.
func pump(conn *ws.Conn, sess *session.Session, changed chan<- struct{}) {
	for frame := range conn.Frames() {
		sess.HandleFrame(frame)
		select {
		case changed <- struct{}{}:
		default:
		}
	}
}

func waitFor(t *testing.T, changed <-chan struct{}, cond func() bool, what string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-changed:
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		}
	}
}

// TestIntegration_FullStack exercises the whole path: server, websocket
// transport, session state machine, and view projection.
func TestIntegration_FullStack(t *testing.T) {
	srv := server.New("127.0.0.1:0")
	go func() {
		_ = srv.Start()
	}()
	defer srv.Stop()

	time.Sleep(100 * time.Millisecond)
	if srv.Addr() == "" {
		t.Fatal("Server address is empty")
	}
	addr := fmt.Sprintf("ws://%s/", srv.Addr())

	carolConn := ws.New(addr)
	if err := carolConn.Connect(); err != nil {
		t.Fatalf("carol failed to connect: %v", err)
	}
	defer carolConn.Close()

	carol := session.New("carol", carolConn)
	carolChanged := make(chan struct{}, 1)
	go pump(carolConn, carol, carolChanged)

	waitFor(t, carolChanged, func() bool { return len(carol.Users()) == 1 }, "carol's first users snapshot")

	daveConn := ws.New(addr)
	if err := daveConn.Connect(); err != nil {
		t.Fatalf("dave failed to connect: %v", err)
	}
	defer daveConn.Close()

	dave := session.New("dave", daveConn)
	daveChanged := make(chan struct{}, 1)
	go pump(daveConn, dave, daveChanged)

	waitFor(t, carolChanged, func() bool { return len(carol.Users()) == 2 }, "carol to see dave")
	waitFor(t, daveChanged, func() bool { return len(dave.Users()) == 2 }, "dave's users snapshot")

	users := carol.Users()
	if users[0].Name != "carol" || users[1].Name != "dave" {
		t.Errorf("Expected join-ordered membership [carol dave], got %v", users)
	}

	dave.Send("yo")

	waitFor(t, carolChanged, func() bool { return len(carol.Messages()) == 1 }, "carol to receive the message")
	waitFor(t, daveChanged, func() bool { return len(dave.Messages()) == 1 }, "dave to receive his own echo")

	got := carol.Messages()[0]
	if got.Sender != "dave" {
		t.Errorf("Expected sender dave, got %q", got.Sender)
	}
	if got.Body != "yo" {
		t.Errorf("Expected body yo, got %q", got.Body)
	}

	// Projection from carol's point of view: dave's message sits on the
	// other side, with dave's derived avatar.
	if view.BubbleSide(got, carol.Identity()) != view.SideOther {
		t.Error("Expected dave's message to project as other")
	}
	if avatar := view.AvatarFor(carol.Users(), "dave"); avatar != session.AvatarURL("dave") {
		t.Errorf("Expected dave's derived avatar, got %q", avatar)
	}
	// Dave's own echo projects as self.
	if view.BubbleSide(dave.Messages()[0], dave.Identity()) != view.SideSelf {
		t.Error("Expected dave's echo to project as self")
	}

	// Dave leaves; carol's directory shrinks back to herself.
	daveConn.Close()
	waitFor(t, carolChanged, func() bool { return len(carol.Users()) == 1 }, "carol to see dave leave")
	if carol.Users()[0].Name != "carol" {
		t.Errorf("Expected remaining user carol, got %v", carol.Users())
	}
}
