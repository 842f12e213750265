package ws

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestNew(t *testing.T) {
	c := New("ws://localhost:8080/ws")
	if c == nil {
		t.Fatal("New returned nil")
	}
	if c.address != "ws://localhost:8080/ws" {
		t.Errorf("Expected address 'ws://localhost:8080/ws', got '%s'", c.address)
	}
}

func TestConn_Connect_Failure(t *testing.T) {
	c := New("ws://127.0.0.1:1/ws")

	if err := c.Connect(); err == nil {
		t.Error("Expected connection error, got nil")
	}
}

func TestConn_IsConnected_Initially(t *testing.T) {
	c := New("ws://localhost:8080/ws")

	if c.IsConnected() {
		t.Error("Conn should not be connected initially")
	}
}

func TestConn_Send_NotConnected(t *testing.T) {
	c := New("ws://localhost:8080/ws")

	err := c.Send("hello")
	if err == nil {
		t.Error("Expected error when sending without connection")
	}
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got: %v", err)
	}
}

func TestConn_Close_NotConnected(t *testing.T) {
	c := New("ws://localhost:8080/ws")

	// Should not panic when closing without connection.
	c.Close()

	if c.IsConnected() {
		t.Error("Conn should not be connected after close")
	}
}

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// echoServer upgrades and echoes every text frame back to the sender.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
}

func TestConn_SendAndReceive(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	c := New("ws" + strings.TrimPrefix(srv.URL, "http"))
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Close()

	if !c.IsConnected() {
		t.Error("Conn should be connected after Connect")
	}

	if err := c.Send(`{"messageType":"register","dataArray":null,"data":"alice"}`); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case frame := <-c.Frames():
		if !strings.Contains(frame, `"register"`) {
			t.Errorf("Unexpected frame: %s", frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for echoed frame")
	}
}

func TestConn_FramesClosedAfterClose(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	c := New("ws" + strings.TrimPrefix(srv.URL, "http"))
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	c.Close()

	select {
	case _, ok := <-c.Frames():
		if ok {
			t.Error("Expected frames channel to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for frames channel close")
	}
}
