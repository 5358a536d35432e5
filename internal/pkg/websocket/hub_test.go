package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T, hub *Hub, userID string) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewHandler(hub, func(*http.Request) bool { return true }, zerolog.Nop())
	r := gin.New()
	r.GET("/realtime", func(c *gin.Context) {
		if userID != "" {
			c.Set("userID", userID)
		}
		c.Next()
	}, h.HandleConnection)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/realtime"
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientsCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientsCount() = %d, want %d", hub.ClientsCount(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_BroadcastsToConnectedClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := newTestServer(t, hub, "u1")

	var conns []*websocket.Conn
	for i := 0; i < 2; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
		if err != nil {
			t.Fatalf("Dial() error = %v", err)
		}
		defer conn.Close()
		conns = append(conns, conn)
	}
	waitForClients(t, hub, 2)

	hub.Publish(EventInsert, "liberacoes_lanche", map[string]interface{}{"id": "r1"})

	for _, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage() error = %v", err)
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if ev.Type != EventInsert || ev.Table != "liberacoes_lanche" {
			t.Errorf("event = %+v", ev)
		}
		rec, ok := ev.Record.(map[string]interface{})
		if !ok || rec["id"] != "r1" {
			t.Errorf("record = %v", ev.Record)
		}
		if ev.Timestamp.IsZero() {
			t.Error("timestamp not set")
		}
	}
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := newTestServer(t, hub, "u1")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHandleConnection_RequiresUser(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := newTestServer(t, hub, "")

	resp, err := http.Get(srv.URL + "/realtime")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestPublish_NeverBlocks(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish(EventStockAdjusted, "movimentacoes_estoque", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked without a running hub")
	}
}

func TestRegister_AfterStop(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	if hub.Register(&Client{hub: hub, send: make(chan []byte, 1)}) {
		t.Error("Register() = true after the hub stopped")
	}
	hub.Unregister(&Client{hub: hub})
}
