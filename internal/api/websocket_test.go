package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", hub.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readProgress(t *testing.T, conn *websocket.Conn) ProgressMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var msg ProgressMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return msg
}

func TestHubBroadcastsToClients(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.hub.Run(ctx)

	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	waitForClients(t, env.hub, 1)

	env.hub.Progress("generate", "render", "Rendering 2 highlights", 50)
	msg := readProgress(t, conn)
	if msg.Type != "progress" || msg.Stage != "render" || msg.Progress != 50 || msg.Timestamp == "" {
		t.Errorf("progress = %+v", msg)
	}

	env.hub.Complete("generate", "done", map[string]any{"id": "abc"})
	msg = readProgress(t, conn)
	if msg.Type != "complete" || msg.Progress != 100 || msg.Data["id"] != "abc" {
		t.Errorf("complete = %+v", msg)
	}

	env.hub.Fail("generate", "boom")
	if msg = readProgress(t, conn); msg.Type != "error" || msg.Message != "boom" {
		t.Errorf("error = %+v", msg)
	}
}

func TestHubCreateEmitsStages(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.hub.Run(ctx)

	ts := httptest.NewServer(env.handler)
	defer ts.Close()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	waitForClients(t, env.hub, 1)

	rec := env.do(t, multipartRequest(t,
		part{name: "name", value: "ws"},
		part{name: "outputPath", value: "out"},
		part{name: "textReferences", value: "John 3:16"},
	))
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}

	var stages []string
	for len(stages) < 4 {
		msg := readProgress(t, conn)
		if msg.Type == "complete" {
			stages = append(stages, "complete")
			continue
		}
		stages = append(stages, msg.Stage)
	}
	if got := strings.Join(stages, ","); got != "resolve,render,save,complete" {
		t.Errorf("stages = %s", got)
	}
}

func TestWebSocketRejectsOrigin(t *testing.T) {
	env := newTestEnv(t, Config{AllowedOrigins: []string{"https://app.example"}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.hub.Run(ctx)

	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), header)
	if err == nil {
		t.Fatal("Dial() succeeded from a foreign origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v", resp)
	}
}

func TestWebSocketRequiresKey(t *testing.T) {
	const key = "0123456789abcdef"
	env := newTestEnv(t, Config{Auth: AuthConfig{Enabled: true, APIKey: key}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.hub.Run(ctx)

	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Dial() without key: err = %v, resp = %v", err, resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts)+"?api_key="+key, nil)
	if err != nil {
		t.Fatalf("Dial() with key error = %v", err)
	}
	conn.Close()
}

func TestHubStopsWithContext(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	c := &Client{hub: hub, send: make(chan []byte, 1)}
	if hub.add(c) {
		t.Error("add() after shutdown should fail")
	}
	hub.remove(c)
	hub.Progress("generate", "resolve", "late", 10)
}

func TestIsOriginAllowed(t *testing.T) {
	tests := []struct {
		origin  string
		allowed []string
		want    bool
	}{
		{"https://any.example", nil, true},
		{"", nil, true},
		{"", []string{"https://app.example"}, false},
		{"https://app.example", []string{"https://app.example"}, true},
		{"https://other.example", []string{"https://app.example"}, false},
		{"https://x.example.com", []string{"*.example.com"}, true},
		{"https://example.org", []string{"*.example.com"}, false},
		{"https://whatever", []string{"*"}, true},
	}
	for _, tt := range tests {
		if got := isOriginAllowed(tt.origin, tt.allowed); got != tt.want {
			t.Errorf("isOriginAllowed(%q, %v) = %v, want %v", tt.origin, tt.allowed, got, tt.want)
		}
	}
}

func TestWebSocketRateLimiter(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewWebSocketRateLimiter()
	rl.now = clock.now
	c := &Client{}

	if rl.Allow(c) {
		t.Fatal("unregistered client allowed")
	}
	rl.Register(c, 2)
	for i := 0; i < 4; i++ {
		if !rl.Allow(c) {
			t.Fatalf("message %d within burst denied", i)
		}
	}
	if rl.Allow(c) {
		t.Error("message past burst allowed")
	}
	clock.advance(time.Second)
	if !rl.Allow(c) {
		t.Error("refilled message denied")
	}
	rl.Unregister(c)
	if rl.Allow(c) {
		t.Error("unregistered client allowed")
	}
}
