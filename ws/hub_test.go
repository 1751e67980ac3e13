package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vnkhanh/onboarding-backend/models"
	"github.com/vnkhanh/onboarding-backend/services"
)

type fakeAuth struct {
	role models.Role
}

func (f fakeAuth) Authenticate(_ context.Context, token string) (*services.Identity, error) {
	if token != "good" {
		return nil, services.ErrInvalidToken
	}
	return &services.Identity{AccountID: uuid.New(), Role: f.role}, nil
}

func newTestServer(t *testing.T, role models.Role) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := gin.New()
	r.GET("/ws/dashboard", DashboardHandler(hub, fakeAuth{role: role}, func(string) bool { return true }))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, srv
}

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/dashboard?token=" + token
}

func readJSON(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
}

func TestDashboardReceivesActivity(t *testing.T) {
	hub, srv := newTestServer(t, models.RoleManager)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "good"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var hello map[string]string
	readJSON(t, conn, &hello)
	if hello["type"] != "connected" {
		t.Fatalf("expected connected message, got %v", hello)
	}
	if hub.Stats().Clients != 1 {
		t.Fatalf("expected 1 client, got %d", hub.Stats().Clients)
	}

	hub.NotifyActivity(models.ActivityLogEntry{ID: 7, Action: "Completed topic Docker", TopicTitle: "Docker", Type: models.ActivityCompleted})

	var msg ActivityMessage
	readJSON(t, conn, &msg)
	if msg.Type != "activity" || msg.Activity.ID != 7 || msg.Activity.Type != models.ActivityCompleted {
		t.Fatalf("unexpected message %+v", msg)
	}

	conn.Close()
	deadline := time.Now().Add(5 * time.Second)
	for hub.Stats().Clients != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client was not unregistered after close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDashboardRejectsUnauthorized(t *testing.T) {
	_, srv := newTestServer(t, models.RoleMember)

	cases := map[string]int{
		"":     http.StatusUnauthorized,
		"bad":  http.StatusUnauthorized,
		"good": http.StatusForbidden,
	}
	for token, want := range cases {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, token), nil)
		if !errors.Is(err, websocket.ErrBadHandshake) {
			t.Fatalf("token %q: expected bad handshake, got %v", token, err)
		}
		if resp.StatusCode != want {
			t.Errorf("token %q: expected %d, got %d", token, want, resp.StatusCode)
		}
	}
}

func TestBroadcastWithoutClients(t *testing.T) {
	hub := NewHub(nil)
	hub.NotifyActivity(models.ActivityLogEntry{Action: "noop"})
	if hub.Stats().Clients != 0 {
		t.Fatal("expected no clients")
	}
}
