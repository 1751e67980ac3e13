package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vnkhanh/onboarding-backend/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// Hub giữ các kết nối dashboard và phát hoạt động onboarding mới tới tất cả.
type Hub struct {
	clients map[*websocket.Conn]*Client
	mu      sync.RWMutex
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]*Client),
		logger:  logger,
	}
}

// ActivityMessage là payload gửi xuống dashboard.
type ActivityMessage struct {
	Type     string                  `json:"type"`
	Activity models.ActivityLogEntry `json:"activity"`
}

// Register thêm kết nối và khởi chạy read/write pump của nó.
func (h *Hub) Register(conn *websocket.Conn) *Client {
	client := &Client{
		Conn: conn,
		Send: make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	h.clients[conn] = client
	h.mu.Unlock()

	go h.writePump(client)
	go h.readPump(client)
	return client
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[conn]; ok {
		close(client.Send)
		delete(h.clients, conn)
	}
}

// Broadcast gửi tới mọi client. Client có hàng đợi đầy bị bỏ qua tin này.
func (h *Hub) Broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// SendTo gửi cho một kết nối nếu nó vẫn còn đăng ký.
func (h *Hub) SendTo(conn *websocket.Conn, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, ok := h.clients[conn]; ok {
		select {
		case client.Send <- data:
		default:
		}
	}
}

func (h *Hub) NotifyActivity(entry models.ActivityLogEntry) {
	data, err := json.Marshal(ActivityMessage{Type: "activity", Activity: entry})
	if err != nil {
		h.logger.Error("ws marshal failed", "error", err)
		return
	}
	h.Broadcast(data)
}

type Stats struct {
	Clients int `json:"clients"`
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{Clients: len(h.clients)}
}

func (h *Hub) readPump(client *Client) {
	defer h.Unregister(client.Conn)
	client.Conn.SetReadLimit(512)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
