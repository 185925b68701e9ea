package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/qs3c/hms_go_server/internal/pkg/logger"
)

type Hub struct {
	// 每个用户可以有多个连接（多标签页、前台多终端等场景）
	clients map[int64]map[*Client]struct{}
	mu      sync.RWMutex
	log     *slog.Logger
}

type Client struct {
	UserID   int64
	TenantID int64
	Conn     *websocket.Conn
	mu       sync.Mutex // 写锁，防止并发写入
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]struct{}),
		log:     logger.WithComponent("ws"),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[*Client]struct{})
	}
	h.clients[client.UserID][client] = struct{}{}

	h.log.Debug("client connected",
		"user_id", client.UserID,
		"tenant_id", client.TenantID,
		"user_conns", len(h.clients[client.UserID]))
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.clients[client.UserID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	h.log.Debug("client disconnected", "user_id", client.UserID)
}

// SendToUser 向指定用户的所有连接发送消息，用户离线时直接忽略
func (h *Hub) SendToUser(userID int64, msg *Message) error {
	return h.send(userID, 0, msg)
}

// SendToTenantUser 只发给用户在指定酒店站点上的连接
func (h *Hub) SendToTenantUser(tenantID, userID int64, msg *Message) error {
	return h.send(userID, tenantID, msg)
}

// send tenantID 为 0 时不过滤租户
func (h *Hub) send(userID, tenantID int64, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	conns, ok := h.clients[userID]
	if !ok {
		h.mu.RUnlock()
		return nil
	}
	// 复制一份引用，避免长时间持锁
	clients := make([]*Client, 0, len(conns))
	for c := range conns {
		if tenantID != 0 && c.TenantID != tenantID {
			continue
		}
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.mu.Lock()
		err := c.Conn.WriteMessage(websocket.TextMessage, data)
		c.mu.Unlock()
		if err != nil {
			h.log.Warn("write failed", "user_id", userID, "error", err)
		}
	}
	return nil
}

// IsOnline 检查用户是否在线
func (h *Hub) IsOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns, ok := h.clients[userID]
	return ok && len(conns) > 0
}

// ConnectionCount 获取在线连接数
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}
