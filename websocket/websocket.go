package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go-chat/pairchat/chat"
	"go-chat/pairchat/logger"
	"go-chat/pairchat/utils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// 將訊息寫入到遠端對等點的最長時間
	writeWait = 10 * time.Second

	// 允許從遠端對等點讀取下一個 pong 訊息的最長時間。
	pongWait = 60 * time.Second

	// 發送 ping 訊息給遠端對等點的週期。
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 32 * 1024

	// 每個客戶端待送出的事件緩衝
	sendBufferSize = 256
)

// Envelope 所有 WebSocket 訊框的格式: {"event": "...", "data": {...}}
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Client 代表一個 WebSocket 客戶端
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte // 已編碼好的 JSON 訊框
	ID        string      // 連線 ID
	closeOnce sync.Once
}

// close 關閉底層連線，readPump 會因此結束並觸發 unregister
func (c *Client) close() {
	c.closeOnce.Do(func() { c.conn.Close() })
}

// 讀取用戶傳來的事件，交給 router 處理
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, p, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("read error", zap.String("connId", c.ID), zap.Error(err))
			} else {
				logger.Debug("client disconnected", zap.String("connId", c.ID))
			}
			break
		}

		if err := c.hub.route(c.ID, p); err != nil {
			logger.Debug("command rejected", zap.String("connId", c.ID), zap.Error(err))
			c.hub.Send(c.ID, chat.EventError, chat.ErrorPayload{Message: chat.Describe(err)})
		}
	}
}

// 接收 Hub 送來的訊框，寫給前端
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 關閉了 channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.Debug("write error", zap.String("connId", c.ID), zap.Error(err))
				return
			}

		// 定時 ping 以保持連線活躍並檢測客戶端是否仍在線。
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub 維護所有活躍的 WebSocket 客戶端，並實作 chat.Sink
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	manager  *chat.Manager
	upgrader websocket.Upgrader

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewHub 創建 Hub；allowedOrigins 為空或包含 "*" 時接受所有來源
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// Bind 設定處理指令的 Manager，必須在 Run 之前呼叫
func (h *Hub) Bind(m *chat.Manager) {
	h.manager = m
}

// Run 啟動 Hub 的運行迴圈，直到 ctx 結束
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			total := len(h.clients)
			h.mu.Unlock()

			h.manager.Connect(client.ID)
			go client.writePump()
			go client.readPump()
			logger.Info("client registered", zap.String("connId", client.ID), zap.Int("clients", total))

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client.ID]
			if ok {
				delete(h.clients, client.ID)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()

			if ok {
				h.manager.Disconnect(client.ID)
				logger.Info("client unregistered", zap.String("connId", client.ID), zap.Int("clients", total))
			}

		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// leave 在 Run 結束後不會阻塞
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast 送給所有連線
func (h *Hub) Broadcast(event string, payload interface{}) {
	frame, err := encode(event, payload)
	if err != nil {
		logger.Error("encode event", zap.String("event", event), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		h.safeSend(client, frame)
	}
}

// Send 送給單一連線，連線不存在或緩衝已滿時回傳 false
func (h *Hub) Send(connID, event string, payload interface{}) bool {
	frame, err := encode(event, payload)
	if err != nil {
		logger.Error("encode event", zap.String("event", event), zap.Error(err))
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[connID]
	if !ok {
		return false
	}
	return h.safeSend(client, frame)
}

// safeSend 不阻塞；緩衝已滿代表客戶端太慢，直接關閉連線
func (h *Hub) safeSend(c *Client, frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		logger.Warn("client send buffer full, closing", zap.String("connId", c.ID))
		go c.close()
		return false
	}
}

// ClientCount 目前的連線數
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleConnections 處理 WebSocket 連線請求
func (h *Hub) HandleConnections(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("failed to upgrade to websocket", zap.Error(err))
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		ID:   utils.NewConnectionID(),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
	case <-r.Context().Done():
		conn.Close()
	}
}

func encode(event string, payload interface{}) ([]byte, error) {
	return json.Marshal(outbound{Event: event, Data: payload})
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		logger.Warn("rejected websocket origin", zap.String("origin", origin))
		return false
	}
}
