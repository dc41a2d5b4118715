package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"sparkmatch/config"
	"sparkmatch/middleware"
	"sparkmatch/model"
	"sparkmatch/service"
	"sparkmatch/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: 生产环境需要检查 Origin
		return true
	},
}

// Client WebSocket 客户端，每个设备一个。
// 每个客户端订阅自己的个人频道，进入会话页面后追加订阅该会话频道。
type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub

	pubsub                *redis.PubSub
	CurrentConversationID *uuid.UUID // 当前正在查看的会话
	mu                    sync.RWMutex
	closed                bool // Send channel 是否已关闭
}

// Hub WebSocket 连接管理中心
type Hub struct {
	// 在线用户 map[userID]map[clientID]*Client（支持多设备）
	Clients map[uuid.UUID]map[uuid.UUID]*Client
	mu      sync.RWMutex

	// 最大连接数限制（每个用户）
	MaxConnectionsPerUser int

	rdb     *redis.Client
	convSvc *service.ConversationService
	cfg     *config.Config
}

// NewHub 创建 Hub
func NewHub(rdb *redis.Client, convSvc *service.ConversationService, cfg *config.Config) *Hub {
	return &Hub{
		Clients:               make(map[uuid.UUID]map[uuid.UUID]*Client),
		MaxConnectionsPerUser: cfg.MaxDevicesPerUser,
		rdb:                   rdb,
		convSvc:               convSvc,
		cfg:                   cfg,
	}
}

// Register 注册客户端（支持多设备，限制最大连接数）
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()

	if h.Clients[client.UserID] == nil {
		h.Clients[client.UserID] = make(map[uuid.UUID]*Client)
	}

	if len(h.Clients[client.UserID]) >= h.MaxConnectionsPerUser {
		h.mu.Unlock() // 先释放锁，再进行网络操作

		log.Printf("[ERROR] User %s exceeds max connections (%d), rejecting new connection (client ID: %s)",
			client.UserID, h.MaxConnectionsPerUser, client.ID)

		errPayload := model.Envelope{
			Event: "error",
			Data: map[string]interface{}{
				"code":    "too_many_devices",
				"message": fmt.Sprintf("Maximum %d devices allowed", h.MaxConnectionsPerUser),
			},
		}
		if msg, err := json.Marshal(errPayload); err == nil {
			_ = client.Conn.WriteMessage(websocket.TextMessage, msg)
		}

		client.Conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure,
				fmt.Sprintf("Maximum %d devices allowed", h.MaxConnectionsPerUser)))
		client.Conn.Close()
		return false
	}

	h.Clients[client.UserID][client.ID] = client
	deviceCount := len(h.Clients[client.UserID])
	totalUsers := len(h.Clients)

	h.mu.Unlock() // 尽早释放锁

	if h.cfg.EnablePresence {
		utils.MarkOnline(context.Background(), h.rdb, client.UserID,
			time.Duration(h.cfg.PresenceTTLSeconds)*time.Second)
	}

	log.Printf("User %s connected (client: %s), total devices: %d, total users: %d",
		client.UserID, client.ID, deviceCount, totalUsers)
	return true
}

// Unregister 注销客户端（支持多设备）
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()

	if userClients, exists := h.Clients[client.UserID]; exists {
		if _, found := userClients[client.ID]; found {
			delete(userClients, client.ID)

			// 最后一个设备断开时清除在线状态
			if len(userClients) == 0 {
				delete(h.Clients, client.UserID)

				if h.cfg.EnablePresence {
					utils.MarkOffline(context.Background(), h.rdb, client.UserID)
				}

				log.Printf("User %s disconnected (client: %s), all devices offline, total users: %d",
					client.UserID, client.ID, len(h.Clients))
			} else {
				log.Printf("User %s disconnected (client: %s), remaining devices: %d",
					client.UserID, client.ID, len(userClients))
			}
		}
	}

	h.mu.Unlock()

	if client.pubsub != nil {
		client.pubsub.Close()
	}

	// 安全关闭 Send channel
	client.mu.Lock()
	if !client.closed {
		close(client.Send)
		client.closed = true
	}
	client.mu.Unlock()
}

// IsUserOnline 检查用户是否在线（至少有一个设备在线）
func (h *Hub) IsUserOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	userClients, exists := h.Clients[userID]
	return exists && len(userClients) > 0
}

// ForceOffline 强制用户离线（用于登出）
func (h *Hub) ForceOffline(userID uuid.UUID) {
	if h.cfg.EnablePresence {
		utils.MarkOffline(context.Background(), h.rdb, userID)
	}

	h.mu.RLock()
	userClients, exists := h.Clients[userID]
	if !exists {
		h.mu.RUnlock()
		return
	}
	// 复制一份 client 列表，避免在遍历时修改
	clientsCopy := make([]*Client, 0, len(userClients))
	for _, client := range userClients {
		clientsCopy = append(clientsCopy, client)
	}
	h.mu.RUnlock()

	for _, client := range clientsCopy {
		h.Unregister(client)
	}
}

// WSMessage WebSocket 消息格式
type WSMessage struct {
	Type string          `json:"type"` // 'heartbeat' | 'typing' | 'seen' | 'set_current_conversation'
	Data json.RawMessage `json:"data"`
}

// HandleWebSocket 处理 WebSocket 连接
func HandleWebSocket(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 从 query 参数获取 token
		tokenString := c.Query("token")
		if tokenString == "" {
			utils.Unauthorized(c, "missing token")
			return
		}

		userID, err := middleware.ValidateToken(tokenString)
		if err != nil {
			utils.Unauthorized(c, "invalid token")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[ERROR] WebSocket upgrade failed for user %s: %v", userID, err)
			return
		}

		client := &Client{
			ID:     uuid.New(),
			UserID: userID,
			Conn:   conn,
			Send:   make(chan []byte, 256),
			Hub:    hub,
		}

		if !hub.Register(client) {
			return
		}

		// 订阅个人频道，进入会话后再追加会话频道
		ctx := context.Background()
		client.pubsub = hub.rdb.Subscribe(ctx, model.UserTopic(userID))

		go client.relayPump()
		go client.readPump()
		go client.writePump()
	}
}

// relayPump 把 Redis 频道上的事件转发到 WebSocket
func (c *Client) relayPump() {
	ch := c.pubsub.Channel()
	for msg := range ch {
		select {
		case c.Send <- []byte(msg.Payload):
		default:
			// 发送通道满了，关闭该设备连接
			log.Printf("[ERROR] Send channel FULL: user=%s, client=%s, closing connection", c.UserID, c.ID)
			go c.Hub.Unregister(c)
			return
		}
	}
}

// readPump 从 WebSocket 读取客户端指令
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure) {
				log.Printf("[ERROR] User %s WebSocket unexpected close error: %v", c.UserID, err)
			}
			break
		}

		var wsMsg WSMessage
		if err := json.Unmarshal(message, &wsMsg); err != nil {
			log.Printf("[ERROR] Invalid message format: %v", err)
			c.sendError("Invalid JSON format")
			continue
		}

		switch wsMsg.Type {
		case "heartbeat":
			// 心跳刷新在线状态
			if c.Hub.cfg.EnablePresence {
				utils.MarkOnline(context.Background(), c.Hub.rdb, c.UserID,
					time.Duration(c.Hub.cfg.PresenceTTLSeconds)*time.Second)
			}

		case "typing":
			c.handleTyping(wsMsg.Data)

		case "seen":
			c.handleMarkSeen(wsMsg.Data)

		case "set_current_conversation":
			c.handleSetCurrentConversation(wsMsg.Data)
		}
	}
}

// writePump 向 WebSocket 写入消息
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub 关闭了通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			// 发送 ping 保持连接
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleTyping 处理正在输入提示
func (c *Client) handleTyping(data json.RawMessage) {
	if !c.Hub.cfg.EnableTypingIndicator {
		return
	}

	var req struct {
		ConversationID uuid.UUID `json:"conversation_id"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}

	if err := c.Hub.convSvc.Typing(context.Background(), req.ConversationID, c.UserID); err != nil {
		log.Printf("[ERROR] Failed to broadcast typing: %v", err)
	}
}

// handleMarkSeen 处理已读回执
func (c *Client) handleMarkSeen(data json.RawMessage) {
	var req struct {
		ConversationID uuid.UUID `json:"conversation_id"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		log.Printf("[ERROR] Invalid seen format: %v", err)
		return
	}

	if err := c.Hub.convSvc.MarkSeen(context.Background(), req.ConversationID, c.UserID); err != nil {
		log.Printf("[ERROR] Failed to mark seen: %v", err)
	}
}

// handleSetCurrentConversation 切换当前查看的会话，同步调整订阅的会话频道
func (c *Client) handleSetCurrentConversation(data json.RawMessage) {
	var req struct {
		ConversationID *string `json:"conversation_id"` // null 表示离开聊天页面
	}
	if err := json.Unmarshal(data, &req); err != nil {
		log.Printf("[ERROR] Invalid set_current_conversation format: %v", err)
		return
	}

	ctx := context.Background()

	c.mu.Lock()
	defer c.mu.Unlock()

	// 退订旧会话频道
	if c.CurrentConversationID != nil {
		if err := c.pubsub.Unsubscribe(ctx, model.ConversationTopic(*c.CurrentConversationID)); err != nil {
			log.Printf("[ERROR] Failed to unsubscribe conversation topic: %v", err)
		}
		c.CurrentConversationID = nil
	}

	if req.ConversationID == nil || *req.ConversationID == "" {
		return
	}

	convID, err := uuid.Parse(*req.ConversationID)
	if err != nil {
		log.Printf("[ERROR] Invalid conversation_id: %v", err)
		return
	}

	// 只有会话参与者才能订阅会话频道
	if _, err := c.Hub.convSvc.GetConversation(ctx, convID, c.UserID); err != nil {
		log.Printf("[ERROR] User %s cannot subscribe conversation %s: %v", c.UserID, convID, err)
		return
	}

	if err := c.pubsub.Subscribe(ctx, model.ConversationTopic(convID)); err != nil {
		log.Printf("[ERROR] Failed to subscribe conversation topic: %v", err)
		return
	}
	c.CurrentConversationID = &convID
}

// sendError 发送错误消息给客户端
func (c *Client) sendError(errMsg string) {
	response := model.Envelope{
		Event: "error",
		Data:  map[string]string{"message": errMsg},
	}
	responseData, _ := json.Marshal(response)

	// 非阻塞发送
	select {
	case c.Send <- responseData:
	default:
		log.Printf("[ERROR] Failed to send error message to user %s: channel full", c.UserID)
	}
}
