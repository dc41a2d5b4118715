package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// 实时事件契约。payload 是跨进程的稳定契约（消费方是独立客户端），
// 所以全部用固定结构体，禁止临时 map。

// 个人 topic 事件（跨会话）
const (
	EventLike               = "like"
	EventFavorite           = "fav"
	EventMatch              = "match"
	EventConversationUpdate = "conversation:update"
)

// 会话 topic 事件
const (
	EventNewMessage    = "messages:new"
	EventMessageUpdate = "message:update"
	EventTyping        = "message:typing"
)

// UserTopic 个人频道名（每用户一个）
func UserTopic(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// ConversationTopic 会话频道名（每会话一个）
func ConversationTopic(conversationID uuid.UUID) string {
	return "conversation:" + conversationID.String()
}

// Envelope 发到 broker 的统一信封
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// RawEnvelope 订阅侧的信封（data 不解）
type RawEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// LikePayload "收到喜欢" 通知
type LikePayload struct {
	SenderID    uuid.UUID `json:"sender_id"`
	SenderName  string    `json:"sender_name"`
	SenderPhoto string    `json:"sender_photo,omitempty"`
	SenderAge   int       `json:"sender_age,omitempty"`
}

// FavoritePayload "收到收藏" 通知，与 LikePayload 同形但独立演进
type FavoritePayload struct {
	SenderID    uuid.UUID `json:"sender_id"`
	SenderName  string    `json:"sender_name"`
	SenderPhoto string    `json:"sender_photo,omitempty"`
	SenderAge   int       `json:"sender_age,omitempty"`
}

// MatchPayload 配对成功通知（发给双方，各自携带对方的摘要）
type MatchPayload struct {
	MatchID        uuid.UUID `json:"match_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"` // 对方
	Name           string    `json:"name"`
	Photo          string    `json:"photo,omitempty"`
}

// MessagePreview 会话摘要里的最新消息
type MessagePreview struct {
	ID        uuid.UUID `json:"id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationUpdatePayload 会话摘要更新（含接收方重算后的未读数）
type ConversationUpdatePayload struct {
	ConversationID uuid.UUID       `json:"conversation_id"`
	LastMessage    *MessagePreview `json:"last_message,omitempty"`
	UnreadCount    int64           `json:"unread_count"`
}

// NewMessagePayload 新消息事件
type NewMessagePayload struct {
	Message Message `json:"message"`
}

// SeenPayload 已读状态更新
type SeenPayload struct {
	ConversationID uuid.UUID   `json:"conversation_id"`
	UserID         uuid.UUID   `json:"user_id"` // 标记已读的用户
	MessageIDs     []uuid.UUID `json:"message_ids"`
}

// TypingPayload 正在输入提示（不落库）
type TypingPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
}
