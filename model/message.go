package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UUIDList JSON 数组列（seen_by）
type UUIDList []uuid.UUID

func (l UUIDList) Value() (driver.Value, error) {
	if l == nil {
		l = UUIDList{}
	}
	return json.Marshal(l)
}

func (l *UUIDList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// Contains reports whether id is in the list.
func (l UUIDList) Contains(id uuid.UUID) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Message 消息表
// seen_by 只增不减；发送者在创建时写入。消息没有独立生命周期，
// 始终属于其会话。
type Message struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID `json:"conversation_id" gorm:"type:uuid;not null;index"`
	SenderID       uuid.UUID `json:"sender_id" gorm:"type:uuid;not null"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	SeenBy         UUIDList  `json:"seen_by" gorm:"type:jsonb"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Preview 消息内容预览（超过 50 字符截断）
func (m *Message) Preview() string {
	runes := []rune(m.Content)
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}
	return m.Content
}
