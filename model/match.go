package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderPair 把无序用户对规范化为 (low, high)，保证唯一索引键稳定
func OrderPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}

// Match 配对表
// (user_a_id, user_b_id) 为规范化无序对，唯一索引保证每对最多一条记录。
// 配对一旦创建不可变，也不会被本引擎删除。
type Match struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserAID        uuid.UUID `json:"user_a_id" gorm:"type:uuid;not null;uniqueIndex:idx_matches_pair,priority:1"`
	UserBID        uuid.UUID `json:"user_b_id" gorm:"type:uuid;not null;uniqueIndex:idx_matches_pair,priority:2"`
	ConversationID uuid.UUID `json:"conversation_id" gorm:"type:uuid;not null"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Match) TableName() string {
	return "matches"
}

func (m *Match) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Conversation 会话表
// 与 Match 1:1 同事务创建；(user_a_id, user_b_id) 唯一索引是
// create-if-absent 的并发护栏（冲突即已存在，读回即可）。
type Conversation struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserAID       uuid.UUID  `json:"user_a_id" gorm:"type:uuid;not null;uniqueIndex:idx_conversations_pair,priority:1"`
	UserBID       uuid.UUID  `json:"user_b_id" gorm:"type:uuid;not null;uniqueIndex:idx_conversations_pair,priority:2;index"`
	LastMessageID *uuid.UUID `json:"last_message_id,omitempty" gorm:"type:uuid"`
	CreatedAt     time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// HasParticipant 用户是否是会话参与者
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.UserAID == userID || c.UserBID == userID
}

// Counterpart 返回会话中的对方用户
func (c *Conversation) Counterpart(userID uuid.UUID) uuid.UUID {
	if c.UserAID == userID {
		return c.UserBID
	}
	return c.UserAID
}
