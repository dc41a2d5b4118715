package model

import (
	"time"

	"github.com/google/uuid"
)

// SwipeKind 滑动类型
type SwipeKind string

const (
	SwipeLike    SwipeKind = "like"
	SwipeDislike SwipeKind = "dislike"
)

func (k SwipeKind) Valid() bool {
	return k == SwipeLike || k == SwipeDislike
}

// Swipe 滑动决定表
// 复合主键 (sender_id, receiver_id)：每个有序对最多一条 like/dislike 记录，
// upsert 时直接覆盖 kind。
type Swipe struct {
	SenderID   uuid.UUID `json:"sender_id" gorm:"type:uuid;primaryKey"`
	ReceiverID uuid.UUID `json:"receiver_id" gorm:"type:uuid;primaryKey;index:idx_swipes_receiver_kind,priority:1"`
	Kind       SwipeKind `json:"kind" gorm:"type:varchar(10);not null;index:idx_swipes_receiver_kind,priority:2"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Swipe) TableName() string {
	return "swipes"
}

// Favorite 收藏表
// 与 dislike 互斥：对同一有序对记录 dislike 时会删除收藏。
// 重复收藏是幂等 no-op（复合主键 + DoNothing upsert）。
type Favorite struct {
	SenderID   uuid.UUID `json:"sender_id" gorm:"type:uuid;primaryKey"`
	ReceiverID uuid.UUID `json:"receiver_id" gorm:"type:uuid;primaryKey"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Favorite) TableName() string {
	return "favorites"
}
