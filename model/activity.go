package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserActivity 月度活动计数表
// 每用户每自然月一行，首个事件发生时 upsert 惰性创建，只增不改写。
type UserActivity struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID  uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_activity_user_month,priority:1"`
	Year    int       `json:"year" gorm:"not null;uniqueIndex:idx_activity_user_month,priority:2"`
	Month   int       `json:"month" gorm:"not null;uniqueIndex:idx_activity_user_month,priority:3"`
	Likes   int       `json:"likes" gorm:"default:0"`
	Matches int       `json:"matches" gorm:"default:0"`
	Swipes  int       `json:"swipes" gorm:"default:0"`
}

func (UserActivity) TableName() string {
	return "user_activities"
}

func (a *UserActivity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
