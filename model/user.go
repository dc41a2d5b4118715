package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Preference 择偶偏好（存储为 JSON 列，不建独立表）
type Preference struct {
	AgeRange         [2]int    `json:"age_range"`         // [min, max] 岁
	HeightRange      [2]string `json:"height_range"`      // 英尺英寸格式，如 "5'4\""
	MaxDistanceKm    int       `json:"max_distance_km"`   // 最大距离偏好
	Ethnicity        string    `json:"ethnicity"`
	Religion         string    `json:"religion"`
	RelationshipGoal string    `json:"relationship_goal"`
	Smoking          string    `json:"smoking"`
	Education        string    `json:"education"`
	Drinking         string    `json:"drinking"`
	Kids             string    `json:"kids"`
	InterestedGender string    `json:"interested_gender"`
}

func (p Preference) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *Preference) Scan(value interface{}) error {
	return scanJSON(value, p)
}

// StringList JSON 数组列（兴趣、照片引用）
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// User 用户表
// Discovery 只读；Interaction Recorder 仅修改 swipe_quota。
// 身份凭证、订阅分配、照片上传由外部系统负责，这里只存引用。
type User struct {
	ID              uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	Name            string      `json:"name" gorm:"type:varchar(100);not null"`
	Email           string      `json:"email" gorm:"type:varchar(128);uniqueIndex;not null"`
	Gender          string      `json:"gender" gorm:"type:varchar(16)"`
	Bio             string      `json:"bio,omitempty" gorm:"type:text"`
	Location        string      `json:"location,omitempty" gorm:"type:varchar(128)"`
	DOB             string      `json:"dob,omitempty" gorm:"column:dob;type:varchar(10)"` // YYYY-MM-DD
	Interests       StringList  `json:"interests" gorm:"type:jsonb"`
	InterestedIn    string      `json:"interested_gender,omitempty" gorm:"column:interested_gender;type:varchar(16)"`
	PhotoURLs       StringList  `json:"photo_urls" gorm:"type:jsonb"` // 第一张为主照片
	Preference      *Preference `json:"preference,omitempty" gorm:"type:jsonb"`
	Lon             *float64    `json:"lon,omitempty"`
	Lat             *float64    `json:"lat,omitempty"`
	SwipeQuota      int         `json:"swipe_quota" gorm:"default:0"`
	UnlimitedSwipes bool        `json:"unlimited_swipes" gorm:"default:false"`
	LastActiveAt    *time.Time  `json:"last_active_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time   `json:"updated_at" gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// HasCoords reports whether the user has a usable coordinate pair.
func (u *User) HasCoords() bool {
	return u.Lon != nil && u.Lat != nil
}

// PrimaryPhoto 主照片引用，没有照片时为空字符串
func (u *User) PrimaryPhoto() string {
	if len(u.PhotoURLs) == 0 {
		return ""
	}
	return u.PhotoURLs[0]
}

// Block 拉黑关系表（单向记录；业务检查双向）
type Block struct {
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	BlockedID uuid.UUID `json:"blocked_id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Block) TableName() string {
	return "user_blocks"
}

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return errors.New("unsupported type for JSON column")
	}
}
