package service

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sparkmatch/apperr"
	"sparkmatch/model"
)

// RelationshipService 拉黑关系管理
type RelationshipService struct {
	db *gorm.DB
}

func NewRelationshipService(db *gorm.DB) *RelationshipService {
	return &RelationshipService{db: db}
}

// BlockUser 拉黑用户
func (s *RelationshipService) BlockUser(userID, targetUserID uuid.UUID) error {
	if userID == targetUserID {
		return apperr.Validation("cannot block yourself")
	}

	var count int64
	if err := s.db.Model(&model.User{}).Where("id = ?", targetUserID).Count(&count).Error; err != nil {
		return apperr.Internal(err)
	}
	if count == 0 {
		return apperr.NotFound("user not found")
	}

	if err := s.db.Model(&model.Block{}).
		Where("user_id = ? AND blocked_id = ?", userID, targetUserID).
		Count(&count).Error; err != nil {
		return apperr.Internal(err)
	}
	if count > 0 {
		return apperr.Conflict("user already blocked")
	}

	block := &model.Block{UserID: userID, BlockedID: targetUserID}
	if err := s.db.Create(block).Error; err != nil {
		return apperr.Internal(fmt.Errorf("failed to block user: %w", err))
	}
	return nil
}

// UnblockUser 取消拉黑
func (s *RelationshipService) UnblockUser(userID, targetUserID uuid.UUID) error {
	result := s.db.Where("user_id = ? AND blocked_id = ?", userID, targetUserID).
		Delete(&model.Block{})
	if result.Error != nil {
		return apperr.Internal(fmt.Errorf("failed to unblock user: %w", result.Error))
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("user not blocked")
	}
	return nil
}

// GetBlockedUsers 获取拉黑列表
func (s *RelationshipService) GetBlockedUsers(userID uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := s.db.
		Joins("JOIN user_blocks ON user_blocks.blocked_id = users.id").
		Where("user_blocks.user_id = ?", userID).
		Order("user_blocks.created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to list blocked users: %w", err))
	}
	return users, nil
}
