package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sparkmatch/apperr"
	"sparkmatch/model"
	"sparkmatch/utils"
)

// InteractionService 处理 like/dislike/favorite 以及互相喜欢后的匹配。
type InteractionService struct {
	db         *gorm.DB
	dispatcher *Dispatcher
}

func NewInteractionService(db *gorm.DB, dispatcher *Dispatcher) *InteractionService {
	return &InteractionService{db: db, dispatcher: dispatcher}
}

// LikeResult like 操作的结果，匹配成功时带上会话 ID
type LikeResult struct {
	Matched        bool       `json:"matched"`
	MatchID        *uuid.UUID `json:"match_id,omitempty"`
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
}

// RecordLike 记录一次 like：扣额度、写互动记录、计数、通知、检测匹配
func (s *InteractionService) RecordLike(ctx context.Context, senderID, receiverID uuid.UUID) (*LikeResult, error) {
	if senderID == receiverID {
		return nil, apperr.Validation("cannot like yourself")
	}

	var sender, receiver model.User
	if err := s.db.First(&sender, "id = ?", senderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("sender not found")
		}
		return nil, apperr.Internal(err)
	}
	if err := s.db.First(&receiver, "id = ?", receiverID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFound("receiver not found")
		}
		return nil, apperr.Internal(err)
	}

	if err := s.checkNotBlocked(senderID, receiverID); err != nil {
		return nil, err
	}

	// 重复 like 是幂等的：不再扣额度、不重复计数、不重复通知，
	// 只重新做匹配检测（匹配检测本身可安全重放）
	var prior model.Swipe
	err := s.db.First(&prior, "sender_id = ? AND receiver_id = ?", senderID, receiverID).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, apperr.Internal(err)
	}
	repeated := err == nil && prior.Kind == model.SwipeLike

	if !repeated {
		if err := s.spendQuota(&sender); err != nil {
			return nil, err
		}

		// dislike→like 转换时覆盖记录类型
		res := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sender_id"}, {Name: "receiver_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"kind": model.SwipeLike, "updated_at": time.Now()}),
		}).Create(&model.Swipe{SenderID: senderID, ReceiverID: receiverID, Kind: model.SwipeLike})
		if res.Error != nil {
			return nil, apperr.Internal(fmt.Errorf("failed to record like: %w", res.Error))
		}

		if err := s.bumpActivity(senderID, 1, 0, 1); err != nil {
			return nil, err
		}

		s.publishLike(ctx, &sender, receiverID)
	}

	matched, matchID, conversationID, err := s.detectMatch(ctx, &sender, &receiver)
	if err != nil {
		return nil, err
	}
	result := &LikeResult{Matched: matched}
	if matched {
		result.MatchID = &matchID
		result.ConversationID = &conversationID
	}
	return result, nil
}

// RecordDislike 记录 dislike，同时清掉已有的收藏
func (s *InteractionService) RecordDislike(ctx context.Context, senderID, receiverID uuid.UUID) error {
	if senderID == receiverID {
		return apperr.Validation("cannot dislike yourself")
	}
	if err := s.mustExist(receiverID); err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// dislike 覆盖收藏
		if err := tx.Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
			Delete(&model.Favorite{}).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sender_id"}, {Name: "receiver_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"kind": model.SwipeDislike, "updated_at": time.Now()}),
		}).Create(&model.Swipe{SenderID: senderID, ReceiverID: receiverID, Kind: model.SwipeDislike}).Error
	})
	if err != nil {
		return apperr.Internal(fmt.Errorf("failed to record dislike: %w", err))
	}

	return s.bumpActivity(senderID, 0, 0, 1)
}

// RecordFavorite 收藏用户，重复收藏是幂等的（不重复计数和通知）
func (s *InteractionService) RecordFavorite(ctx context.Context, senderID, receiverID uuid.UUID) error {
	if senderID == receiverID {
		return apperr.Validation("cannot favorite yourself")
	}

	var sender model.User
	if err := s.db.First(&sender, "id = ?", senderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFound("sender not found")
		}
		return apperr.Internal(err)
	}
	if err := s.mustExist(receiverID); err != nil {
		return err
	}
	if err := s.checkNotBlocked(senderID, receiverID); err != nil {
		return err
	}

	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Favorite{SenderID: senderID, ReceiverID: receiverID})
	if res.Error != nil {
		return apperr.Internal(fmt.Errorf("failed to record favorite: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		// 已经收藏过
		return nil
	}

	if err := s.bumpActivity(senderID, 0, 0, 1); err != nil {
		return err
	}

	age, _ := utils.CalculateAge(sender.DOB, time.Now())
	s.dispatcher.PublishToUser(ctx, receiverID, model.EventFavorite, model.FavoritePayload{
		SenderID:    sender.ID,
		SenderName:  sender.Name,
		SenderPhoto: sender.PrimaryPhoto(),
		SenderAge:   age,
	})
	return nil
}

// RemoveFavorite 取消收藏，目标不存在收藏记录也返回成功
func (s *InteractionService) RemoveFavorite(ctx context.Context, senderID, receiverID uuid.UUID) error {
	if err := s.db.Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
		Delete(&model.Favorite{}).Error; err != nil {
		return apperr.Internal(fmt.Errorf("failed to remove favorite: %w", err))
	}
	return nil
}

// ListFavorites 当前用户收藏的用户列表
func (s *InteractionService) ListFavorites(senderID uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := s.db.
		Joins("JOIN favorites ON favorites.receiver_id = users.id").
		Where("favorites.sender_id = ?", senderID).
		Order("favorites.created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to list favorites: %w", err))
	}
	return users, nil
}

// spendQuota 原子扣减额度：带条件的 UPDATE 保证并发下不会扣成负数
func (s *InteractionService) spendQuota(sender *model.User) error {
	if sender.UnlimitedSwipes {
		return nil
	}
	res := s.db.Model(&model.User{}).
		Where("id = ? AND swipe_quota > 0", sender.ID).
		Update("swipe_quota", gorm.Expr("swipe_quota - 1"))
	if res.Error != nil {
		return apperr.Internal(fmt.Errorf("failed to spend quota: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return apperr.QuotaExceeded("swipe quota exhausted, try again later or upgrade")
	}
	return nil
}

// detectMatch 检查反向 like，互相喜欢时创建匹配和会话。
// 会话表的 (user_a_id, user_b_id) 唯一索引保证并发下同一对用户只产生一条记录，
// 插入冲突视为对方已抢先创建，直接复用已有记录。
func (s *InteractionService) detectMatch(ctx context.Context, sender, receiver *model.User) (bool, uuid.UUID, uuid.UUID, error) {
	var reverseCount int64
	if err := s.db.Model(&model.Swipe{}).
		Where("sender_id = ? AND receiver_id = ? AND kind = ?", receiver.ID, sender.ID, model.SwipeLike).
		Count(&reverseCount).Error; err != nil {
		return false, uuid.Nil, uuid.Nil, apperr.Internal(err)
	}
	if reverseCount == 0 {
		return false, uuid.Nil, uuid.Nil, nil
	}

	userA, userB := model.OrderPair(sender.ID, receiver.ID)

	var matchID, conversationID uuid.UUID
	created := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		conv := &model.Conversation{UserAID: userA, UserBID: userB}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_a_id"}, {Name: "user_b_id"}},
			DoNothing: true,
		}).Create(conv)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 并发竞争中输了，对方已创建
			return nil
		}
		created = true

		match := &model.Match{UserAID: userA, UserBID: userB, ConversationID: conv.ID}
		if err := tx.Create(match).Error; err != nil {
			return err
		}
		matchID = match.ID
		conversationID = conv.ID
		return nil
	})
	if err != nil {
		return false, uuid.Nil, uuid.Nil, apperr.Internal(fmt.Errorf("failed to create match: %w", err))
	}

	if !created {
		// 复用已有的匹配记录
		var match model.Match
		if err := s.db.First(&match, "user_a_id = ? AND user_b_id = ?", userA, userB).Error; err != nil {
			return false, uuid.Nil, uuid.Nil, apperr.Internal(err)
		}
		return true, match.ID, match.ConversationID, nil
	}

	// 新匹配：双方 matches 计数 +1，向双方推送 match 事件
	if err := s.bumpActivity(sender.ID, 0, 1, 0); err != nil {
		return false, uuid.Nil, uuid.Nil, err
	}
	if err := s.bumpActivity(receiver.ID, 0, 1, 0); err != nil {
		return false, uuid.Nil, uuid.Nil, err
	}

	s.dispatcher.PublishToUser(ctx, sender.ID, model.EventMatch, model.MatchPayload{
		MatchID:        matchID,
		ConversationID: conversationID,
		UserID:         receiver.ID,
		Name:           receiver.Name,
		Photo:          receiver.PrimaryPhoto(),
	})
	s.dispatcher.PublishToUser(ctx, receiver.ID, model.EventMatch, model.MatchPayload{
		MatchID:        matchID,
		ConversationID: conversationID,
		UserID:         sender.ID,
		Name:           sender.Name,
		Photo:          sender.PrimaryPhoto(),
	})
	return true, matchID, conversationID, nil
}

// bumpActivity 更新用户当月的活动计数，不存在则插入
func (s *InteractionService) bumpActivity(userID uuid.UUID, likes, matches, swipes int) error {
	now := time.Now()
	activity := &model.UserActivity{
		UserID:  userID,
		Year:    now.Year(),
		Month:   int(now.Month()),
		Likes:   likes,
		Matches: matches,
		Swipes:  swipes,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "year"}, {Name: "month"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"likes":   gorm.Expr("user_activities.likes + ?", likes),
			"matches": gorm.Expr("user_activities.matches + ?", matches),
			"swipes":  gorm.Expr("user_activities.swipes + ?", swipes),
		}),
	}).Create(activity).Error
	if err != nil {
		return apperr.Internal(fmt.Errorf("failed to update activity counter: %w", err))
	}
	return nil
}

// GetActivity 查询用户某个月的活动计数，没有记录时返回全 0
func (s *InteractionService) GetActivity(userID uuid.UUID, year, month int) (*model.UserActivity, error) {
	var activity model.UserActivity
	err := s.db.Where("user_id = ? AND year = ? AND month = ?", userID, year, month).
		First(&activity).Error
	if err == gorm.ErrRecordNotFound {
		return &model.UserActivity{UserID: userID, Year: year, Month: month}, nil
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &activity, nil
}

// checkNotBlocked 双向拉黑检查，错误信息区分方向
func (s *InteractionService) checkNotBlocked(senderID, receiverID uuid.UUID) error {
	return checkNotBlocked(s.db, senderID, receiverID)
}

func checkNotBlocked(db *gorm.DB, senderID, receiverID uuid.UUID) error {
	var count int64
	if err := db.Model(&model.Block{}).
		Where("user_id = ? AND blocked_id = ?", senderID, receiverID).
		Count(&count).Error; err != nil {
		return apperr.Internal(err)
	}
	if count > 0 {
		return apperr.Blocked(apperr.BlockedByYou)
	}
	if err := db.Model(&model.Block{}).
		Where("user_id = ? AND blocked_id = ?", receiverID, senderID).
		Count(&count).Error; err != nil {
		return apperr.Internal(err)
	}
	if count > 0 {
		return apperr.Blocked(apperr.BlockedByThem)
	}
	return nil
}

func (s *InteractionService) mustExist(userID uuid.UUID) error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return apperr.Internal(err)
	}
	if count == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

func (s *InteractionService) publishLike(ctx context.Context, sender *model.User, receiverID uuid.UUID) {
	age, _ := utils.CalculateAge(sender.DOB, time.Now())
	s.dispatcher.PublishToUser(ctx, receiverID, model.EventLike, model.LikePayload{
		SenderID:    sender.ID,
		SenderName:  sender.Name,
		SenderPhoto: sender.PrimaryPhoto(),
		SenderAge:   age,
	})
}
