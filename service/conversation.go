package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"sparkmatch/apperr"
	"sparkmatch/model"
	"sparkmatch/utils"
)

// ConversationService 会话与消息：发送、已读、列表。
// 同一会话内的写操作用 Redis 分布式锁串行化，
// 保证 last_message_id 不会指向被并发覆盖的旧消息。
type ConversationService struct {
	db         *gorm.DB
	rdb        *redis.Client
	dispatcher *Dispatcher
}

func NewConversationService(db *gorm.DB, rdb *redis.Client, dispatcher *Dispatcher) *ConversationService {
	return &ConversationService{db: db, rdb: rdb, dispatcher: dispatcher}
}

// ConversationSummary 会话列表里的单项
type ConversationSummary struct {
	ID          uuid.UUID             `json:"id"`
	Peer        PeerProfile           `json:"peer"`
	LastMessage *model.MessagePreview `json:"last_message,omitempty"`
	UnreadCount int64                 `json:"unread_count"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// PeerProfile 会话对端的精简资料
type PeerProfile struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Photo  string    `json:"photo"`
	Online bool      `json:"online"`
}

// ConversationDetail 会话详情：参与双方加全部消息
type ConversationDetail struct {
	ID        uuid.UUID       `json:"id"`
	Peer      PeerProfile     `json:"peer"`
	Messages  []model.Message `json:"messages"`
	CreatedAt time.Time       `json:"created_at"`
}

// SendMessage 在会话里发一条消息
func (s *ConversationService) SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*model.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("message content cannot be empty")
	}

	conv, peerID, err := s.loadConversation(conversationID, senderID)
	if err != nil {
		return nil, err
	}
	if err := checkNotBlocked(s.db, senderID, peerID); err != nil {
		return nil, err
	}

	unlock, err := s.lockConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// 发送者对自己的消息天然已读
	message := &model.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		SeenBy:         model.UUIDList{senderID},
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&model.Conversation{}).
			Where("id = ?", conversationID).
			Updates(map[string]interface{}{
				"last_message_id": message.ID,
				"updated_at":      time.Now(),
			}).Error
	})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to send message: %w", err))
	}

	s.dispatcher.PublishToConversation(ctx, conversationID, model.EventNewMessage,
		model.NewMessagePayload{Message: *message})

	preview := &model.MessagePreview{
		ID:        message.ID,
		SenderID:  message.SenderID,
		Content:   message.Preview(),
		CreatedAt: message.CreatedAt,
	}
	for _, participantID := range []uuid.UUID{conv.UserAID, conv.UserBID} {
		unread, err := s.UnreadCount(conversationID, participantID)
		if err != nil {
			return nil, err
		}
		s.dispatcher.PublishToUser(ctx, participantID, model.EventConversationUpdate,
			model.ConversationUpdatePayload{
				ConversationID: conversationID,
				LastMessage:    preview,
				UnreadCount:    unread,
			})
	}
	return message, nil
}

// MarkSeen 把会话内所有消息标记为该用户已读。
// 最新一条消息已包含该用户时直接返回，不算错误。
func (s *ConversationService) MarkSeen(ctx context.Context, conversationID, userID uuid.UUID) error {
	conv, _, err := s.loadConversation(conversationID, userID)
	if err != nil {
		return err
	}

	if conv.LastMessageID != nil {
		var last model.Message
		if err := s.db.First(&last, "id = ?", *conv.LastMessageID).Error; err == nil {
			if last.SeenBy.Contains(userID) {
				return nil
			}
		}
	}

	unlock, err := s.lockConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	defer unlock()

	// 批量补齐历史消息的已读标记，不只是最新一条
	var messages []model.Message
	if err := s.db.Where("conversation_id = ?", conversationID).Find(&messages).Error; err != nil {
		return apperr.Internal(err)
	}
	seenIDs := make([]uuid.UUID, 0, len(messages))
	for i := range messages {
		if messages[i].SeenBy.Contains(userID) {
			continue
		}
		messages[i].SeenBy = append(messages[i].SeenBy, userID)
		if err := s.db.Model(&model.Message{}).
			Where("id = ?", messages[i].ID).
			Update("seen_by", messages[i].SeenBy).Error; err != nil {
			return apperr.Internal(fmt.Errorf("failed to mark seen: %w", err))
		}
		seenIDs = append(seenIDs, messages[i].ID)
	}
	if len(seenIDs) == 0 {
		return nil
	}

	payload := model.SeenPayload{
		ConversationID: conversationID,
		UserID:         userID,
		MessageIDs:     seenIDs,
	}
	s.dispatcher.PublishToConversation(ctx, conversationID, model.EventMessageUpdate, payload)
	s.dispatcher.PublishToUser(ctx, userID, model.EventConversationUpdate,
		model.ConversationUpdatePayload{ConversationID: conversationID, UnreadCount: 0})
	return nil
}

// UnreadCount 实时统计未读数，不在会话记录上缓存
func (s *ConversationService) UnreadCount(conversationID, userID uuid.UUID) (int64, error) {
	var messages []model.Message
	if err := s.db.Select("seen_by").
		Where("conversation_id = ?", conversationID).
		Find(&messages).Error; err != nil {
		return 0, apperr.Internal(err)
	}
	var count int64
	for i := range messages {
		if !messages[i].SeenBy.Contains(userID) {
			count++
		}
	}
	return count, nil
}

// ListConversations 用户的全部会话，按最近更新排序，附带未读数
func (s *ConversationService) ListConversations(ctx context.Context, userID uuid.UUID) ([]ConversationSummary, error) {
	var conversations []model.Conversation
	err := s.db.
		Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to list conversations: %w", err))
	}

	summaries := make([]ConversationSummary, 0, len(conversations))
	for i := range conversations {
		conv := &conversations[i]
		peer, err := s.peerProfile(ctx, conv.Counterpart(userID))
		if err != nil {
			return nil, err
		}

		var preview *model.MessagePreview
		if conv.LastMessageID != nil {
			var last model.Message
			if err := s.db.First(&last, "id = ?", *conv.LastMessageID).Error; err == nil {
				preview = &model.MessagePreview{
					ID:        last.ID,
					SenderID:  last.SenderID,
					Content:   last.Preview(),
					CreatedAt: last.CreatedAt,
				}
			}
		}

		unread, err := s.UnreadCount(conv.ID, userID)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, ConversationSummary{
			ID:          conv.ID,
			Peer:        peer,
			LastMessage: preview,
			UnreadCount: unread,
			UpdatedAt:   conv.UpdatedAt,
		})
	}
	return summaries, nil
}

// GetConversation 会话详情：对端资料加按时间升序的完整消息列表
func (s *ConversationService) GetConversation(ctx context.Context, conversationID, userID uuid.UUID) (*ConversationDetail, error) {
	conv, peerID, err := s.loadConversation(conversationID, userID)
	if err != nil {
		return nil, err
	}
	peer, err := s.peerProfile(ctx, peerID)
	if err != nil {
		return nil, err
	}

	var messages []model.Message
	if err := s.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, apperr.Internal(err)
	}

	return &ConversationDetail{
		ID:        conv.ID,
		Peer:      peer,
		Messages:  messages,
		CreatedAt: conv.CreatedAt,
	}, nil
}

// Typing 正在输入指示，只广播不落库
func (s *ConversationService) Typing(ctx context.Context, conversationID, userID uuid.UUID) error {
	if _, _, err := s.loadConversation(conversationID, userID); err != nil {
		return err
	}
	s.dispatcher.PublishToConversation(ctx, conversationID, model.EventTyping,
		model.TypingPayload{ConversationID: conversationID, UserID: userID})
	return nil
}

// IsOnline 通过 presence key 判断用户是否在线
func (s *ConversationService) IsOnline(ctx context.Context, userID uuid.UUID) bool {
	return utils.CheckOnline(ctx, s.rdb, userID)
}

// loadConversation 加载会话并校验调用方是参与者。
// 非参与者按 NotFound 处理，不暴露会话是否存在。
func (s *ConversationService) loadConversation(conversationID, userID uuid.UUID) (*model.Conversation, uuid.UUID, error) {
	var conv model.Conversation
	if err := s.db.First(&conv, "id = ?", conversationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, uuid.Nil, apperr.NotFound("conversation not found")
		}
		return nil, uuid.Nil, apperr.Internal(err)
	}
	if !conv.HasParticipant(userID) {
		return nil, uuid.Nil, apperr.NotFound("conversation not found")
	}
	return &conv, conv.Counterpart(userID), nil
}

func (s *ConversationService) peerProfile(ctx context.Context, peerID uuid.UUID) (PeerProfile, error) {
	var peer model.User
	if err := s.db.First(&peer, "id = ?", peerID).Error; err != nil {
		return PeerProfile{}, apperr.Internal(err)
	}
	return PeerProfile{
		ID:     peer.ID,
		Name:   peer.Name,
		Photo:  peer.PrimaryPhoto(),
		Online: s.IsOnline(ctx, peerID),
	}, nil
}

// lockConversation 获取会话级 Redis 锁，带重试
func (s *ConversationService) lockConversation(ctx context.Context, conversationID uuid.UUID) (func(), error) {
	lockKey := fmt.Sprintf("lock:conversation:%s", conversationID)
	lockAcquired := false
	for i := 0; i < 3; i++ {
		ok, err := s.rdb.SetNX(ctx, lockKey, "1", 2*time.Second).Result()
		if err == nil && ok {
			lockAcquired = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !lockAcquired {
		return nil, apperr.Internal(fmt.Errorf("failed to acquire conversation lock"))
	}
	return func() { s.rdb.Del(ctx, lockKey) }, nil
}
