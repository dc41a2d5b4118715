package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"sparkmatch/apperr"
	"sparkmatch/model"
	"sparkmatch/service"
)

func setupConversation(t *testing.T, db *gorm.DB, a, b *model.User) *model.Conversation {
	t.Helper()
	userA, userB := model.OrderPair(a.ID, b.ID)
	conv := &model.Conversation{UserAID: userA, UserBID: userB}
	require.NoError(t, db.Create(conv).Error)
	return conv
}

func newConversationService(t *testing.T, db *gorm.DB) *service.ConversationService {
	t.Helper()
	rdb := setupTestRedis(t)
	return service.NewConversationService(db, rdb, service.NewDispatcher(rdb))
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newConversationService(t, db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	conv := setupConversation(t, db, alice, bob)

	message, err := svc.SendMessage(ctx, conv.ID, alice.ID, "hey there")
	require.NoError(t, err)
	assert.Equal(t, "hey there", message.Content)
	assert.True(t, message.SeenBy.Contains(alice.ID))
	assert.False(t, message.SeenBy.Contains(bob.ID))

	// last_message_id 跟随最新一条消息
	var reloaded model.Conversation
	require.NoError(t, db.First(&reloaded, "id = ?", conv.ID).Error)
	require.NotNil(t, reloaded.LastMessageID)
	assert.Equal(t, message.ID, *reloaded.LastMessageID)
}

func TestSendMessageValidation(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newConversationService(t, db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	conv := setupConversation(t, db, alice, bob)

	_, err := svc.SendMessage(ctx, conv.ID, alice.ID, "   ")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestSendMessageUnknownConversation(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newConversationService(t, db)
	alice := createUser(t, db, "alice")

	_, err := svc.SendMessage(ctx, uuid.New(), alice.ID, "hello")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSendMessageNonParticipant(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newConversationService(t, db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")
	conv := setupConversation(t, db, alice, bob)

	// 非参与者一律按会话不存在处理
	_, err := svc.SendMessage(ctx, conv.ID, carol.ID, "let me in")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSendMessageBlocked(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newConversationService(t, db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	conv := setupConversation(t, db, alice, bob)
	require.NoError(t, db.Create(&model.Block{UserID: bob.ID, BlockedID: alice.ID}).Error)

	_, err := svc.SendMessage(ctx, conv.ID, alice.ID, "hello?")
	require.Error(t, err)
	assert.Equal(t, apperr.KindBlocked, apperr.KindOf(err))
	assert.Equal(t, apperr.BlockedByThem, apperr.DirectionOf(err))

	_, err = svc.SendMessage(ctx, conv.ID, bob.ID, "no")
	require.Error(t, err)
	assert.Equal(t, apperr.BlockedByYou, apperr.DirectionOf(err))
}

func TestUnreadCountAndMarkSeen(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newConversationService(t, db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	conv := setupConversation(t, db, alice, bob)

	for _, content := range []string{"one", "two", "three"} {
		_, err := svc.SendMessage(ctx, conv.ID, alice.ID, content)
		require.NoError(t, err)
	}

	unread, err := svc.UnreadCount(conv.ID, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, unread)

	// 发送者看自己的消息永远是已读
	unread, err = svc.UnreadCount(conv.ID, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, unread)

	require.NoError(t, svc.MarkSeen(ctx, conv.ID, bob.ID))

	unread, err = svc.UnreadCount(conv.ID, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, unread)

	// 历史消息全部补齐已读标记，不只是最新一条
	var messages []model.Message
	require.NoError(t, db.Where("conversation_id = ?", conv.ID).Find(&messages).Error)
	for _, msg := range messages {
		assert.True(t, msg.SeenBy.Contains(bob.ID))
	}

	// 最新消息已读时再次标记是安全的空操作
	require.NoError(t, svc.MarkSeen(ctx, conv.ID, bob.ID))
}

func TestListConversationsOrderAndUnread(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newConversationService(t, db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")

	convBob := setupConversation(t, db, alice, bob)
	convCarol := setupConversation(t, db, alice, carol)

	_, err := svc.SendMessage(ctx, convBob.ID, bob.ID, "hi from bob")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = svc.SendMessage(ctx, convCarol.ID, carol.ID, "hi from carol")
	require.NoError(t, err)

	summaries, err := svc.ListConversations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// 最近更新的会话排在前面
	assert.Equal(t, convCarol.ID, summaries[0].ID)
	assert.Equal(t, carol.ID, summaries[0].Peer.ID)
	assert.EqualValues(t, 1, summaries[0].UnreadCount)
	require.NotNil(t, summaries[0].LastMessage)
	assert.Equal(t, "hi from carol", summaries[0].LastMessage.Content)

	assert.Equal(t, convBob.ID, summaries[1].ID)
}

func TestGetConversation(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newConversationService(t, db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	conv := setupConversation(t, db, alice, bob)

	_, err := svc.SendMessage(ctx, conv.ID, alice.ID, "first")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = svc.SendMessage(ctx, conv.ID, bob.ID, "second")
	require.NoError(t, err)

	detail, err := svc.GetConversation(ctx, conv.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, detail.Peer.ID)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, "first", detail.Messages[0].Content)
	assert.Equal(t, "second", detail.Messages[1].Content)
}

func TestTypingRequiresParticipant(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newConversationService(t, db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	carol := createUser(t, db, "carol")
	conv := setupConversation(t, db, alice, bob)

	require.NoError(t, svc.Typing(ctx, conv.ID, alice.ID))
	err := svc.Typing(ctx, conv.ID, carol.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
