package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sparkmatch/model"
	"sparkmatch/service"
)

func TestDispatcherPublishToUser(t *testing.T) {
	ctx := context.Background()
	rdb := setupTestRedis(t)
	dispatcher := service.NewDispatcher(rdb)

	userID := uuid.New()
	pubsub := rdb.Subscribe(ctx, model.UserTopic(userID))
	defer pubsub.Close()

	// 等订阅建立
	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)

	dispatcher.PublishToUser(ctx, userID, model.EventLike, model.LikePayload{
		SenderID:   uuid.New(),
		SenderName: "alice",
		SenderAge:  28,
	})

	select {
	case msg := <-pubsub.Channel():
		var env model.RawEnvelope
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &env))
		assert.Equal(t, model.EventLike, env.Event)

		var payload model.LikePayload
		require.NoError(t, json.Unmarshal(env.Data, &payload))
		assert.Equal(t, "alice", payload.SenderName)
		assert.Equal(t, 28, payload.SenderAge)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received on user topic")
	}
}

func TestDispatcherPublishToConversation(t *testing.T) {
	ctx := context.Background()
	rdb := setupTestRedis(t)
	dispatcher := service.NewDispatcher(rdb)

	conversationID := uuid.New()
	pubsub := rdb.Subscribe(ctx, model.ConversationTopic(conversationID))
	defer pubsub.Close()

	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)

	userID := uuid.New()
	dispatcher.PublishToConversation(ctx, conversationID, model.EventTyping,
		model.TypingPayload{ConversationID: conversationID, UserID: userID})

	select {
	case msg := <-pubsub.Channel():
		var env model.RawEnvelope
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &env))
		assert.Equal(t, model.EventTyping, env.Event)

		var payload model.TypingPayload
		require.NoError(t, json.Unmarshal(env.Data, &payload))
		assert.Equal(t, userID, payload.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received on conversation topic")
	}
}
