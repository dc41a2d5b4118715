package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"sparkmatch/model"
)

// Dispatcher 把业务事件发布到 Redis 频道，WebSocket 网关按频道订阅后推送。
// 发布失败只记日志不影响主流程，事件是尽力投递的。
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// Publish 向指定频道发布一个事件
func (d *Dispatcher) Publish(ctx context.Context, topic, event string, payload interface{}) {
	env := model.Envelope{Event: event, Data: payload}
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("[ERROR] Failed to marshal event %s: %v", event, err)
		return
	}
	if err := d.rdb.Publish(ctx, topic, data).Err(); err != nil {
		log.Printf("[ERROR] Failed to publish event %s to %s: %v", event, topic, err)
	}
}

// PublishToUser 发布到用户个人频道
func (d *Dispatcher) PublishToUser(ctx context.Context, userID uuid.UUID, event string, payload interface{}) {
	d.Publish(ctx, model.UserTopic(userID), event, payload)
}

// PublishToConversation 发布到会话频道
func (d *Dispatcher) PublishToConversation(ctx context.Context, conversationID uuid.UUID, event string, payload interface{}) {
	d.Publish(ctx, model.ConversationTopic(conversationID), event, payload)
}
