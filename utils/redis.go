package utils

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var rdb *redis.Client

// InitRedis 初始化 Redis 连接
// Redis 承担三个角色：事件 broker（pub/sub）、会话写锁、在线状态
func InitRedis(url, password string, db int) error {
	rdb = redis.NewClient(&redis.Options{
		Addr:     url,
		Password: password,
		DB:       db,
	})

	// 测试连接
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return err
	}

	log.Println("Redis connected")
	return nil
}

// GetRedis 获取 Redis 客户端
func GetRedis() *redis.Client {
	return rdb
}

// CloseRedis 关闭 Redis 连接
func CloseRedis() error {
	if rdb != nil {
		return rdb.Close()
	}
	return nil
}

// PresenceKey 用户在线状态 key。key 存在即在线，靠 TTL 和心跳维持。
func PresenceKey(userID uuid.UUID) string {
	return "online:" + userID.String()
}

// MarkOnline 写入或续期在线状态
func MarkOnline(ctx context.Context, client *redis.Client, userID uuid.UUID, ttl time.Duration) {
	client.Set(ctx, PresenceKey(userID), "1", ttl)
}

// MarkOffline 清除在线状态
func MarkOffline(ctx context.Context, client *redis.Client, userID uuid.UUID) {
	client.Del(ctx, PresenceKey(userID))
}

// CheckOnline 检查用户是否在线
func CheckOnline(ctx context.Context, client *redis.Client, userID uuid.UUID) bool {
	exists, err := client.Exists(ctx, PresenceKey(userID)).Result()
	return err == nil && exists > 0
}
