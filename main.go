package main

import (
	"log"
	"time"

	"sparkmatch/config"
	"sparkmatch/handler"
	"sparkmatch/middleware"
	"sparkmatch/service"
	"sparkmatch/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	// 设置时区为 UTC（推荐服务端统一使用 UTC）
	time.Local = time.UTC
}

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化数据库
	if err := utils.InitDB(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer utils.CloseDB()

	// 初始化 Redis
	if err := utils.InitRedis(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer utils.CloseRedis()

	// 初始化认证中间件
	middleware.InitAuth(cfg.JWTSecret)

	// 事件分发器（全局单例，启动时建连，注入各服务）
	dispatcher := service.NewDispatcher(utils.GetRedis())

	// 创建服务
	discoverySvc := service.NewDiscoveryService(utils.GetDB())
	interactionSvc := service.NewInteractionService(utils.GetDB(), dispatcher)
	convSvc := service.NewConversationService(utils.GetDB(), utils.GetRedis(), dispatcher)
	relSvc := service.NewRelationshipService(utils.GetDB())

	// 创建 WebSocket Hub
	hub := handler.NewHub(utils.GetRedis(), convSvc, cfg)

	// 创建处理器
	discoveryHandler := handler.NewDiscoveryHandler(discoverySvc)
	interactionHandler := handler.NewInteractionHandler(interactionSvc)
	convHandler := handler.NewConversationHandler(convSvc)
	relHandler := handler.NewRelationshipHandler(relSvc)

	// 创建 Gin 路由
	r := gin.Default()

	// 注册统一错误处理和指标中间件
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{"status": "ok"})
	})

	// Prometheus 指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket 连接（使用 token 认证，不需要 HTTP 中间件）
	r.GET("/ws", handler.HandleWebSocket(hub))

	// HTTP API 路由组（需要认证）
	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware())
	{
		// 候选推荐
		api.GET("/candidates", discoveryHandler.ListCandidates)

		// 互动
		api.POST("/users/:user_id/like", interactionHandler.Like)
		api.POST("/users/:user_id/dislike", interactionHandler.Dislike)
		api.POST("/users/:user_id/favorite", interactionHandler.Favorite)
		api.DELETE("/users/:user_id/favorite", interactionHandler.Unfavorite)
		api.GET("/favorites", interactionHandler.ListFavorites)
		api.GET("/activity", interactionHandler.GetActivity)

		// 拉黑
		api.POST("/users/:user_id/block", relHandler.BlockUser)
		api.DELETE("/users/:user_id/block", relHandler.UnblockUser)
		api.GET("/blocked", relHandler.GetBlockedUsers)

		// 会话与消息
		api.GET("/conversations", convHandler.ListConversations)
		api.GET("/conversations/:conversation_id", convHandler.GetConversation)
		api.POST("/conversations/:conversation_id/messages", convHandler.SendMessage)
		api.POST("/conversations/:conversation_id/seen", convHandler.MarkSeen)
		api.POST("/conversations/:conversation_id/typing", convHandler.Typing)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
