package handler

import (
	"sparkmatch/middleware"
	"sparkmatch/service"
	"sparkmatch/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ConversationHandler struct {
	convSvc *service.ConversationService
}

func NewConversationHandler(convSvc *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convSvc: convSvc}
}

// ListConversations 会话列表
// GET /api/v1/conversations
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	summaries, err := h.convSvc.ListConversations(c.Request.Context(), userID)
	if err != nil {
		utils.WriteError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"conversations": summaries})
}

// GetConversation 会话详情
// GET /api/v1/conversations/:conversation_id
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	conversationID, err := uuid.Parse(c.Param("conversation_id"))
	if err != nil {
		utils.BadRequest(c, "invalid conversation id")
		return
	}

	detail, err := h.convSvc.GetConversation(c.Request.Context(), conversationID, userID)
	if err != nil {
		utils.WriteError(c, err)
		return
	}

	utils.SuccessResponse(c, detail)
}

// SendMessage 发送消息
// POST /api/v1/conversations/:conversation_id/messages
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	conversationID, err := uuid.Parse(c.Param("conversation_id"))
	if err != nil {
		utils.BadRequest(c, "invalid conversation id")
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	message, err := h.convSvc.SendMessage(c.Request.Context(), conversationID, userID, req.Content)
	if err != nil {
		utils.WriteError(c, err)
		return
	}

	utils.SuccessResponse(c, message)
}

// MarkSeen 标记会话已读
// POST /api/v1/conversations/:conversation_id/seen
func (h *ConversationHandler) MarkSeen(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	conversationID, err := uuid.Parse(c.Param("conversation_id"))
	if err != nil {
		utils.BadRequest(c, "invalid conversation id")
		return
	}

	if err := h.convSvc.MarkSeen(c.Request.Context(), conversationID, userID); err != nil {
		utils.WriteError(c, err)
		return
	}

	utils.SuccessWithMessage(c, "conversation marked as seen", nil)
}

// Typing 正在输入指示
// POST /api/v1/conversations/:conversation_id/typing
func (h *ConversationHandler) Typing(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	conversationID, err := uuid.Parse(c.Param("conversation_id"))
	if err != nil {
		utils.BadRequest(c, "invalid conversation id")
		return
	}

	if err := h.convSvc.Typing(c.Request.Context(), conversationID, userID); err != nil {
		utils.WriteError(c, err)
		return
	}

	utils.SuccessWithMessage(c, "typing indicator sent", nil)
}
