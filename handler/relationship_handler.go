package handler

import (
	"sparkmatch/middleware"
	"sparkmatch/service"
	"sparkmatch/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RelationshipHandler struct {
	relSvc *service.RelationshipService
}

func NewRelationshipHandler(relSvc *service.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{relSvc: relSvc}
}

// BlockUser 拉黑用户
func (h *RelationshipHandler) BlockUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	targetID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		utils.BadRequest(c, "invalid user id")
		return
	}

	if err := h.relSvc.BlockUser(userID, targetID); err != nil {
		utils.WriteError(c, err)
		return
	}

	utils.SuccessWithMessage(c, "user blocked successfully", nil)
}

// UnblockUser 取消拉黑
func (h *RelationshipHandler) UnblockUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	targetID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		utils.BadRequest(c, "invalid user id")
		return
	}

	if err := h.relSvc.UnblockUser(userID, targetID); err != nil {
		utils.WriteError(c, err)
		return
	}

	utils.SuccessWithMessage(c, "user unblocked successfully", nil)
}

// GetBlockedUsers 获取拉黑列表
func (h *RelationshipHandler) GetBlockedUsers(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	users, err := h.relSvc.GetBlockedUsers(userID)
	if err != nil {
		utils.WriteError(c, err)
		return
	}

	type blockedUser struct {
		ID    uuid.UUID `json:"id"`
		Name  string    `json:"name"`
		Photo string    `json:"photo"`
	}
	list := make([]blockedUser, 0, len(users))
	for i := range users {
		list = append(list, blockedUser{
			ID:    users[i].ID,
			Name:  users[i].Name,
			Photo: users[i].PrimaryPhoto(),
		})
	}

	utils.SuccessResponse(c, gin.H{"blocked_users": list})
}
