package handler

import (
	"strconv"
	"time"

	"sparkmatch/middleware"
	"sparkmatch/service"
	"sparkmatch/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InteractionHandler struct {
	interactionSvc *service.InteractionService
}

func NewInteractionHandler(interactionSvc *service.InteractionService) *InteractionHandler {
	return &InteractionHandler{interactionSvc: interactionSvc}
}

// Like 喜欢一个用户
// POST /api/v1/users/:user_id/like
func (h *InteractionHandler) Like(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	receiverID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		utils.BadRequest(c, "invalid user id")
		return
	}

	result, err := h.interactionSvc.RecordLike(c.Request.Context(), userID, receiverID)
	if err != nil {
		utils.WriteError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// Dislike 不喜欢一个用户
// POST /api/v1/users/:user_id/dislike
func (h *InteractionHandler) Dislike(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	receiverID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		utils.BadRequest(c, "invalid user id")
		return
	}

	if err := h.interactionSvc.RecordDislike(c.Request.Context(), userID, receiverID); err != nil {
		utils.WriteError(c, err)
		return
	}

	utils.SuccessWithMessage(c, "dislike recorded", nil)
}

// Favorite 收藏一个用户
// POST /api/v1/users/:user_id/favorite
func (h *InteractionHandler) Favorite(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	receiverID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		utils.BadRequest(c, "invalid user id")
		return
	}

	if err := h.interactionSvc.RecordFavorite(c.Request.Context(), userID, receiverID); err != nil {
		utils.WriteError(c, err)
		return
	}

	utils.SuccessWithMessage(c, "favorite recorded", nil)
}

// Unfavorite 取消收藏
// DELETE /api/v1/users/:user_id/favorite
func (h *InteractionHandler) Unfavorite(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	receiverID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		utils.BadRequest(c, "invalid user id")
		return
	}

	if err := h.interactionSvc.RemoveFavorite(c.Request.Context(), userID, receiverID); err != nil {
		utils.WriteError(c, err)
		return
	}

	utils.SuccessWithMessage(c, "favorite removed", nil)
}

// ListFavorites 收藏列表
// GET /api/v1/favorites
func (h *InteractionHandler) ListFavorites(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	users, err := h.interactionSvc.ListFavorites(userID)
	if err != nil {
		utils.WriteError(c, err)
		return
	}

	type favoriteUser struct {
		ID    uuid.UUID `json:"id"`
		Name  string    `json:"name"`
		Photo string    `json:"photo"`
	}
	list := make([]favoriteUser, 0, len(users))
	for i := range users {
		list = append(list, favoriteUser{
			ID:    users[i].ID,
			Name:  users[i].Name,
			Photo: users[i].PrimaryPhoto(),
		})
	}

	utils.SuccessResponse(c, gin.H{"favorites": list})
}

// GetActivity 查询当月（或指定月份）的活动计数
// GET /api/v1/activity?year=2026&month=8
func (h *InteractionHandler) GetActivity(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	now := time.Now()
	year, _ := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	month, _ := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	if month < 1 || month > 12 {
		utils.BadRequest(c, "invalid month")
		return
	}

	activity, err := h.interactionSvc.GetActivity(userID, year, month)
	if err != nil {
		utils.WriteError(c, err)
		return
	}

	utils.SuccessResponse(c, activity)
}
