package handler

import (
	"strconv"

	"sparkmatch/middleware"
	"sparkmatch/service"
	"sparkmatch/utils"

	"github.com/gin-gonic/gin"
)

type DiscoveryHandler struct {
	discoverySvc *service.DiscoveryService
}

func NewDiscoveryHandler(discoverySvc *service.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{discoverySvc: discoverySvc}
}

// ListCandidates 候选推荐列表
// GET /api/v1/candidates?page=1&limit=10&max_distance_km=50&min_age=20&max_age=35&gender=female
func (h *DiscoveryHandler) ListCandidates(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit > 100 {
		limit = 100
	}

	var filters service.Filters
	if v := c.Query("max_distance_km"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil || d < 0 {
			utils.BadRequest(c, "invalid max_distance_km")
			return
		}
		filters.MaxDistanceKm = &d
	}
	if v := c.Query("min_age"); v != "" {
		a, err := strconv.Atoi(v)
		if err != nil || a < 0 {
			utils.BadRequest(c, "invalid min_age")
			return
		}
		filters.MinAge = &a
	}
	if v := c.Query("max_age"); v != "" {
		a, err := strconv.Atoi(v)
		if err != nil || a < 0 {
			utils.BadRequest(c, "invalid max_age")
			return
		}
		filters.MaxAge = &a
	}
	if v := c.Query("gender"); v != "" {
		filters.Gender = &v
	}

	result, err := h.discoverySvc.ListCandidates(userID, filters, page, limit)
	if err != nil {
		utils.WriteError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}
