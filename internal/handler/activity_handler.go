package handler

import (
	"strconv"

	"huddle/internal/middleware"
	"huddle/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ActivityHandler struct {
	activities *repository.ActivityRepository
	proximity  repository.ProximitySearcher
	log        *zap.Logger
}

func NewActivityHandler(activities *repository.ActivityRepository, proximity repository.ProximitySearcher, log *zap.Logger) *ActivityHandler {
	return &ActivityHandler{activities: activities, proximity: proximity, log: log}
}

func (h *ActivityHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Latitude    *float64 `json:"latitude" binding:"required"`
		Longitude   *float64 `json:"longitude" binding:"required"`
		Type        string   `json:"type"`
		Description string   `json:"description"`
		GroupID     *string  `json:"group_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}
	act, err := h.activities.Create(userID, req.GroupID, req.Type, req.Description, *req.Latitude, *req.Longitude)
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	respondCreated(c, gin.H{"activity": act})
}

func (h *ActivityHandler) Nearby(c *gin.Context) {
	lat, lng, radius, err := parsePointRadius(c)
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	acts, err := h.activities.FindNearby(lat, lng, radius, limit)
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"activities": acts})
}

// NearbyUsers returns users whose current snapshot is within the
// radius, nearest first.
func (h *ActivityHandler) NearbyUsers(c *gin.Context) {
	lat, lng, radius, err := parsePointRadius(c)
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	users, err := h.proximity.FindUsersNear(lat, lng, radius)
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"users": users})
}

func (h *ActivityHandler) MyActivities(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	acts, err := h.activities.FindByUser(middleware.GetUserID(c), limit, offset)
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"activities": acts})
}
