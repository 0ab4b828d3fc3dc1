package handler

import (
	"huddle/internal/middleware"
	"huddle/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LocationHandler struct {
	locations *repository.LocationRepository
	log       *zap.Logger
}

func NewLocationHandler(locations *repository.LocationRepository, log *zap.Logger) *LocationHandler {
	return &LocationHandler{locations: locations, log: log}
}

// Report replaces the caller's current-location snapshot and appends a
// history row, both in one transaction.
func (h *LocationHandler) Report(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Latitude       *float64 `json:"latitude" binding:"required"`
		Longitude      *float64 `json:"longitude" binding:"required"`
		AccuracyMeters *float64 `json:"accuracy_meters"`
		ActivityType   string   `json:"activity_type"`
		Description    string   `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}
	loc, err := h.locations.Report(userID, *req.Latitude, *req.Longitude, req.AccuracyMeters, req.ActivityType, req.Description, nil)
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"location": loc})
}

func (h *LocationHandler) GetMy(c *gin.Context) {
	loc, err := h.locations.GetByUserID(middleware.GetUserID(c))
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"location": loc})
}
