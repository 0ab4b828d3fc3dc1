package handler

import (
	"strconv"

	"huddle/internal/domain"
	"huddle/internal/middleware"
	"huddle/internal/repository"
	"huddle/internal/ws"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MessageHandler struct {
	messages   *repository.MessageRepository
	locations  *repository.LocationRepository
	activities *repository.ActivityRepository
	hub        *ws.Hub
	log        *zap.Logger
}

func NewMessageHandler(messages *repository.MessageRepository, locations *repository.LocationRepository, activities *repository.ActivityRepository, hub *ws.Hub, log *zap.Logger) *MessageHandler {
	return &MessageHandler{messages: messages, locations: locations, activities: activities, hub: hub, log: log}
}

func (h *MessageHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	groupID := c.Param("id")
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}
	msg, err := h.messages.Append(groupID, userID, req.Content)
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	h.hub.Broadcast(groupID, gin.H{"type": "message", "message": msg})
	// Tag a message_sent activity at the sender's last known position.
	if loc, err := h.locations.GetByUserID(userID); err == nil {
		if _, err := h.activities.Create(userID, &groupID, domain.ActivityMessageSent, "", loc.Latitude, loc.Longitude); err != nil {
			h.log.Warn("activity log failed", zap.Error(err), zap.String("group_id", groupID))
		}
	}
	respondCreated(c, gin.H{"message": msg})
}

// List pages messages newest-first. ?cursor= continues from a previous
// page; ?limit= caps the page size.
func (h *MessageHandler) List(c *gin.Context) {
	groupID := c.Param("id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	var cursor *repository.Cursor
	if token := c.Query("cursor"); token != "" {
		cur, err := repository.DecodeCursor(token)
		if err != nil {
			respondErr(c, h.log, err)
			return
		}
		cursor = &cur
	}
	msgs, next, err := h.messages.Page(groupID, cursor, limit)
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	resp := gin.H{"messages": msgs}
	if next != nil {
		resp["next_cursor"] = next.Encode()
	}
	respondOK(c, resp)
}
