package handler

import (
	"fmt"
	"strconv"

	"huddle/internal/domain"
	"huddle/internal/middleware"
	"huddle/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type GroupHandler struct {
	groups     *repository.GroupRepository
	proximity  repository.ProximitySearcher
	activities *repository.ActivityRepository
	log        *zap.Logger
}

func NewGroupHandler(groups *repository.GroupRepository, proximity repository.ProximitySearcher, activities *repository.ActivityRepository, log *zap.Logger) *GroupHandler {
	return &GroupHandler{groups: groups, proximity: proximity, activities: activities, log: log}
}

func (h *GroupHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		Name         string   `json:"name" binding:"required"`
		LocationName string   `json:"location_name" binding:"required"`
		Latitude     *float64 `json:"latitude" binding:"required"`
		Longitude    *float64 `json:"longitude" binding:"required"`
		Description  string   `json:"description"`
		Password     *string  `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}
	g, err := h.groups.Create(req.Name, req.LocationName, *req.Latitude, *req.Longitude, req.Description, req.Password, userID)
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	// History only; group creation does not fail on activity logging.
	if _, err := h.activities.Create(userID, &g.ID, domain.ActivityGroupCreated,
		fmt.Sprintf("created group %s", g.Name), g.Latitude, g.Longitude); err != nil {
		h.log.Warn("activity log failed", zap.Error(err), zap.String("group_id", g.ID))
	}
	respondCreated(c, gin.H{"group": g})
}

func (h *GroupHandler) Get(c *gin.Context) {
	g, err := h.groups.GetByID(c.Param("id"))
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"group": g})
}

// Search finds groups by name substring (?name=) .
func (h *GroupHandler) Search(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		respondErr(c, h.log, fmt.Errorf("%w: name query parameter required", domain.ErrValidation))
		return
	}
	groups, err := h.groups.SearchByName(name)
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"groups": groups})
}

// Nearby finds groups within ?radius= meters of (?lat=, ?lng=).
func (h *GroupHandler) Nearby(c *gin.Context) {
	lat, lng, radius, err := parsePointRadius(c)
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	matches, err := h.proximity.FindGroupsNear(lat, lng, radius)
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"groups": matches})
}

func (h *GroupHandler) Mine(c *gin.Context) {
	groups, err := h.groups.GroupsOfUser(middleware.GetUserID(c))
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"groups": groups})
}

func (h *GroupHandler) Join(c *gin.Context) {
	userID := middleware.GetUserID(c)
	groupID := c.Param("id")
	var req struct {
		Password *string `json:"password"`
	}
	// Body is optional for open groups.
	_ = c.ShouldBindJSON(&req)
	if err := h.groups.Join(groupID, userID, req.Password); err != nil {
		respondErr(c, h.log, err)
		return
	}
	if g, err := h.groups.GetByID(groupID); err == nil {
		if _, err := h.activities.Create(userID, &groupID, domain.ActivityUserJoined,
			fmt.Sprintf("joined group %s", g.Name), g.Latitude, g.Longitude); err != nil {
			h.log.Warn("activity log failed", zap.Error(err), zap.String("group_id", groupID))
		}
	}
	respondOK(c, nil)
}

func (h *GroupHandler) Leave(c *gin.Context) {
	userID := middleware.GetUserID(c)
	groupID := c.Param("id")
	g, err := h.groups.GetByID(groupID)
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	if err := h.groups.Leave(groupID, userID); err != nil {
		respondErr(c, h.log, err)
		return
	}
	if _, err := h.activities.Create(userID, &groupID, domain.ActivityUserLeft,
		fmt.Sprintf("left group %s", g.Name), g.Latitude, g.Longitude); err != nil {
		h.log.Warn("activity log failed", zap.Error(err), zap.String("group_id", groupID))
	}
	respondOK(c, nil)
}

func (h *GroupHandler) KeepAlive(c *gin.Context) {
	at, err := h.groups.KeepAlive(c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"last_active": at})
}

func (h *GroupHandler) Members(c *gin.Context) {
	members, err := h.groups.Members(c.Param("id"))
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"members": members})
}

func parsePointRadius(c *gin.Context) (lat, lng, radius float64, err error) {
	lat, err = strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: lat query parameter required", domain.ErrValidation)
	}
	lng, err = strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: lng query parameter required", domain.ErrValidation)
	}
	radius, err = strconv.ParseFloat(c.DefaultQuery("radius", "1000"), 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: radius must be a number", domain.ErrValidation)
	}
	return lat, lng, radius, nil
}
