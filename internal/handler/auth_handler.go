package handler

import (
	"huddle/internal/middleware"
	"huddle/internal/models"
	"huddle/internal/repository"
	"huddle/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	svc   *service.AuthService
	users *repository.UserRepository
	log   *zap.Logger
}

func NewAuthHandler(svc *service.AuthService, users *repository.UserRepository, log *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, users: users, log: log}
}

func userPayload(u *models.User) gin.H {
	return gin.H{
		"public_id":    u.PublicID,
		"nickname":     u.Nickname,
		"is_temporary": u.IsTemporary,
		"created_at":   u.CreatedAt,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Nickname string `json:"nickname" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}
	u, recovery, pair, err := h.svc.Register(req.Nickname, req.Password)
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	respondCreated(c, gin.H{
		"user":          userPayload(u),
		"recovery_code": recovery,
		"tokens":        pair,
	})
}

func (h *AuthHandler) CreateTemporary(c *gin.Context) {
	var req struct {
		Nickname string `json:"nickname" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}
	u, pair, err := h.svc.CreateTemporary(req.Nickname)
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	respondCreated(c, gin.H{"user": userPayload(u), "tokens": pair})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Nickname string `json:"nickname" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}
	u, pair, err := h.svc.Login(req.Nickname, req.Password)
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"user": userPayload(u), "tokens": pair})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}
	pair, err := h.svc.Refresh(req.RefreshToken)
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"tokens": pair})
}

func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.users.GetByID(middleware.GetUserID(c))
	if err != nil {
		respondErr(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"user": userPayload(u)})
}

func (h *AuthHandler) UpdateNickname(c *gin.Context) {
	var req struct {
		Nickname string `json:"nickname" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}
	if err := h.svc.UpdateNickname(middleware.GetUserID(c), req.Nickname); err != nil {
		respondErr(c, h.log, err)
		return
	}
	respondOK(c, gin.H{"nickname": req.Nickname})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}
	if err := h.svc.ChangePassword(middleware.GetUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondErr(c, h.log, err)
		return
	}
	respondOK(c, nil)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Nickname     string `json:"nickname" binding:"required"`
		RecoveryCode string `json:"recovery_code" binding:"required"`
		NewPassword  string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindErr(c, err)
		return
	}
	if err := h.svc.ResetPassword(req.Nickname, req.RecoveryCode, req.NewPassword); err != nil {
		respondErr(c, h.log, err)
		return
	}
	respondOK(c, nil)
}
