package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wfunc/ap-itemlog/internal/config"
	"github.com/wfunc/ap-itemlog/internal/utils"
)

// AuthHandler 管理端登录
type AuthHandler struct {
	jwtManager *utils.JWTManager
	admin      *config.AdminConfig
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(jwtManager *utils.JWTManager, admin *config.AdminConfig) *AuthHandler {
	return &AuthHandler{
		jwtManager: jwtManager,
		admin:      admin,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 管理端口令换取JWT
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "请求格式错误",
		})
		return
	}

	if req.Username != h.admin.Username {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "用户名或密码错误",
		})
		return
	}

	ok, err := utils.VerifyPassword(req.Password, h.admin.PasswordHash)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "用户名或密码错误",
		})
		return
	}

	sessionID, err := utils.GenerateSessionID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "会话创建失败",
		})
		return
	}

	token, err := h.jwtManager.GenerateToken(req.Username, "admin", sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "令牌签发失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token":      token,
			"session_id": sessionID,
		},
	})
}
