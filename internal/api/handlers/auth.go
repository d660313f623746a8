package handlers

import (
	"net/http"

	"github.com/frosty888/eProtokoll/internal/config"
	"github.com/frosty888/eProtokoll/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *services.AuthService
	session     config.SessionConfig
	logger      *zap.Logger
}

func NewAuthHandler(authService *services.AuthService, session config.SessionConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		session:     session,
		logger:      logger.With(zap.String("handler", "auth")),
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		// Do not leak whether the username exists.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	maxAge := int(h.session.SessionTimeout.Seconds())
	c.SetCookie(h.session.CookieName, token, maxAge, "/", "", h.session.Secure, true)
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"full_name":  user.FullName,
			"role":       user.Role,
			"department": user.Department,
		},
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(h.session.CookieName); err == nil {
		h.authService.Logout(token)
	}
	c.SetCookie(h.session.CookieName, "", -1, "/", "", h.session.Secure, true)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}
