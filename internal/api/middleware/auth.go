package middleware

import (
	"net/http"
	"strings"

	"github.com/frosty888/eProtokoll/internal/db/models"
	"github.com/frosty888/eProtokoll/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthMiddleware struct {
	authService *services.AuthService
	cookieName  string
	db          *gorm.DB
}

func NewAuthMiddleware(authService *services.AuthService, cookieName string, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		cookieName:  cookieName,
		db:          db,
	}
}

// RequireAuth resolves the session and stashes the acting identity in the
// request context. Everything downstream trusts these three values.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := am.extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		userID, valid := am.authService.Resolve(token)
		if !valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired or invalid"})
			return
		}

		var user models.User
		if err := am.db.First(&user, userID).Error; err != nil || !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account unavailable"})
			return
		}

		c.Set("userID", user.ID)
		c.Set("username", user.Username)
		c.Set("role", user.Role)
		c.Set("department", user.Department)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func (am *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		if role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

func (am *AuthMiddleware) extractToken(c *gin.Context) string {
	if token, err := c.Cookie(am.cookieName); err == nil && token != "" {
		return token
	}
	// Bearer token fallback for API clients.
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// Actor reads the identity placed by RequireAuth.
func Actor(c *gin.Context) (uint, models.UserRole) {
	userID := c.GetUint("userID")
	role, _ := c.Get("role")
	r, _ := role.(models.UserRole)
	return userID, r
}
