package handlers

import (
	"net/http"

	"github.com/frosty888/eProtokoll/internal/db/models"
	"github.com/frosty888/eProtokoll/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService *services.UserService
	logger      *zap.Logger
}

func NewUserHandler(userService *services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger.With(zap.String("handler", "user")),
	}
}

type userView struct {
	ID         uint            `json:"id"`
	Username   string          `json:"username"`
	FullName   string          `json:"full_name"`
	Role       models.UserRole `json:"role"`
	Department string          `json:"department"`
	Email      string          `json:"email,omitempty"`
	IsActive   bool            `json:"is_active"`
}

func newUserView(u *models.User) userView {
	return userView{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		Role:       u.Role,
		Department: u.Department,
		Email:      u.Email,
		IsActive:   u.IsActive,
	}
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]userView, len(users))
	for i := range users {
		views[i] = newUserView(&users[i])
	}
	c.JSON(http.StatusOK, gin.H{"users": views})
}

// ListActive is the delegation-target picker, available to any signed-in
// user.
func (h *UserHandler) ListActive(c *gin.Context) {
	users, err := h.userService.ListActive(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]userView, len(users))
	for i := range users {
		views[i] = newUserView(&users[i])
	}
	c.JSON(http.StatusOK, gin.H{"users": views})
}

type createUserRequest struct {
	Username   string          `json:"username" binding:"required"`
	Password   string          `json:"password" binding:"required"`
	FullName   string          `json:"full_name" binding:"required"`
	Role       models.UserRole `json:"role"`
	Department string          `json:"department" binding:"required"`
	Email      string          `json:"email"`
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Create(c.Request.Context(), services.CreateUserInput{
		Username:   req.Username,
		Password:   req.Password,
		FullName:   req.FullName,
		Role:       req.Role,
		Department: req.Department,
		Email:      req.Email,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserView(user))
}

type updateUserRequest struct {
	FullName   string          `json:"full_name"`
	Role       models.UserRole `json:"role"`
	Department string          `json:"department"`
	Email      string          `json:"email"`
	IsActive   *bool           `json:"is_active"`
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.userService.Update(c.Request.Context(), id, services.UpdateUserInput{
		FullName:   req.FullName,
		Role:       req.Role,
		Department: req.Department,
		Email:      req.Email,
		IsActive:   req.IsActive,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
