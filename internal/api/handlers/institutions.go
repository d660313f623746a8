package handlers

import (
	"net/http"

	"github.com/frosty888/eProtokoll/internal/db/models"
	"github.com/frosty888/eProtokoll/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InstitutionHandler struct {
	institutionService *services.InstitutionService
	logger             *zap.Logger
}

func NewInstitutionHandler(institutionService *services.InstitutionService, logger *zap.Logger) *InstitutionHandler {
	return &InstitutionHandler{
		institutionService: institutionService,
		logger:             logger.With(zap.String("handler", "institution")),
	}
}

func (h *InstitutionHandler) List(c *gin.Context) {
	institutions, err := h.institutionService.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"institutions": institutions})
}

type institutionRequest struct {
	Name          string                 `json:"name" binding:"required"`
	Type          models.InstitutionType `json:"type"`
	Address       string                 `json:"address"`
	Phone         string                 `json:"phone"`
	Email         string                 `json:"email"`
	ContactPerson string                 `json:"contact_person"`
	Notes         string                 `json:"notes"`
}

func (h *InstitutionHandler) Create(c *gin.Context) {
	var req institutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	inst := &models.Institution{
		Name:          req.Name,
		Type:          req.Type,
		Address:       req.Address,
		Phone:         req.Phone,
		Email:         req.Email,
		ContactPerson: req.ContactPerson,
		Notes:         req.Notes,
		IsActive:      true,
	}
	if err := h.institutionService.Create(c.Request.Context(), inst); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inst)
}

type updateInstitutionRequest struct {
	Name          string                 `json:"name"`
	Type          models.InstitutionType `json:"type"`
	Address       string                 `json:"address"`
	Phone         string                 `json:"phone"`
	Email         string                 `json:"email"`
	ContactPerson string                 `json:"contact_person"`
	Notes         string                 `json:"notes"`
	IsActive      *bool                  `json:"is_active"`
}

func (h *InstitutionHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateInstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Type != "" {
		updates["type"] = req.Type
	}
	if req.Address != "" {
		updates["address"] = req.Address
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.ContactPerson != "" {
		updates["contact_person"] = req.ContactPerson
	}
	if req.Notes != "" {
		updates["notes"] = req.Notes
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := h.institutionService.Update(c.Request.Context(), id, updates); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *InstitutionHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.institutionService.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
