package handlers

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/frosty888/eProtokoll/internal/api/middleware"
	"github.com/frosty888/eProtokoll/internal/db/models"
	"github.com/frosty888/eProtokoll/internal/services"
	"github.com/frosty888/eProtokoll/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	documentService *services.DocumentService
	store           *storage.Store
	logger          *zap.Logger
}

func NewDocumentHandler(documentService *services.DocumentService, store *storage.Store, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		store:           store,
		logger:          logger.With(zap.String("handler", "document")),
	}
}

type routingEventView struct {
	From    uint      `json:"from"`
	To      *uint     `json:"to,omitempty"`
	Action  string    `json:"action"`
	Remarks string    `json:"remarks,omitempty"`
	Date    time.Time `json:"date"`
}

type documentView struct {
	ID              uint                  `json:"id"`
	ProtocolNumber  *string               `json:"protocol_number"`
	Title           string                `json:"title"`
	Description     string                `json:"description,omitempty"`
	DocumentType    models.DocumentType   `json:"document_type"`
	Classification  models.Classification `json:"classification"`
	Status          models.DocumentStatus `json:"status"`
	Deadline        *time.Time            `json:"deadline,omitempty"`
	Department      string                `json:"department,omitempty"`
	ReceivedFrom    string                `json:"received_from,omitempty"`
	SentTo          string                `json:"sent_to,omitempty"`
	FromDepartment  string                `json:"from_department,omitempty"`
	ToDepartment    string                `json:"to_department,omitempty"`
	ExternalAddress string                `json:"external_address,omitempty"`
	FileName        string                `json:"file_name,omitempty"`
	FileSize        int64                 `json:"file_size,omitempty"`
	UploadedBy      uint                  `json:"uploaded_by"`
	AssignedTo      []uint                `json:"assigned_to"`
	Routing         []routingEventView    `json:"routing"`
	IsOverdue       bool                  `json:"is_overdue"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

func newDocumentView(d *models.Document, now time.Time) documentView {
	assigned := make([]uint, 0, len(d.AssignedTo))
	for _, a := range d.AssignedTo {
		assigned = append(assigned, a.UserID)
	}

	routing := make([]routingEventView, 0, len(d.Routing))
	for _, ev := range d.Routing {
		routing = append(routing, routingEventView{
			From:    ev.FromUserID,
			To:      ev.ToUserID,
			Action:  ev.Action,
			Remarks: ev.Remarks,
			Date:    ev.Date,
		})
	}

	return documentView{
		ID:              d.ID,
		ProtocolNumber:  d.ProtocolNumber,
		Title:           d.Title,
		Description:     d.Description,
		DocumentType:    d.DocumentType,
		Classification:  d.Classification,
		Status:          d.Status,
		Deadline:        d.Deadline,
		Department:      d.Department,
		ReceivedFrom:    d.ReceivedFrom,
		SentTo:          d.SentTo,
		FromDepartment:  d.FromDepartment,
		ToDepartment:    d.ToDepartment,
		ExternalAddress: d.ExternalAddress,
		FileName:        d.FileName,
		FileSize:        d.FileSize,
		UploadedBy:      d.UploadedBy,
		AssignedTo:      assigned,
		Routing:         routing,
		IsOverdue:       d.IsOverdue(now),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func newDocumentViews(docs []models.Document, now time.Time) []documentView {
	views := make([]documentView, len(docs))
	for i := range docs {
		views[i] = newDocumentView(&docs[i], now)
	}
	return views
}

// Upload registers a document from a multipart form. Correspondence fields
// that don't belong to the chosen type are silently dropped by the service.
func (h *DocumentHandler) Upload(c *gin.Context) {
	actorID, _ := middleware.Actor(c)

	fileHeader, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	defer file.Close()

	stored, err := h.store.Save(fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		writeError(c, err)
		return
	}

	var deadline *time.Time
	if v := c.PostForm("deadline"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "deadline must be YYYY-MM-DD"})
			return
		}
		deadline = &t
	}

	doc, err := h.documentService.Create(c.Request.Context(), services.CreateDocumentInput{
		Type:           models.DocumentType(c.PostForm("document_type")),
		Title:          c.PostForm("title"),
		Description:    c.PostForm("description"),
		Classification: models.Classification(c.PostForm("classification")),
		Deadline:       deadline,
		Department:     c.PostForm("department"),
		Correspondence: models.Correspondence{
			ReceivedFrom:    c.PostForm("received_from"),
			SentTo:          c.PostForm("sent_to"),
			FromDepartment:  c.PostForm("from_department"),
			ToDepartment:    c.PostForm("to_department"),
			ExternalAddress: c.PostForm("external_address"),
		},
		UploaderID: actorID,
		FileName:   stored.OriginalName,
		FilePath:   stored.StorageKey,
		FileSize:   stored.Size,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newDocumentView(doc, time.Now()))
}

func (h *DocumentHandler) List(c *gin.Context) {
	actorID, role := middleware.Actor(c)

	docs, err := h.documentService.List(c.Request.Context(), actorID, role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": newDocumentViews(docs, time.Now())})
}

func (h *DocumentHandler) AssignedToMe(c *gin.Context) {
	actorID, _ := middleware.Actor(c)

	docs, err := h.documentService.ListAssignedTo(c.Request.Context(), actorID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": newDocumentViews(docs, time.Now())})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	actorID, role := middleware.Actor(c)
	docID, ok := pathID(c)
	if !ok {
		return
	}

	doc, err := h.documentService.Get(c.Request.Context(), docID, actorID, role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newDocumentView(doc, time.Now()))
}

func (h *DocumentHandler) Download(c *gin.Context) {
	actorID, role := middleware.Actor(c)
	docID, ok := pathID(c)
	if !ok {
		return
	}

	doc, err := h.documentService.Get(c.Request.Context(), docID, actorID, role)
	if err != nil {
		writeError(c, err)
		return
	}

	reader, err := h.store.Open(doc.FilePath)
	if err != nil {
		writeError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", `attachment; filename="`+doc.FileName+`"`)
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		h.logger.Warn("download interrupted", zap.Uint("doc_id", docID), zap.Error(err))
	}
}

type changeStatusRequest struct {
	Status  models.DocumentStatus `json:"status" binding:"required"`
	Remarks string                `json:"remarks"`
}

func (h *DocumentHandler) ChangeStatus(c *gin.Context) {
	actorID, role := middleware.Actor(c)
	docID, ok := pathID(c)
	if !ok {
		return
	}

	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	if err := h.documentService.ChangeStatus(c.Request.Context(), docID, actorID, role, req.Status, req.Remarks); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

type delegateRequest struct {
	DelegateTo       uint   `json:"delegate_to" binding:"required"`
	Action           string `json:"action"`
	Remarks          string `json:"remarks"`
	ResponseDeadline string `json:"response_deadline"`
}

func (h *DocumentHandler) Delegate(c *gin.Context) {
	actorID, role := middleware.Actor(c)
	docID, ok := pathID(c)
	if !ok {
		return
	}

	var req delegateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "delegate_to is required"})
		return
	}

	var deadline *time.Time
	if req.ResponseDeadline != "" {
		t, err := time.Parse("2006-01-02", req.ResponseDeadline)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "response_deadline must be YYYY-MM-DD"})
			return
		}
		deadline = &t
	}

	if err := h.documentService.Delegate(c.Request.Context(), docID, actorID, role, req.DelegateTo, req.Action, req.Remarks, deadline); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delegated_to": req.DelegateTo})
}

type respondRequest struct {
	Response string `json:"response"`
	Remarks  string `json:"remarks"`
}

func (h *DocumentHandler) Respond(c *gin.Context) {
	actorID, role := middleware.Actor(c)
	docID, ok := pathID(c)
	if !ok {
		return
	}

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.documentService.Respond(c.Request.Context(), docID, actorID, role, req.Response, req.Remarks); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "response recorded"})
}

// Trail returns the full routing history; same visibility rules as Get.
func (h *DocumentHandler) Trail(c *gin.Context) {
	actorID, role := middleware.Actor(c)
	docID, ok := pathID(c)
	if !ok {
		return
	}

	doc, err := h.documentService.Get(c.Request.Context(), docID, actorID, role)
	if err != nil {
		writeError(c, err)
		return
	}

	view := newDocumentView(doc, time.Now())
	c.JSON(http.StatusOK, gin.H{
		"document_id":     view.ID,
		"protocol_number": view.ProtocolNumber,
		"assigned_to":     view.AssignedTo,
		"routing":         view.Routing,
	})
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}
