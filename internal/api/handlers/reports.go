package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/frosty888/eProtokoll/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReportHandler struct {
	reportService *services.ReportService
	logger        *zap.Logger
}

func NewReportHandler(reportService *services.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger.With(zap.String("handler", "report")),
	}
}

func (h *ReportHandler) Dashboard(c *gin.Context) {
	summary, err := h.reportService.Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ReportHandler) Statistics(c *gin.Context) {
	stats, err := h.reportService.Statistics(c.Request.Context(), queryYear(c), time.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *ReportHandler) ProtocolBook(c *gin.Context) {
	now := time.Now()
	docs, err := h.reportService.ProtocolBook(c.Request.Context(), queryYear(c), now)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": newDocumentViews(docs, now)})
}

func (h *ReportHandler) Deadlines(c *gin.Context) {
	docs, err := h.reportService.Deadlines(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": newDocumentViews(docs, time.Now())})
}

func queryYear(c *gin.Context) int {
	if v := c.Query("year"); v != "" {
		if year, err := strconv.Atoi(v); err == nil {
			return year
		}
	}
	return 0
}
