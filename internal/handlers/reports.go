package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/JonnyWalker81/healthlog/backend/internal/middleware"
	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/JonnyWalker81/healthlog/backend/internal/service"
	"github.com/gin-gonic/gin"
)

// DefaultReportDays is the length of a report without a start
const DefaultReportDays = 7

// ReportHandler serves reports, export, import and backups
type ReportHandler struct {
	reportService service.ReportService
	exportService service.ExportService
	now           func() time.Time
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService service.ReportService, exportService service.ExportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		exportService: exportService,
		now:           time.Now,
	}
}

// GetReport handles GET /api/v1/reports
// Query params:
//   - start, end: days, inclusive (default the last 7 days)
//   - types: comma-separated food, water, exercise (default all)
//   - format: json (default) or html
func (h *ReportHandler) GetReport(c *gin.Context) {
	end, ok := queryTime(c, "end", h.now())
	if !ok {
		return
	}
	start, ok := queryTime(c, "start", end.AddDate(0, 0, -(DefaultReportDays-1)))
	if !ok {
		return
	}

	var types []models.ReportType
	for _, raw := range c.QueryArray("types") {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, models.ReportType(t))
			}
		}
	}

	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "html" {
		writeInvalidParam(c, "format", "must be json or html")
		return
	}

	report, err := h.reportService.GenerateReport(c.Request.Context(), middleware.UserID(c), start, end, types)
	if err != nil {
		writeServiceError(c, err, "report", "")
		return
	}

	if format == "json" {
		c.JSON(http.StatusOK, report)
		return
	}

	html, err := h.reportService.RenderHTML(report)
	if err != nil {
		writeServiceError(c, err, "report", "")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", html)
}

// Export handles GET /api/v1/export
// The body is a JSON array of log entries, oldest first.
func (h *ReportHandler) Export(c *gin.Context) {
	entries, err := h.exportService.Export(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err, "export", "")
		return
	}

	filename := fmt.Sprintf("healthlog-export-%s.json", h.now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.JSON(http.StatusOK, entries)
}

// Import handles POST /api/v1/import
// The body is an export document. Invalid records are reported per index
// and do not stop the others.
func (h *ReportHandler) Import(c *gin.Context) {
	var records []json.RawMessage
	if err := c.ShouldBindJSON(&records); err != nil {
		writeBadJSON(c, err)
		return
	}

	result, err := h.exportService.Import(c.Request.Context(), middleware.UserID(c), records)
	if err != nil {
		writeServiceError(c, err, "import", "")
		return
	}

	logger.Ctx(c.Request.Context()).Info("import completed",
		logger.Int("created", result.Created),
		logger.Int("updated", result.Updated),
		logger.Int("rejected", len(result.Rejected)),
	)

	c.JSON(http.StatusOK, result)
}

// Backup handles POST /api/v1/export/backup
func (h *ReportHandler) Backup(c *gin.Context) {
	result, err := h.exportService.Backup(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err, "backup", "")
		return
	}

	c.JSON(http.StatusCreated, result)
}
