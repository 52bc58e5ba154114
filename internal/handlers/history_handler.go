package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sjperalta/timecard-api/internal/middleware"
	"github.com/sjperalta/timecard-api/internal/services"
)

type HistoryHandler struct {
	historyService *services.HistoryService
	exportService  *services.ExportService
}

func NewHistoryHandler(historyService *services.HistoryService, exportService *services.ExportService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService, exportService: exportService}
}

// @Summary Timecard History
// @Description Get the audit trail of a timecard, flat or grouped by interaction
// @Tags Timecards
// @Produce json
// @Param id path int true "Timecard ID"
// @Param view query string false "flat or grouped" default(flat)
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /timecards/{id}/history [get]
func (h *HistoryHandler) Index(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	actor := middleware.GetActor(c)

	switch view := c.DefaultQuery("view", "flat"); view {
	case "flat":
		entries, err := h.historyService.ListFlat(c.Request.Context(), id, actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"history": entries})
	case "grouped":
		groups, err := h.historyService.ListGrouped(c.Request.Context(), id, actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"history": groups})
	default:
		badRequest(c, fmt.Sprintf("Vista inválida: %s", view))
	}
}

// @Summary Timecard Change
// @Description Get every field change written by one interaction
// @Tags Timecards
// @Produce json
// @Param id path int true "Timecard ID"
// @Param change_id path string true "Change ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /timecards/{id}/changes/{change_id} [get]
func (h *HistoryHandler) Change(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	changeID, err := uuid.Parse(c.Param("change_id"))
	if err != nil {
		badRequest(c, "ID de cambio inválido")
		return
	}

	group, err := h.historyService.FindChange(c.Request.Context(), id, changeID.String(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"change": group})
}

// @Summary Export Timecard History
// @Description Download the audit trail as CSV, XLSX or PDF
// @Tags Timecards
// @Produce octet-stream
// @Param id path int true "Timecard ID"
// @Param format query string false "csv, xlsx or pdf" default(xlsx)
// @Success 200 {file} file
// @Security BearerAuth
// @Router /timecards/{id}/history/export [get]
func (h *HistoryHandler) Export(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	actor := middleware.GetActor(c)

	var (
		data        []byte
		filename    string
		contentType string
		err         error
	)
	switch format := c.DefaultQuery("format", "xlsx"); format {
	case "csv":
		data, filename, err = h.exportService.ExportCSV(c.Request.Context(), id, actor)
		contentType = "text/csv"
	case "xlsx":
		data, filename, err = h.exportService.ExportXLSX(c.Request.Context(), id, actor)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		data, filename, err = h.exportService.ExportPDF(c.Request.Context(), id, actor)
		contentType = "application/pdf"
	default:
		badRequest(c, fmt.Sprintf("Formato inválido: %s", format))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, contentType, data)
}
