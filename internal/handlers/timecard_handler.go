package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sjperalta/timecard-api/internal/middleware"
	"github.com/sjperalta/timecard-api/internal/models"
	"github.com/sjperalta/timecard-api/internal/repository"
	"github.com/sjperalta/timecard-api/internal/services"
	"github.com/sjperalta/timecard-api/internal/statemachine"
)

type TimecardHandler struct {
	timecardService *services.TimecardService
}

func NewTimecardHandler(timecardService *services.TimecardService) *TimecardHandler {
	return &TimecardHandler{timecardService: timecardService}
}

type CreateTimecardRequest struct {
	ProjectID   uint            `json:"project_id" binding:"required"`
	PeriodStart models.Date     `json:"period_start"`
	PeriodEnd   models.Date     `json:"period_end"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
}

// TransitionBody is the optional body of every lifecycle request
type TransitionBody struct {
	ExpectedVersion int `json:"expected_version"`
}

type EditRequest struct {
	TransitionBody
	EditsPayload
}

type RejectRequest struct {
	TransitionBody
	EditsPayload
	Reason          string `json:"reason"`
	RejectionReason string `json:"rejection_reason"`
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, "ID inválido")
		return 0, false
	}
	return uint(id), true
}

// bindOptional binds a JSON body when one was sent
func bindOptional(c *gin.Context, obj interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		badRequest(c, err.Error())
		return false
	}
	return true
}

func respondResult(c *gin.Context, result *services.Result) {
	changes := result.Changes
	if changes == nil {
		changes = []models.TimecardAuditLog{}
	}
	c.JSON(http.StatusOK, gin.H{
		"timecard":  result.Timecard.ToResponse(),
		"change_id": result.ChangeID,
		"changes":   changes,
	})
}

// @Summary List Timecards
// @Description Get a paginated list of timecards. Plain users only see their own.
// @Tags Timecards
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Param user_id query int false "Filter by owner"
// @Param project_id query int false "Filter by project"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /timecards [get]
func (h *TimecardHandler) Index(c *gin.Context) {
	query := &repository.TimecardQuery{ListQuery: repository.NewListQuery()}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PerPage < 1 || query.PerPage > 100 {
		query.PerPage = 20
	}
	if status := c.Query("status"); status != "" {
		if !models.IsValidTimecardStatus(status) {
			badRequest(c, "Estado inválido")
			return
		}
		query.Status = status
	}
	if v, err := strconv.ParseUint(c.Query("user_id"), 10, 32); err == nil {
		query.UserID = uint(v)
	}
	if v, err := strconv.ParseUint(c.Query("project_id"), 10, 32); err == nil {
		query.ProjectID = uint(v)
	}

	timecards, total, err := h.timecardService.List(c.Request.Context(), query, middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.TimecardResponse, 0, len(timecards))
	for i := range timecards {
		timecards[i].Entries = nil
		responses = append(responses, timecards[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"timecards": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Create Timecard
// @Description Open a draft timecard with one daily entry per date of the period
// @Tags Timecards
// @Accept json
// @Produce json
// @Param timecard body CreateTimecardRequest true "Timecard"
// @Success 201 {object} models.TimecardResponse
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /timecards [post]
func (h *TimecardHandler) Create(c *gin.Context) {
	var req CreateTimecardRequest
	if err := BindNestedOrFlat(c, "timecard", &req); err != nil {
		badRequest(c, err.Error())
		return
	}

	timecard, err := h.timecardService.CreateDraft(c.Request.Context(), services.CreateTimecardRequest{
		ProjectID:   req.ProjectID,
		PeriodStart: req.PeriodStart,
		PeriodEnd:   req.PeriodEnd,
		HourlyRate:  req.HourlyRate,
	}, middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"timecard": timecard.ToResponse()})
}

// @Summary Get Timecard
// @Description Get a timecard with its daily entries and the events the caller may fire
// @Tags Timecards
// @Produce json
// @Param id path int true "Timecard ID"
// @Success 200 {object} models.TimecardResponse
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /timecards/{id} [get]
func (h *TimecardHandler) Show(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	actor := middleware.GetActor(c)
	timecard, err := h.timecardService.FindByID(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := timecard.ToResponse()
	resp.AvailableEvents = statemachine.NewTimecardFSM(timecard).AvailableEvents(actor)
	c.JSON(http.StatusOK, gin.H{"timecard": resp})
}

// @Summary Save Draft Entries
// @Description The owner edits daily entries of a draft, edited draft or rejected timecard
// @Tags Timecards
// @Accept json
// @Produce json
// @Param id path int true "Timecard ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /timecards/{id}/entries [put]
func (h *TimecardHandler) UpdateEntries(c *gin.Context) {
	h.edit(c, h.timecardService.SaveDraftEntries)
}

// @Summary Admin Edit Draft
// @Description An approver corrects a draft directly, marking it edited_draft
// @Tags Timecards
// @Accept json
// @Produce json
// @Param id path int true "Timecard ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /timecards/{id}/admin_edit [post]
func (h *TimecardHandler) AdminEdit(c *gin.Context) {
	h.edit(c, h.timecardService.AdminEditDraft)
}

func (h *TimecardHandler) edit(c *gin.Context, apply func(ctx context.Context, req services.EditRequest) (*services.Result, error)) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	edits, err := req.DailyEdits()
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := apply(c.Request.Context(), services.EditRequest{
		TransitionRequest: services.TransitionRequest{
			TimecardID:      id,
			Actor:           middleware.GetActor(c),
			ExpectedVersion: req.ExpectedVersion,
		},
		Edits: edits,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondResult(c, result)
}

// @Summary Submit Timecard
// @Tags Timecards
// @Produce json
// @Param id path int true "Timecard ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /timecards/{id}/submit [post]
func (h *TimecardHandler) Submit(c *gin.Context) {
	h.transition(c, h.timecardService.Submit)
}

// @Summary Approve Timecard
// @Tags Timecards
// @Produce json
// @Param id path int true "Timecard ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /timecards/{id}/approve [post]
func (h *TimecardHandler) Approve(c *gin.Context) {
	h.transition(c, h.timecardService.Approve)
}

// @Summary Unapprove Timecard
// @Tags Timecards
// @Produce json
// @Param id path int true "Timecard ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /timecards/{id}/unapprove [post]
func (h *TimecardHandler) Unapprove(c *gin.Context) {
	h.transition(c, h.timecardService.Unapprove)
}

// @Summary Reopen Timecard
// @Tags Timecards
// @Produce json
// @Param id path int true "Timecard ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /timecards/{id}/reopen [post]
func (h *TimecardHandler) Reopen(c *gin.Context) {
	h.transition(c, h.timecardService.Reopen)
}

// @Summary Resubmit Timecard
// @Tags Timecards
// @Produce json
// @Param id path int true "Timecard ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /timecards/{id}/resubmit [post]
func (h *TimecardHandler) Resubmit(c *gin.Context) {
	h.transition(c, h.timecardService.Resubmit)
}

func (h *TimecardHandler) transition(c *gin.Context, fire func(ctx context.Context, req services.TransitionRequest) (*services.Result, error)) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body TransitionBody
	if !bindOptional(c, &body) {
		return
	}

	result, err := fire(c.Request.Context(), services.TransitionRequest{
		TimecardID:      id,
		Actor:           middleware.GetActor(c),
		ExpectedVersion: body.ExpectedVersion,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondResult(c, result)
}

// @Summary Reject Timecard
// @Description Reject a submitted timecard, optionally correcting daily entries in the same interaction
// @Tags Timecards
// @Accept json
// @Produce json
// @Param id path int true "Timecard ID"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /timecards/{id}/reject [post]
// @Router /timecards/{id}/reject_with_edits [post]
func (h *TimecardHandler) Reject(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req RejectRequest
	if c.Request.ContentLength != 0 {
		if err := BindNestedOrFlat(c, "rejection", &req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	edits, err := req.DailyEdits()
	if err != nil {
		respondError(c, err)
		return
	}
	reason := req.Reason
	if strings.TrimSpace(reason) == "" {
		reason = req.RejectionReason
	}

	result, err := h.timecardService.Rejection().RejectWithEdits(c.Request.Context(), services.RejectRequest{
		TransitionRequest: services.TransitionRequest{
			TimecardID:      id,
			Actor:           middleware.GetActor(c),
			ExpectedVersion: req.ExpectedVersion,
		},
		Reason: reason,
		Edits:  edits,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondResult(c, result)
}
