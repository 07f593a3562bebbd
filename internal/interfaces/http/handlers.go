package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/admissions-flow/internal/application/service"
	"github.com/garyjia/admissions-flow/internal/application/workflow"
	"github.com/garyjia/admissions-flow/internal/domain/entity"
	"github.com/garyjia/admissions-flow/internal/domain/flow"
	domainwf "github.com/garyjia/admissions-flow/internal/domain/workflow"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100

	allStepsCompleteMessage = "All steps complete"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	admissions service.AdmissionsService
	health     HealthFunc
	logger     Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(admissions service.AdmissionsService, health HealthFunc, logger Logger) *Handlers {
	return &Handlers{
		admissions: admissions,
		health:     health,
		logger:     logger,
	}
}

// CreateApplicantRequest is the personal details form
type CreateApplicantRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CompleteStepRequest submits the current task of a step. UserID accepts a
// JSON number or a numeric string.
type CompleteStepRequest struct {
	UserID      json.Number            `json:"user_id"`
	StepName    string                 `json:"step_name"`
	StepPayload map[string]interface{} `json:"step_payload"`
}

// ListApplicantsRequest represents query parameters for listing applicants
type ListApplicantsRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// ApplicantSummary is one row of the applicant listing
type ApplicantSummary struct {
	ID           int64               `json:"id"`
	Status       domainwf.State      `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	PersonalInfo entity.PersonalInfo `json:"personal_info"`
	CurrentStep  string              `json:"current_step,omitempty"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	if h.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		return
	}

	healthy, components := h.health()
	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "components": components})
}

// DescribeFlow handles GET /api/flow
func (h *Handlers) DescribeFlow(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"steps": h.admissions.DescribeFlow()})
}

// CreateApplicant handles POST /api/users
func (h *Handlers) CreateApplicant(c *gin.Context) {
	var req CreateApplicantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	a, err := h.admissions.CreateApplicant(c.Request.Context(), entity.PersonalInfo{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": a.ID})
}

// ListApplicants handles GET /api/users
func (h *Handlers) ListApplicants(c *gin.Context) {
	var req ListApplicantsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.badRequest(c, "invalid query parameters: "+err.Error())
		return
	}

	if req.Limit <= 0 {
		req.Limit = defaultListLimit
	}
	if req.Limit > maxListLimit {
		req.Limit = maxListLimit
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	applicants, err := h.admissions.ListApplicants(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.writeError(c, err)
		return
	}

	items := make([]ApplicantSummary, 0, len(applicants))
	for _, a := range applicants {
		summary := ApplicantSummary{
			ID:           a.ID,
			Status:       a.Status,
			CreatedAt:    a.CreatedAt,
			PersonalInfo: a.PersonalInfo,
		}
		if pos, ok := flow.CurrentStep(a.Progress); ok {
			summary.CurrentStep = pos.Step.String()
		}
		items = append(items, summary)
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  items,
		"limit":  req.Limit,
		"offset": req.Offset,
	})
}

// GetFullFlow handles GET /api/users/:userId/flow
func (h *Handlers) GetFullFlow(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}

	snap, err := h.admissions.GetFullFlow(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// GetCurrentStep handles GET /api/users/:userId/step
func (h *Handlers) GetCurrentStep(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}

	cur, err := h.admissions.GetCurrentStep(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if cur.Complete {
		c.JSON(http.StatusOK, gin.H{"message": allStepsCompleteMessage})
		return
	}
	c.JSON(http.StatusOK, gin.H{"step": cur.Step, "tasks": cur.Tasks})
}

// GetStatus handles GET /api/users/:userId/status
func (h *Handlers) GetStatus(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}

	status, err := h.admissions.GetStatus(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status})
}

// GetHistory handles GET /api/users/:userId/history
func (h *Handlers) GetHistory(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}

	records, err := h.admissions.GetHistory(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if records == nil {
		records = []*entity.TransitionRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"items": records})
}

// CompleteStep handles PUT /api/steps/complete
func (h *Handlers) CompleteStep(c *gin.Context) {
	var req CompleteStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	id, err := req.UserID.Int64()
	if err != nil {
		h.badRequest(c, "user_id must be an integer")
		return
	}

	res, err := h.admissions.CompleteStep(c.Request.Context(), workflow.CompleteRequest{
		ApplicantID: id,
		StepName:    req.StepName,
		Payload:     workflow.Payload(req.StepPayload),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": res.Message()})
}

// userID parses the :userId path parameter, answering 400 when it is not an integer
func (h *Handlers) userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		h.badRequest(c, "userId must be an integer")
		return 0, false
	}
	return id, true
}
