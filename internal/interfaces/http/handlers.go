package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/insurhub/underwriter/internal/application/service"
	"github.com/insurhub/underwriter/internal/domain/entity"
	"github.com/insurhub/underwriter/internal/domain/workflow"
)

// Response is the standard API envelope
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	underwritingService service.UnderwritingService
	claimService        service.ClaimService
	logger              Logger
}

// NewHandlers creates a new handlers instance
func NewHandlers(
	underwritingService service.UnderwritingService,
	claimService service.ClaimService,
	logger Logger,
) *Handlers {
	return &Handlers{
		underwritingService: underwritingService,
		claimService:        claimService,
		logger:              logger,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    gin.H{"status": "healthy"},
	})
}

// SubmitApplication handles POST /api/applications
func (h *Handlers) SubmitApplication(c *gin.Context) {
	var req service.ApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	app, err := h.underwritingService.SubmitApplication(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: app})
}

// GetApplication handles GET /api/applications/:id
func (h *Handlers) GetApplication(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	app, err := h.underwritingService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: app})
}

// ListPendingApplications handles GET /api/applications/pending
func (h *Handlers) ListPendingApplications(c *gin.Context) {
	limit, offset := paging(c)

	apps, err := h.underwritingService.ListPending(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: apps})
}

type decisionRequest struct {
	Decision workflow.Decision `json:"decision"`
	Notes    string            `json:"notes,omitempty"`
}

// DecideApplication handles POST /api/applications/:id/decision
func (h *Handlers) DecideApplication(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	app, err := h.underwritingService.Decide(c.Request.Context(), id, req.Decision, req.Notes)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: app})
}

// SubmitClaim handles POST /api/claims
func (h *Handlers) SubmitClaim(c *gin.Context) {
	var req service.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	claim, err := h.claimService.SubmitClaim(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: claim})
}

// GetClaim handles GET /api/claims/:id
func (h *Handlers) GetClaim(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	claim, err := h.claimService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claim})
}

// ListPendingClaims handles GET /api/claims/pending. The status query
// parameter selects the review queue, defaulting to the admin queue.
func (h *Handlers) ListPendingClaims(c *gin.Context) {
	status := entity.ClaimStatus(c.DefaultQuery("status", string(entity.ClaimPendingAdminReview)))
	limit, offset := paging(c)

	claims, err := h.claimService.ListPending(c.Request.Context(), status, limit, offset)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claims})
}

// DecideClaim handles POST /api/claims/:id/decision
func (h *Handlers) DecideClaim(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	claim, err := h.claimService.Decide(c.Request.Context(), id, currentUserID(c), req.Decision, req.Notes)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claim})
}

// ReanalyzeClaim handles POST /api/claims/:id/reanalyze
func (h *Handlers) ReanalyzeClaim(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	claim, err := h.claimService.Reanalyze(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claim})
}

// MarkClaimPaid handles POST /api/claims/:id/paid
func (h *Handlers) MarkClaimPaid(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	claim, err := h.claimService.MarkPaid(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claim})
}

// pathID parses the :id path parameter, responding 400 on failure.
func (h *Handlers) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.respondError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func paging(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if limit <= 0 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *Handlers) respondError(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Success: false, Error: message})
}

// respondServiceError maps domain errors to HTTP status codes.
func (h *Handlers) respondServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, entity.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, entity.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entity.ErrDuplicateApplication),
		errors.Is(err, entity.ErrConflict),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrAlreadyDecided):
		status = http.StatusConflict
	case errors.Is(err, entity.ErrPolicyNotActive):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		h.respondError(c, status, "internal server error")
		return
	}

	h.respondError(c, status, err.Error())
}
