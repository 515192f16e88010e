package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medadmin/approvalflow/internal/application/port"
	"github.com/medadmin/approvalflow/internal/application/service"
	"github.com/medadmin/approvalflow/internal/domain/apperror"
	"github.com/medadmin/approvalflow/internal/domain/entity"
	"go.uber.org/zap"
)

// Handler exposes the approval engine over HTTP
type Handler struct {
	catalog   service.WorkflowCatalog
	ledger    service.RequestLedger
	processor service.DecisionProcessor
	logger    *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	catalog service.WorkflowCatalog,
	ledger service.RequestLedger,
	processor service.DecisionProcessor,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		catalog:   catalog,
		ledger:    ledger,
		processor: processor,
		logger:    logger,
	}
}

type stepPayload struct {
	Name           string `json:"name"`
	ApproverRole   string `json:"approver_role"`
	ApproverUserID string `json:"approver_user_id"`
	IsRequired     bool   `json:"is_required"`
	CanReject      bool   `json:"can_reject"`
	CanEdit        bool   `json:"can_edit"`
	AutoApprove    bool   `json:"auto_approve"`
	TimeoutHours   *int   `json:"timeout_hours"`
}

type createWorkflowPayload struct {
	Name       string        `json:"name"`
	EntityType string        `json:"entity_type"`
	Steps      []stepPayload `json:"steps"`
}

// CreateWorkflow handles POST /workflows
func (h *Handler) CreateWorkflow(c *gin.Context) {
	var payload createWorkflowPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	specs := make([]service.StepSpec, 0, len(payload.Steps))
	for i, sp := range payload.Steps {
		if sp.ApproverRole != "" && sp.ApproverUserID != "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "step " + strconv.Itoa(i+1) + " sets both approver_role and approver_user_id",
			})
			return
		}

		approver := entity.NoApprover()
		switch {
		case sp.ApproverRole != "":
			approver = entity.RoleApprover(sp.ApproverRole)
		case sp.ApproverUserID != "":
			approver = entity.UserApprover(sp.ApproverUserID)
		}

		specs = append(specs, service.StepSpec{
			Name:         sp.Name,
			Approver:     approver,
			IsRequired:   sp.IsRequired,
			CanReject:    sp.CanReject,
			CanEdit:      sp.CanEdit,
			AutoApprove:  sp.AutoApprove,
			TimeoutHours: sp.TimeoutHours,
		})
	}

	workflow, err := h.catalog.CreateWorkflow(c.Request.Context(), payload.Name, payload.EntityType, specs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, workflow)
}

// GetWorkflow handles GET /workflows/:id
func (h *Handler) GetWorkflow(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	workflow, err := h.catalog.GetWorkflow(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, workflow)
}

// ListWorkflows handles GET /workflows
func (h *Handler) ListWorkflows(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	workflows, err := h.catalog.ListWorkflows(c.Request.Context(), c.Query("entity_type"), activeOnly)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workflows": workflows})
}

// DeactivateWorkflow handles POST /workflows/:id/deactivate
func (h *Handler) DeactivateWorkflow(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.catalog.DeactivateWorkflow(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}

type createRequestPayload struct {
	WorkflowID  int64      `json:"workflow_id"`
	EntityType  string     `json:"entity_type"`
	EntityID    string     `json:"entity_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Data        string     `json:"data"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

// CreateRequest handles POST /requests
func (h *Handler) CreateRequest(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var payload createRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	request, err := h.ledger.CreateRequest(c.Request.Context(), service.CreateRequestInput{
		WorkflowID:  payload.WorkflowID,
		EntityType:  payload.EntityType,
		EntityID:    payload.EntityID,
		RequesterID: actor.ID,
		Title:       payload.Title,
		Description: payload.Description,
		Data:        payload.Data,
		Priority:    payload.Priority,
		DueDate:     payload.DueDate,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

// GetRequest handles GET /requests/:id
func (h *Handler) GetRequest(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	request, err := h.ledger.GetRequest(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// ListRequests handles GET /requests
func (h *Handler) ListRequests(c *gin.Context) {
	filter := port.RequestFilter{
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		Status:     c.Query("status"),
	}
	if limit := c.Query("limit"); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil {
			filter.Limit = v
		}
	}
	if offset := c.Query("offset"); offset != "" {
		if v, err := strconv.Atoi(offset); err == nil {
			filter.Offset = v
		}
	}

	requests, err := h.ledger.ListRequests(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ListPendingApprovals handles GET /approvals/pending
func (h *Handler) ListPendingApprovals(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	requests, err := h.ledger.ListPendingForActor(c.Request.Context(), actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

type decisionPayload struct {
	Action  string `json:"action"`
	Comment string `json:"comment"`
	Data    string `json:"data"`
}

// SubmitDecision handles POST /requests/:id/decisions
func (h *Handler) SubmitDecision(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var payload decisionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.processor.Decide(c.Request.Context(), id, actor, payload.Action, payload.Comment, payload.Data)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Healthz handles GET /healthz
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// actor reads the externally-resolved identity from request headers
func (h *Handler) actor(c *gin.Context) (entity.Actor, bool) {
	actor := entity.Actor{
		ID:   c.GetHeader("X-Actor-ID"),
		Role: c.GetHeader("X-Actor-Role"),
	}
	if actor.ID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "X-Actor-ID header is required"})
		return actor, false
	}
	return actor, true
}

func (h *Handler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound), errors.Is(err, apperror.ErrStepNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperror.ErrDuplicateRequest),
		errors.Is(err, apperror.ErrAlreadyDecided),
		errors.Is(err, apperror.ErrInvalidState),
		errors.Is(err, apperror.ErrWorkflowInactive):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
