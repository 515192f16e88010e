package port

import (
	"context"

	"github.com/medadmin/approvalflow/internal/domain/entity"
)

// WorkflowRepository defines persistence operations for Workflow and its Steps
type WorkflowRepository interface {
	// Create persists the workflow together with its ordered steps
	Create(ctx context.Context, workflow *entity.Workflow) error

	// GetByID retrieves a workflow with steps ordered ascending by their
	// position. Returns nil when the workflow does not exist.
	GetByID(ctx context.Context, id int64) (*entity.Workflow, error)

	// List retrieves workflows, optionally filtered by entity type and
	// restricted to active ones
	List(ctx context.Context, entityType string, activeOnly bool) ([]*entity.Workflow, error)

	// SetActive flips the active flag of a workflow
	SetActive(ctx context.Context, id int64, active bool) error
}

// RequestFilter narrows a request listing
type RequestFilter struct {
	EntityType string
	EntityID   string
	Status     string
	Limit      int
	Offset     int
}

// RequestRepository defines persistence operations for ApprovalRequest
type RequestRepository interface {
	Create(ctx context.Context, request *entity.ApprovalRequest) error

	// GetByID returns nil when the request does not exist
	GetByID(ctx context.Context, id int64) (*entity.ApprovalRequest, error)

	// FindActiveByEntity returns the PENDING or APPROVED request for the
	// entity pair, or nil when none exists
	FindActiveByEntity(ctx context.Context, entityType, entityID string) (*entity.ApprovalRequest, error)

	// UpdateState sets status and current step together
	UpdateState(ctx context.Context, id int64, status string, currentStep int) error

	List(ctx context.Context, filter RequestFilter) ([]*entity.ApprovalRequest, error)
}

// DecisionRepository defines persistence operations for Decision
type DecisionRepository interface {
	Create(ctx context.Context, decision *entity.Decision) error

	// GetByRequestID returns decisions ordered by creation time ascending
	GetByRequestID(ctx context.Context, requestID int64) ([]*entity.Decision, error)

	// Exists reports whether the actor already decided the step of the request
	Exists(ctx context.Context, requestID, stepID int64, approverID string) (bool, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
