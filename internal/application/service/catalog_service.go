package service

import (
	"context"
	"fmt"

	"github.com/medadmin/approvalflow/internal/application/port"
	"github.com/medadmin/approvalflow/internal/domain/apperror"
	"github.com/medadmin/approvalflow/internal/domain/entity"
	"go.uber.org/zap"
)

// StepSpec describes one step of a workflow at creation time. Callers do not
// choose positions: orders are assigned densely from the slice index.
type StepSpec struct {
	Name         string
	Approver     entity.Approver
	IsRequired   bool
	CanReject    bool
	CanEdit      bool
	AutoApprove  bool
	TimeoutHours *int
}

// WorkflowCatalog holds workflow definitions and provides lookup by id
type WorkflowCatalog interface {
	CreateWorkflow(ctx context.Context, name, entityType string, steps []StepSpec) (*entity.Workflow, error)
	GetWorkflow(ctx context.Context, id int64) (*entity.Workflow, error)
	ListWorkflows(ctx context.Context, entityType string, activeOnly bool) ([]*entity.Workflow, error)
	DeactivateWorkflow(ctx context.Context, id int64) error
}

type workflowCatalogImpl struct {
	workflowRepo port.WorkflowRepository
	txManager    port.TransactionManager
	logger       *zap.Logger
}

// NewWorkflowCatalog creates a new WorkflowCatalog
func NewWorkflowCatalog(
	workflowRepo port.WorkflowRepository,
	txManager port.TransactionManager,
	logger *zap.Logger,
) WorkflowCatalog {
	return &workflowCatalogImpl{
		workflowRepo: workflowRepo,
		txManager:    txManager,
		logger:       logger,
	}
}

// CreateWorkflow validates the step specs, assigns dense 1-based step orders
// and persists the workflow with its steps
func (s *workflowCatalogImpl) CreateWorkflow(ctx context.Context, name, entityType string, steps []StepSpec) (*entity.Workflow, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", apperror.ErrValidation)
	}
	if entityType == "" {
		return nil, fmt.Errorf("%w: entity type is required", apperror.ErrValidation)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: at least one step is required", apperror.ErrValidation)
	}

	workflow := &entity.Workflow{
		Name:       name,
		EntityType: entityType,
		IsActive:   true,
	}

	for i, spec := range steps {
		if spec.Name == "" {
			return nil, fmt.Errorf("%w: step %d has no name", apperror.ErrValidation, i+1)
		}
		if !spec.Approver.IsValid() {
			return nil, fmt.Errorf("%w: step %d has a malformed approver", apperror.ErrValidation, i+1)
		}
		if spec.Approver.Kind == entity.ApproverKindNone && !spec.AutoApprove {
			return nil, fmt.Errorf("%w: step %d has neither an approver nor auto-approve", apperror.ErrValidation, i+1)
		}

		workflow.Steps = append(workflow.Steps, &entity.Step{
			Order:        i + 1,
			Name:         spec.Name,
			Approver:     spec.Approver,
			IsRequired:   spec.IsRequired,
			CanReject:    spec.CanReject,
			CanEdit:      spec.CanEdit,
			AutoApprove:  spec.AutoApprove,
			TimeoutHours: spec.TimeoutHours,
		})
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.workflowRepo.Create(txCtx, workflow); err != nil {
			return fmt.Errorf("create workflow: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create workflow", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Workflow created",
		zap.Int64("workflow_id", workflow.ID),
		zap.String("entity_type", entityType),
		zap.Int("steps", len(workflow.Steps)))
	return workflow, nil
}

// GetWorkflow retrieves a workflow with its steps ordered ascending
func (s *workflowCatalogImpl) GetWorkflow(ctx context.Context, id int64) (*entity.Workflow, error) {
	workflow, err := s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if workflow == nil {
		return nil, fmt.Errorf("%w: workflow %d", apperror.ErrNotFound, id)
	}
	return workflow, nil
}

// ListWorkflows retrieves workflow definitions, optionally filtered
func (s *workflowCatalogImpl) ListWorkflows(ctx context.Context, entityType string, activeOnly bool) ([]*entity.Workflow, error) {
	return s.workflowRepo.List(ctx, entityType, activeOnly)
}

// DeactivateWorkflow turns a workflow off for new requests. In-flight
// requests keep reading its steps.
func (s *workflowCatalogImpl) DeactivateWorkflow(ctx context.Context, id int64) error {
	workflow, err := s.workflowRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if workflow == nil {
		return fmt.Errorf("%w: workflow %d", apperror.ErrNotFound, id)
	}

	if err := s.workflowRepo.SetActive(ctx, id, false); err != nil {
		return fmt.Errorf("deactivate workflow: %w", err)
	}

	s.logger.Info("Workflow deactivated", zap.Int64("workflow_id", id))
	return nil
}

var _ WorkflowCatalog = (*workflowCatalogImpl)(nil)
