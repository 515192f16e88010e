package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medadmin/approvalflow/internal/application/port"
	"github.com/medadmin/approvalflow/internal/domain/apperror"
	"github.com/medadmin/approvalflow/internal/domain/entity"
	"go.uber.org/zap"
)

// CreateRequestInput carries the caller-supplied fields of a new approval request
type CreateRequestInput struct {
	WorkflowID  int64
	EntityType  string
	EntityID    string
	RequesterID string
	Title       string
	Description string
	Data        string
	Priority    string
	DueDate     *time.Time
}

// RequestLedger persists approval requests and enforces the
// one-active-request-per-entity invariant
type RequestLedger interface {
	CreateRequest(ctx context.Context, input CreateRequestInput) (*entity.ApprovalRequest, error)

	// GetRequest loads a request together with its workflow, ordered steps
	// and chronological decision history
	GetRequest(ctx context.Context, id int64) (*entity.ApprovalRequest, error)

	ListRequests(ctx context.Context, filter port.RequestFilter) ([]*entity.ApprovalRequest, error)

	// ListPendingForActor returns the pending requests whose current step the
	// actor is authorized to decide
	ListPendingForActor(ctx context.Context, actor entity.Actor) ([]*entity.ApprovalRequest, error)
}

type requestLedgerImpl struct {
	catalog      WorkflowCatalog
	requestRepo  port.RequestRepository
	decisionRepo port.DecisionRepository
	resolver     port.AuthorizationResolver
	txManager    port.TransactionManager
	logger       *zap.Logger
}

// NewRequestLedger creates a new RequestLedger
func NewRequestLedger(
	catalog WorkflowCatalog,
	requestRepo port.RequestRepository,
	decisionRepo port.DecisionRepository,
	resolver port.AuthorizationResolver,
	txManager port.TransactionManager,
	logger *zap.Logger,
) RequestLedger {
	return &requestLedgerImpl{
		catalog:      catalog,
		requestRepo:  requestRepo,
		decisionRepo: decisionRepo,
		resolver:     resolver,
		txManager:    txManager,
		logger:       logger,
	}
}

// CreateRequest validates the input, checks the workflow is active and that no
// other request is in flight for the entity, then persists the request at
// step one
func (s *requestLedgerImpl) CreateRequest(ctx context.Context, input CreateRequestInput) (*entity.ApprovalRequest, error) {
	if err := validateCreateRequest(&input); err != nil {
		return nil, err
	}

	workflow, err := s.catalog.GetWorkflow(ctx, input.WorkflowID)
	if err != nil {
		return nil, err
	}
	if !workflow.IsActive {
		return nil, fmt.Errorf("%w: workflow %d", apperror.ErrWorkflowInactive, workflow.ID)
	}

	request := &entity.ApprovalRequest{
		WorkflowID:  workflow.ID,
		EntityType:  input.EntityType,
		EntityID:    input.EntityID,
		RequesterID: input.RequesterID,
		Title:       input.Title,
		Description: input.Description,
		Data:        input.Data,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		Status:      entity.RequestStatusPending,
		CurrentStep: 1,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.requestRepo.FindActiveByEntity(txCtx, input.EntityType, input.EntityID)
		if err != nil {
			return fmt.Errorf("check existing request: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: request %d for %s/%s",
				apperror.ErrDuplicateRequest, existing.ID, input.EntityType, input.EntityID)
		}

		if err := s.requestRepo.Create(txCtx, request); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperror.ErrDuplicateRequest) {
			s.logger.Error("Failed to create request",
				zap.String("entity_type", input.EntityType),
				zap.String("entity_id", input.EntityID),
				zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("Approval request created",
		zap.Int64("request_id", request.ID),
		zap.Int64("workflow_id", workflow.ID),
		zap.String("entity_type", request.EntityType),
		zap.String("entity_id", request.EntityID))
	return request, nil
}

// GetRequest loads the request plus its workflow and decision history
func (s *requestLedgerImpl) GetRequest(ctx context.Context, id int64) (*entity.ApprovalRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, fmt.Errorf("%w: request %d", apperror.ErrNotFound, id)
	}

	workflow, err := s.catalog.GetWorkflow(ctx, request.WorkflowID)
	if err != nil {
		return nil, err
	}
	request.Workflow = workflow

	decisions, err := s.decisionRepo.GetByRequestID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load decisions: %w", err)
	}
	request.Decisions = decisions

	return request, nil
}

// ListRequests retrieves requests matching the filter
func (s *requestLedgerImpl) ListRequests(ctx context.Context, filter port.RequestFilter) ([]*entity.ApprovalRequest, error) {
	return s.requestRepo.List(ctx, filter)
}

// ListPendingForActor returns the actor's pending work queue
func (s *requestLedgerImpl) ListPendingForActor(ctx context.Context, actor entity.Actor) ([]*entity.ApprovalRequest, error) {
	pending, err := s.requestRepo.List(ctx, port.RequestFilter{Status: entity.RequestStatusPending})
	if err != nil {
		return nil, err
	}

	var mine []*entity.ApprovalRequest
	for _, request := range pending {
		workflow, err := s.catalog.GetWorkflow(ctx, request.WorkflowID)
		if err != nil {
			s.logger.Warn("Skipping request with unresolvable workflow",
				zap.Int64("request_id", request.ID),
				zap.Int64("workflow_id", request.WorkflowID),
				zap.Error(err))
			continue
		}
		step := workflow.StepByOrder(request.CurrentStep)
		if step == nil {
			continue
		}
		if s.resolver.CanDecide(actor, step) {
			request.Workflow = workflow
			mine = append(mine, request)
		}
	}
	return mine, nil
}

func validateCreateRequest(input *CreateRequestInput) error {
	if input.EntityType == "" {
		return fmt.Errorf("%w: entity type is required", apperror.ErrValidation)
	}
	if input.EntityID == "" {
		return fmt.Errorf("%w: entity id is required", apperror.ErrValidation)
	}
	if input.RequesterID == "" {
		return fmt.Errorf("%w: requester id is required", apperror.ErrValidation)
	}
	if input.Title == "" {
		return fmt.Errorf("%w: title is required", apperror.ErrValidation)
	}
	if input.Priority == "" {
		input.Priority = entity.PriorityNormal
	}
	if !entity.IsValidPriority(input.Priority) {
		return fmt.Errorf("%w: unknown priority %q", apperror.ErrValidation, input.Priority)
	}
	return nil
}

var _ RequestLedger = (*requestLedgerImpl)(nil)
