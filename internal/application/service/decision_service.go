package service

import (
	"context"
	"fmt"

	"github.com/medadmin/approvalflow/internal/application/port"
	"github.com/medadmin/approvalflow/internal/domain/apperror"
	"github.com/medadmin/approvalflow/internal/domain/entity"
	"github.com/medadmin/approvalflow/internal/domain/workflow"
	"go.uber.org/zap"
)

// DecisionResult reports the request state after a decision was processed
type DecisionResult struct {
	RequestStatus string           `json:"request_status"`
	CurrentStep   int              `json:"current_step"`
	Decision      *entity.Decision `json:"decision"`
}

// DecisionProcessor is the approval state machine: it validates an incoming
// decision, records it and transitions the owning request
type DecisionProcessor interface {
	Decide(ctx context.Context, requestID int64, actor entity.Actor, action, comment, data string) (*DecisionResult, error)
}

type decisionProcessorImpl struct {
	workflowRepo port.WorkflowRepository
	requestRepo  port.RequestRepository
	decisionRepo port.DecisionRepository
	resolver     port.AuthorizationResolver
	txManager    port.TransactionManager
	logger       *zap.Logger
}

// NewDecisionProcessor creates a new DecisionProcessor
func NewDecisionProcessor(
	workflowRepo port.WorkflowRepository,
	requestRepo port.RequestRepository,
	decisionRepo port.DecisionRepository,
	resolver port.AuthorizationResolver,
	txManager port.TransactionManager,
	logger *zap.Logger,
) DecisionProcessor {
	return &decisionProcessorImpl{
		workflowRepo: workflowRepo,
		requestRepo:  requestRepo,
		decisionRepo: decisionRepo,
		resolver:     resolver,
		txManager:    txManager,
		logger:       logger,
	}
}

// Decide processes one approve/reject decision against the request's current
// step. The whole sequence runs inside a single transaction so concurrent
// decisions on the same request serialize at the storage layer; the unique
// index on (request_id, step_id, approver_id) closes the remaining race.
func (s *decisionProcessorImpl) Decide(ctx context.Context, requestID int64, actor entity.Actor, action, comment, data string) (*DecisionResult, error) {
	if action != entity.ActionApprove && action != entity.ActionReject {
		return nil, fmt.Errorf("%w: unknown action %q", apperror.ErrValidation, action)
	}
	if actor.ID == "" {
		return nil, fmt.Errorf("%w: actor id is required", apperror.ErrValidation)
	}

	var result *DecisionResult
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		result, err = s.decide(txCtx, requestID, actor, action, comment, data)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Decision processed",
		zap.Int64("request_id", requestID),
		zap.String("actor_id", actor.ID),
		zap.String("action", action),
		zap.String("request_status", result.RequestStatus),
		zap.Int("current_step", result.CurrentStep))
	return result, nil
}

func (s *decisionProcessorImpl) decide(ctx context.Context, requestID int64, actor entity.Actor, action, comment, data string) (*DecisionResult, error) {
	// Preconditions
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, fmt.Errorf("%w: request %d", apperror.ErrNotFound, requestID)
	}
	if workflow.State(request.Status) != workflow.StatePending {
		return nil, fmt.Errorf("%w: request %d is %s", apperror.ErrInvalidState, requestID, request.Status)
	}

	wf, err := s.workflowRepo.GetByID(ctx, request.WorkflowID)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, fmt.Errorf("%w: workflow %d", apperror.ErrNotFound, request.WorkflowID)
	}

	step := wf.StepByOrder(request.CurrentStep)
	if step == nil {
		return nil, fmt.Errorf("%w: request %d step %d", apperror.ErrStepNotFound, requestID, request.CurrentStep)
	}

	// Authorization
	if !s.resolver.CanDecide(actor, step) {
		return nil, fmt.Errorf("%w: actor %s at step %d", apperror.ErrForbidden, actor.ID, step.Order)
	}

	// Idempotency: one decision per actor per step
	exists, err := s.decisionRepo.Exists(ctx, requestID, step.ID, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("check existing decision: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: actor %s at step %d", apperror.ErrAlreadyDecided, actor.ID, step.Order)
	}

	// Record the decision
	decision := &entity.Decision{
		RequestID:  requestID,
		StepID:     step.ID,
		ApproverID: actor.ID,
		Status:     decisionStatus(action),
		Comment:    comment,
		Data:       data,
	}
	if err := s.decisionRepo.Create(ctx, decision); err != nil {
		return nil, fmt.Errorf("record decision: %w", err)
	}

	// Transition
	if action == entity.ActionReject {
		state, err := workflow.Fire(workflow.State(request.Status), workflow.TriggerReject)
		if err != nil {
			return nil, err
		}
		if err := s.requestRepo.UpdateState(ctx, requestID, state.String(), request.CurrentStep); err != nil {
			return nil, fmt.Errorf("update request state: %w", err)
		}
		return &DecisionResult{RequestStatus: state.String(), CurrentStep: request.CurrentStep, Decision: decision}, nil
	}

	approved, err := s.approvedStepIDs(ctx, requestID, decision)
	if err != nil {
		return nil, err
	}

	trigger := workflow.TriggerAdvance
	nextStep := request.CurrentStep
	switch {
	case allRequiredApproved(wf, approved):
		trigger = workflow.TriggerApprove
	case wf.StepByOrder(request.CurrentStep+1) != nil:
		nextStep = request.CurrentStep + 1
	default:
		// Past the end of the defined sequence the request is complete even
		// when a required step was never reached
		trigger = workflow.TriggerApprove
	}

	state, err := workflow.Fire(workflow.State(request.Status), trigger)
	if err != nil {
		return nil, err
	}
	if err := s.requestRepo.UpdateState(ctx, requestID, state.String(), nextStep); err != nil {
		return nil, fmt.Errorf("update request state: %w", err)
	}

	return &DecisionResult{RequestStatus: state.String(), CurrentStep: nextStep, Decision: decision}, nil
}

// approvedStepIDs collects the step ids holding at least one approval across
// every decision ever recorded for the request, including the one just made
func (s *decisionProcessorImpl) approvedStepIDs(ctx context.Context, requestID int64, latest *entity.Decision) (map[int64]bool, error) {
	decisions, err := s.decisionRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load decisions: %w", err)
	}

	approved := make(map[int64]bool, len(decisions)+1)
	for _, d := range decisions {
		if d.Status == entity.DecisionStatusApproved {
			approved[d.StepID] = true
		}
	}
	if latest.Status == entity.DecisionStatusApproved {
		approved[latest.StepID] = true
	}
	return approved, nil
}

func allRequiredApproved(wf *entity.Workflow, approved map[int64]bool) bool {
	for _, step := range wf.RequiredSteps() {
		if !approved[step.ID] {
			return false
		}
	}
	return true
}

func decisionStatus(action string) string {
	if action == entity.ActionApprove {
		return entity.DecisionStatusApproved
	}
	return entity.DecisionStatusRejected
}

var _ DecisionProcessor = (*decisionProcessorImpl)(nil)
