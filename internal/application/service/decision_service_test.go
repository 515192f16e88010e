package service

import (
	"context"
	"testing"

	"github.com/medadmin/approvalflow/internal/domain/apperror"
	"github.com/medadmin/approvalflow/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	manager = entity.Actor{ID: "manager-1", Role: "MANAGER"}
	finance = entity.Actor{ID: "finance-1", Role: "FINANCE"}
)

type processorFixture struct {
	catalog      WorkflowCatalog
	ledger       RequestLedger
	processor    DecisionProcessor
	workflowRepo *fakeWorkflowRepo
	requestRepo  *fakeRequestRepo
	decisionRepo *fakeDecisionRepo
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()
	workflowRepo := newFakeWorkflowRepo()
	requestRepo := newFakeRequestRepo()
	decisionRepo := newFakeDecisionRepo()
	tx := &fakeTxManager{}
	resolver := NewStaticResolver()
	logger := zap.NewNop()

	catalog := NewWorkflowCatalog(workflowRepo, tx, logger)
	return &processorFixture{
		catalog:      catalog,
		ledger:       NewRequestLedger(catalog, requestRepo, decisionRepo, resolver, tx, logger),
		processor:    NewDecisionProcessor(workflowRepo, requestRepo, decisionRepo, resolver, tx, logger),
		workflowRepo: workflowRepo,
		requestRepo:  requestRepo,
		decisionRepo: decisionRepo,
	}
}

func (f *processorFixture) buildRequest(t *testing.T, specs []StepSpec) (*entity.Workflow, *entity.ApprovalRequest) {
	t.Helper()
	ctx := context.Background()

	workflow, err := f.catalog.CreateWorkflow(ctx, "invoice approval", "INVOICE", specs)
	require.NoError(t, err)

	request, err := f.ledger.CreateRequest(ctx, CreateRequestInput{
		WorkflowID:  workflow.ID,
		EntityType:  "INVOICE",
		EntityID:    "X",
		RequesterID: "requester-1",
		Title:       "Invoice X",
	})
	require.NoError(t, err)
	return workflow, request
}

func twoRequiredSteps() []StepSpec {
	return []StepSpec{
		{Name: "manager review", Approver: entity.RoleApprover("MANAGER"), IsRequired: true},
		{Name: "finance review", Approver: entity.RoleApprover("FINANCE"), IsRequired: true},
	}
}

func TestDecideApprovalsAdvanceThenComplete(t *testing.T) {
	f := newProcessorFixture(t)
	_, request := f.buildRequest(t, twoRequiredSteps())
	ctx := context.Background()

	result, err := f.processor.Decide(ctx, request.ID, manager, entity.ActionApprove, "looks fine", "")
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusPending, result.RequestStatus)
	assert.Equal(t, 2, result.CurrentStep)

	result, err = f.processor.Decide(ctx, request.ID, finance, entity.ActionApprove, "", "")
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusApproved, result.RequestStatus)

	// Two decisions recorded, chronological
	decisions, err := f.decisionRepo.GetByRequestID(ctx, request.ID)
	require.NoError(t, err)
	require.Len(t, decisions, 2)
	assert.Equal(t, manager.ID, decisions[0].ApproverID)
	assert.Equal(t, finance.ID, decisions[1].ApproverID)
}

func TestDecideRejectionShortCircuits(t *testing.T) {
	f := newProcessorFixture(t)
	_, request := f.buildRequest(t, twoRequiredSteps())
	ctx := context.Background()

	result, err := f.processor.Decide(ctx, request.ID, manager, entity.ActionReject, "missing receipts", "")
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusRejected, result.RequestStatus)
	assert.Equal(t, entity.DecisionStatusRejected, result.Decision.Status)

	// Terminal: any further decision fails and changes nothing
	_, err = f.processor.Decide(ctx, request.ID, finance, entity.ActionApprove, "", "")
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	stored := f.requestRepo.requests[request.ID]
	assert.Equal(t, entity.RequestStatusRejected, stored.Status)
	assert.Equal(t, 1, stored.CurrentStep)
}

func TestDecideUnauthorizedActor(t *testing.T) {
	f := newProcessorFixture(t)
	_, request := f.buildRequest(t, twoRequiredSteps())
	ctx := context.Background()

	_, err := f.processor.Decide(ctx, request.ID, finance, entity.ActionApprove, "", "")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	// No state change, no decision recorded
	stored := f.requestRepo.requests[request.ID]
	assert.Equal(t, entity.RequestStatusPending, stored.Status)
	assert.Equal(t, 1, stored.CurrentStep)
	assert.Empty(t, f.decisionRepo.decisions)
}

func TestDecideSameActorSameStepTwice(t *testing.T) {
	f := newProcessorFixture(t)
	workflow, request := f.buildRequest(t, twoRequiredSteps())
	ctx := context.Background()

	// A decision already recorded for the current step, as left behind by a
	// submission whose caller never saw the acknowledgment and retries
	require.NoError(t, f.decisionRepo.Create(ctx, &entity.Decision{
		RequestID:  request.ID,
		StepID:     workflow.Steps[0].ID,
		ApproverID: manager.ID,
		Status:     entity.DecisionStatusApproved,
	}))

	_, err := f.processor.Decide(ctx, request.ID, manager, entity.ActionApprove, "", "")
	assert.ErrorIs(t, err, apperror.ErrAlreadyDecided)

	// Only the original decision exists
	decisions, err := f.decisionRepo.GetByRequestID(ctx, request.ID)
	require.NoError(t, err)
	assert.Len(t, decisions, 1)
}

func TestDecideSameRoleDistinctActorsCannotDoubleCount(t *testing.T) {
	f := newProcessorFixture(t)
	_, request := f.buildRequest(t, twoRequiredSteps())
	ctx := context.Background()

	result, err := f.processor.Decide(ctx, request.ID, manager, entity.ActionApprove, "", "")
	require.NoError(t, err)
	require.Equal(t, 2, result.CurrentStep)

	// A second manager can no longer decide step one: the request moved on
	otherManager := entity.Actor{ID: "manager-2", Role: "MANAGER"}
	_, err = f.processor.Decide(ctx, request.ID, otherManager, entity.ActionApprove, "", "")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestDecideOptionalTrailingStep(t *testing.T) {
	f := newProcessorFixture(t)
	_, request := f.buildRequest(t, []StepSpec{
		{Name: "manager review", Approver: entity.RoleApprover("MANAGER"), IsRequired: true},
		{Name: "courtesy review", Approver: entity.RoleApprover("FINANCE"), IsRequired: false},
	})
	ctx := context.Background()

	// All required steps approved at step one: complete without visiting the
	// optional trailing step
	result, err := f.processor.Decide(ctx, request.ID, manager, entity.ActionApprove, "", "")
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusApproved, result.RequestStatus)
	assert.Equal(t, 1, result.CurrentStep)
}

func TestDecideOptionalLeadingStep(t *testing.T) {
	f := newProcessorFixture(t)
	_, request := f.buildRequest(t, []StepSpec{
		{Name: "courtesy review", Approver: entity.RoleApprover("MANAGER"), IsRequired: false},
		{Name: "finance review", Approver: entity.RoleApprover("FINANCE"), IsRequired: true},
	})
	ctx := context.Background()

	// Optional approval advances; the required step still gates completion
	result, err := f.processor.Decide(ctx, request.ID, manager, entity.ActionApprove, "", "")
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusPending, result.RequestStatus)
	assert.Equal(t, 2, result.CurrentStep)

	result, err = f.processor.Decide(ctx, request.ID, finance, entity.ActionApprove, "", "")
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusApproved, result.RequestStatus)
}

func TestDecideLastStepCompletesEvenWithoutRequiredApprovals(t *testing.T) {
	f := newProcessorFixture(t)
	workflow, request := f.buildRequest(t, twoRequiredSteps())
	ctx := context.Background()

	// Force the request past step one without an approval on record, so the
	// cumulative required check cannot pass at the final step
	require.NoError(t, f.requestRepo.UpdateState(ctx, request.ID, entity.RequestStatusPending, 2))

	result, err := f.processor.Decide(ctx, request.ID, finance, entity.ActionApprove, "", "")
	require.NoError(t, err)

	// The end of the sequence is itself a completion signal
	assert.Equal(t, entity.RequestStatusApproved, result.RequestStatus)
	require.NotNil(t, workflow.StepByOrder(2))
}

func TestDecideInputValidation(t *testing.T) {
	f := newProcessorFixture(t)
	_, request := f.buildRequest(t, twoRequiredSteps())
	ctx := context.Background()

	_, err := f.processor.Decide(ctx, request.ID, manager, "defer", "", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.processor.Decide(ctx, request.ID, entity.Actor{Role: "MANAGER"}, entity.ActionApprove, "", "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.processor.Decide(ctx, 404, manager, entity.ActionApprove, "", "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDecideUserApproverStep(t *testing.T) {
	f := newProcessorFixture(t)
	_, request := f.buildRequest(t, []StepSpec{
		{Name: "cfo signoff", Approver: entity.UserApprover("cfo-1"), IsRequired: true},
	})
	ctx := context.Background()

	// Role means nothing on a user-addressed step
	_, err := f.processor.Decide(ctx, request.ID, entity.Actor{ID: "cfo-2", Role: "CFO"}, entity.ActionApprove, "", "")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	result, err := f.processor.Decide(ctx, request.ID, entity.Actor{ID: "cfo-1"}, entity.ActionApprove, "", "")
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusApproved, result.RequestStatus)
}

func TestDecideStepPointerNeverDecreases(t *testing.T) {
	f := newProcessorFixture(t)
	_, request := f.buildRequest(t, []StepSpec{
		{Name: "manager review", Approver: entity.RoleApprover("MANAGER"), IsRequired: true},
		{Name: "finance review", Approver: entity.RoleApprover("FINANCE"), IsRequired: true},
		{Name: "cfo signoff", Approver: entity.UserApprover("cfo-1"), IsRequired: true},
	})
	ctx := context.Background()

	last := 1
	steps := []entity.Actor{manager, finance, {ID: "cfo-1"}}
	for _, actor := range steps {
		result, err := f.processor.Decide(ctx, request.ID, actor, entity.ActionApprove, "", "")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.CurrentStep, last)
		last = result.CurrentStep
	}

	stored := f.requestRepo.requests[request.ID]
	assert.Equal(t, entity.RequestStatusApproved, stored.Status)
}
