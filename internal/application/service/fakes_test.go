package service

import (
	"context"
	"fmt"
	"time"

	"github.com/medadmin/approvalflow/internal/application/port"
	"github.com/medadmin/approvalflow/internal/domain/apperror"
	"github.com/medadmin/approvalflow/internal/domain/entity"
)

// In-memory fakes implementing the persistence ports. They mirror the sqlite
// repositories' behavior, including the unique-constraint error mapping.

type fakeWorkflowRepo struct {
	workflows map[int64]*entity.Workflow
	nextID    int64
}

func newFakeWorkflowRepo() *fakeWorkflowRepo {
	return &fakeWorkflowRepo{workflows: make(map[int64]*entity.Workflow)}
}

func (f *fakeWorkflowRepo) Create(ctx context.Context, workflow *entity.Workflow) error {
	f.nextID++
	workflow.ID = f.nextID
	for _, step := range workflow.Steps {
		f.nextID++
		step.ID = f.nextID
		step.WorkflowID = workflow.ID
	}
	f.workflows[workflow.ID] = workflow
	return nil
}

func (f *fakeWorkflowRepo) GetByID(ctx context.Context, id int64) (*entity.Workflow, error) {
	return f.workflows[id], nil
}

func (f *fakeWorkflowRepo) List(ctx context.Context, entityType string, activeOnly bool) ([]*entity.Workflow, error) {
	var out []*entity.Workflow
	for _, wf := range f.workflows {
		if entityType != "" && wf.EntityType != entityType {
			continue
		}
		if activeOnly && !wf.IsActive {
			continue
		}
		out = append(out, wf)
	}
	return out, nil
}

func (f *fakeWorkflowRepo) SetActive(ctx context.Context, id int64, active bool) error {
	if wf, ok := f.workflows[id]; ok {
		wf.IsActive = active
	}
	return nil
}

type fakeRequestRepo struct {
	requests map[int64]*entity.ApprovalRequest
	nextID   int64
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[int64]*entity.ApprovalRequest)}
}

func (f *fakeRequestRepo) Create(ctx context.Context, request *entity.ApprovalRequest) error {
	for _, existing := range f.requests {
		if existing.EntityType == request.EntityType && existing.EntityID == request.EntityID &&
			(existing.Status == entity.RequestStatusPending || existing.Status == entity.RequestStatusApproved) {
			return fmt.Errorf("%w: %s/%s", apperror.ErrDuplicateRequest, request.EntityType, request.EntityID)
		}
	}
	f.nextID++
	request.ID = f.nextID
	request.CreatedAt = time.Now()
	f.requests[request.ID] = request
	return nil
}

func (f *fakeRequestRepo) GetByID(ctx context.Context, id int64) (*entity.ApprovalRequest, error) {
	return f.requests[id], nil
}

func (f *fakeRequestRepo) FindActiveByEntity(ctx context.Context, entityType, entityID string) (*entity.ApprovalRequest, error) {
	for _, r := range f.requests {
		if r.EntityType == entityType && r.EntityID == entityID &&
			(r.Status == entity.RequestStatusPending || r.Status == entity.RequestStatusApproved) {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeRequestRepo) UpdateState(ctx context.Context, id int64, status string, currentStep int) error {
	if r, ok := f.requests[id]; ok {
		r.Status = status
		r.CurrentStep = currentStep
	}
	return nil
}

func (f *fakeRequestRepo) List(ctx context.Context, filter port.RequestFilter) ([]*entity.ApprovalRequest, error) {
	var out []*entity.ApprovalRequest
	for _, r := range f.requests {
		if filter.EntityType != "" && r.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && r.EntityID != filter.EntityID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type fakeDecisionRepo struct {
	decisions []*entity.Decision
	nextID    int64
}

func newFakeDecisionRepo() *fakeDecisionRepo {
	return &fakeDecisionRepo{}
}

func (f *fakeDecisionRepo) Create(ctx context.Context, decision *entity.Decision) error {
	for _, d := range f.decisions {
		if d.RequestID == decision.RequestID && d.StepID == decision.StepID && d.ApproverID == decision.ApproverID {
			return fmt.Errorf("%w: request %d step %d actor %s",
				apperror.ErrAlreadyDecided, decision.RequestID, decision.StepID, decision.ApproverID)
		}
	}
	f.nextID++
	decision.ID = f.nextID
	decision.CreatedAt = time.Now()
	f.decisions = append(f.decisions, decision)
	return nil
}

func (f *fakeDecisionRepo) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.Decision, error) {
	var out []*entity.Decision
	for _, d := range f.decisions {
		if d.RequestID == requestID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDecisionRepo) Exists(ctx context.Context, requestID, stepID int64, approverID string) (bool, error) {
	for _, d := range f.decisions {
		if d.RequestID == requestID && d.StepID == stepID && d.ApproverID == approverID {
			return true, nil
		}
	}
	return false, nil
}

type fakeTxManager struct{}

func (f *fakeTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var (
	_ port.WorkflowRepository = (*fakeWorkflowRepo)(nil)
	_ port.RequestRepository  = (*fakeRequestRepo)(nil)
	_ port.DecisionRepository = (*fakeDecisionRepo)(nil)
	_ port.TransactionManager = (*fakeTxManager)(nil)
)
