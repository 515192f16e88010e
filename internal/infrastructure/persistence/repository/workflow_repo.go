package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medadmin/approvalflow/internal/application/port"
	"github.com/medadmin/approvalflow/internal/domain/entity"
	"go.uber.org/zap"
)

// WorkflowRepository implements port.WorkflowRepository
type WorkflowRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWorkflowRepository creates a new workflow repository
func NewWorkflowRepository(db *sql.DB, logger *zap.Logger) port.WorkflowRepository {
	return &WorkflowRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a workflow together with its steps
func (r *WorkflowRepository) Create(ctx context.Context, workflow *entity.Workflow) error {
	query := `INSERT INTO workflows (name, entity_type, is_active) VALUES (?, ?, ?)`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		workflow.Name,
		workflow.EntityType,
		workflow.IsActive,
	)
	if err != nil {
		r.logger.Error("Failed to create workflow", zap.Error(err))
		return fmt.Errorf("failed to create workflow: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	workflow.ID = id

	stepQuery := `
		INSERT INTO workflow_steps (
			workflow_id, step_order, name, approver_kind, approver_role,
			approver_user_id, is_required, can_reject, can_edit, auto_approve,
			timeout_hours
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, step := range workflow.Steps {
		step.WorkflowID = id

		result, err := r.getExecutor(ctx).ExecContext(ctx, stepQuery,
			step.WorkflowID,
			step.Order,
			step.Name,
			string(step.Approver.Kind),
			nullString(step.Approver.Role),
			nullString(step.Approver.UserID),
			step.IsRequired,
			step.CanReject,
			step.CanEdit,
			step.AutoApprove,
			nullInt(step.TimeoutHours),
		)
		if err != nil {
			r.logger.Error("Failed to create workflow step",
				zap.Int64("workflow_id", id),
				zap.Int("order", step.Order),
				zap.Error(err))
			return fmt.Errorf("failed to create workflow step: %w", err)
		}

		stepID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		step.ID = stepID
	}

	return nil
}

// GetByID retrieves a workflow with its steps ordered ascending
func (r *WorkflowRepository) GetByID(ctx context.Context, id int64) (*entity.Workflow, error) {
	query := `
		SELECT id, name, entity_type, is_active, created_at, updated_at
		FROM workflows
		WHERE id = ?
	`

	var workflow entity.Workflow
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, id).Scan(
		&workflow.ID,
		&workflow.Name,
		&workflow.EntityType,
		&workflow.IsActive,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get workflow", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get workflow: %w", err)
	}

	steps, err := r.getSteps(ctx, id)
	if err != nil {
		return nil, err
	}
	workflow.Steps = steps

	return &workflow, nil
}

// List retrieves workflows, optionally filtered
func (r *WorkflowRepository) List(ctx context.Context, entityType string, activeOnly bool) ([]*entity.Workflow, error) {
	query := `
		SELECT id, name, entity_type, is_active, created_at, updated_at
		FROM workflows
		WHERE (? = '' OR entity_type = ?)
		  AND (? = 0 OR is_active = 1)
		ORDER BY id
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, entityType, entityType, activeOnly)
	if err != nil {
		r.logger.Error("Failed to list workflows", zap.Error(err))
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []*entity.Workflow
	for rows.Next() {
		var workflow entity.Workflow
		err := rows.Scan(
			&workflow.ID,
			&workflow.Name,
			&workflow.EntityType,
			&workflow.IsActive,
			&workflow.CreatedAt,
			&workflow.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}
		workflows = append(workflows, &workflow)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, workflow := range workflows {
		steps, err := r.getSteps(ctx, workflow.ID)
		if err != nil {
			return nil, err
		}
		workflow.Steps = steps
	}

	return workflows, nil
}

// SetActive flips the active flag of a workflow
func (r *WorkflowRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE workflows SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query, active, id)
	if err != nil {
		r.logger.Error("Failed to set workflow active flag",
			zap.Int64("id", id), zap.Bool("active", active), zap.Error(err))
		return fmt.Errorf("failed to set workflow active flag: %w", err)
	}
	return nil
}

func (r *WorkflowRepository) getSteps(ctx context.Context, workflowID int64) ([]*entity.Step, error) {
	query := `
		SELECT id, workflow_id, step_order, name, approver_kind, approver_role,
			approver_user_id, is_required, can_reject, can_edit, auto_approve,
			timeout_hours, created_at
		FROM workflow_steps
		WHERE workflow_id = ?
		ORDER BY step_order ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, workflowID)
	if err != nil {
		r.logger.Error("Failed to get workflow steps", zap.Int64("workflow_id", workflowID), zap.Error(err))
		return nil, fmt.Errorf("failed to get workflow steps: %w", err)
	}
	defer rows.Close()

	var steps []*entity.Step
	for rows.Next() {
		var step entity.Step
		var kind string
		var role, userID sql.NullString
		var timeoutHours sql.NullInt64

		err := rows.Scan(
			&step.ID,
			&step.WorkflowID,
			&step.Order,
			&step.Name,
			&kind,
			&role,
			&userID,
			&step.IsRequired,
			&step.CanReject,
			&step.CanEdit,
			&step.AutoApprove,
			&timeoutHours,
			&step.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow step: %w", err)
		}

		step.Approver = entity.Approver{
			Kind:   entity.ApproverKind(kind),
			Role:   role.String,
			UserID: userID.String,
		}
		if timeoutHours.Valid {
			hours := int(timeoutHours.Int64)
			step.TimeoutHours = &hours
		}

		steps = append(steps, &step)
	}

	return steps, rows.Err()
}

// getExecutor returns appropriate executor based on context
func (r *WorkflowRepository) getExecutor(ctx context.Context) executor {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.db
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// Verify interface compliance
var _ port.WorkflowRepository = (*WorkflowRepository)(nil)
