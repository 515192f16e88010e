package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medadmin/approvalflow/internal/application/port"
	"github.com/medadmin/approvalflow/internal/domain/apperror"
	"github.com/medadmin/approvalflow/internal/domain/entity"
	"go.uber.org/zap"
)

// DecisionRepository implements port.DecisionRepository
type DecisionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDecisionRepository creates a new decision repository
func NewDecisionRepository(db *sql.DB, logger *zap.Logger) port.DecisionRepository {
	return &DecisionRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a decision. The unique index on
// (request_id, step_id, approver_id) makes double-voting fail here even when
// two submissions race past the application-level existence check.
func (r *DecisionRepository) Create(ctx context.Context, decision *entity.Decision) error {
	query := `
		INSERT INTO decisions (request_id, step_id, approver_id, status, comment, data)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		decision.RequestID,
		decision.StepID,
		decision.ApproverID,
		decision.Status,
		decision.Comment,
		decision.Data,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: request %d step %d actor %s",
				apperror.ErrAlreadyDecided, decision.RequestID, decision.StepID, decision.ApproverID)
		}
		r.logger.Error("Failed to create decision", zap.Error(err))
		return fmt.Errorf("failed to create decision: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	decision.ID = id
	return nil
}

// GetByRequestID retrieves all decisions of a request in chronological order
func (r *DecisionRepository) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.Decision, error) {
	query := `
		SELECT id, request_id, step_id, approver_id, status, comment, data, created_at
		FROM decisions
		WHERE request_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to get decisions", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get decisions: %w", err)
	}
	defer rows.Close()

	var decisions []*entity.Decision
	for rows.Next() {
		var decision entity.Decision
		err := rows.Scan(
			&decision.ID,
			&decision.RequestID,
			&decision.StepID,
			&decision.ApproverID,
			&decision.Status,
			&decision.Comment,
			&decision.Data,
			&decision.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decisions = append(decisions, &decision)
	}
	return decisions, rows.Err()
}

// Exists reports whether the actor already decided the step of the request
func (r *DecisionRepository) Exists(ctx context.Context, requestID, stepID int64, approverID string) (bool, error) {
	query := `
		SELECT COUNT(1) FROM decisions
		WHERE request_id = ? AND step_id = ? AND approver_id = ?
	`

	var count int
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, requestID, stepID, approverID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to check decision existence",
			zap.Int64("request_id", requestID),
			zap.Int64("step_id", stepID),
			zap.String("approver_id", approverID),
			zap.Error(err))
		return false, fmt.Errorf("failed to check decision existence: %w", err)
	}
	return count > 0, nil
}

// getExecutor returns appropriate executor based on context
func (r *DecisionRepository) getExecutor(ctx context.Context) executor {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Verify interface compliance
var _ port.DecisionRepository = (*DecisionRepository)(nil)
