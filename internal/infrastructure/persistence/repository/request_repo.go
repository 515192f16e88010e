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

// RequestRepository implements port.RequestRepository
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

const requestColumns = `
	id, workflow_id, entity_type, entity_id, requester_id, title, description,
	data, priority, due_date, status, current_step, created_at, updated_at
`

// Create persists a new approval request. A unique partial index guards the
// one-active-request-per-entity invariant; violations surface as
// apperror.ErrDuplicateRequest.
func (r *RequestRepository) Create(ctx context.Context, request *entity.ApprovalRequest) error {
	query := `
		INSERT INTO approval_requests (
			workflow_id, entity_type, entity_id, requester_id, title,
			description, data, priority, due_date, status, current_step
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		request.WorkflowID,
		request.EntityType,
		request.EntityID,
		request.RequesterID,
		request.Title,
		request.Description,
		request.Data,
		request.Priority,
		request.DueDate,
		request.Status,
		request.CurrentStep,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%s", apperror.ErrDuplicateRequest, request.EntityType, request.EntityID)
		}
		r.logger.Error("Failed to create request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	request.ID = id
	return nil
}

// GetByID retrieves an approval request by ID
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*entity.ApprovalRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM approval_requests WHERE id = ?`

	request, err := r.scanRequest(r.getExecutor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return request, nil
}

// FindActiveByEntity retrieves the PENDING or APPROVED request for an entity pair
func (r *RequestRepository) FindActiveByEntity(ctx context.Context, entityType, entityID string) (*entity.ApprovalRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM approval_requests
		WHERE entity_type = ? AND entity_id = ? AND status IN ('PENDING', 'APPROVED')
	`

	request, err := r.scanRequest(r.getExecutor(ctx).QueryRowContext(ctx, query, entityType, entityID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to find active request",
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to find active request: %w", err)
	}
	return request, nil
}

// UpdateState sets status and current step together
func (r *RequestRepository) UpdateState(ctx context.Context, id int64, status string, currentStep int) error {
	query := `
		UPDATE approval_requests
		SET status = ?, current_step = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query, status, currentStep, id)
	if err != nil {
		r.logger.Error("Failed to update request state",
			zap.Int64("id", id),
			zap.String("status", status),
			zap.Int("current_step", currentStep),
			zap.Error(err))
		return fmt.Errorf("failed to update request state: %w", err)
	}
	return nil
}

// List retrieves requests matching the filter, newest first
func (r *RequestRepository) List(ctx context.Context, filter port.RequestFilter) ([]*entity.ApprovalRequest, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + requestColumns + `
		FROM approval_requests
		WHERE (? = '' OR entity_type = ?)
		  AND (? = '' OR entity_id = ?)
		  AND (? = '' OR status = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query,
		filter.EntityType, filter.EntityType,
		filter.EntityID, filter.EntityID,
		filter.Status, filter.Status,
		limit, filter.Offset,
	)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.ApprovalRequest
	for rows.Next() {
		request, err := r.scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *RequestRepository) scanRequest(row rowScanner) (*entity.ApprovalRequest, error) {
	var request entity.ApprovalRequest
	var dueDate sql.NullTime

	err := row.Scan(
		&request.ID,
		&request.WorkflowID,
		&request.EntityType,
		&request.EntityID,
		&request.RequesterID,
		&request.Title,
		&request.Description,
		&request.Data,
		&request.Priority,
		&dueDate,
		&request.Status,
		&request.CurrentStep,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		request.DueDate = &dueDate.Time
	}
	return &request, nil
}

// getExecutor returns appropriate executor based on context
func (r *RequestRepository) getExecutor(ctx context.Context) executor {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
