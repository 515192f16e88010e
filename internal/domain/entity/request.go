package entity

import "time"

// ApprovalRequest is one instance of a business object going through a workflow.
// Created once by the requester, mutated only by the decision processor and
// never deleted.
type ApprovalRequest struct {
	ID          int64      `json:"id"`
	WorkflowID  int64      `json:"workflow_id"`
	EntityType  string     `json:"entity_type"`
	EntityID    string     `json:"entity_id"`
	RequesterID string     `json:"requester_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Data        string     `json:"data,omitempty"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      string     `json:"status"`
	CurrentStep int        `json:"current_step"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Populated on detail reads
	Workflow  *Workflow   `json:"workflow,omitempty"`
	Decisions []*Decision `json:"decisions,omitempty"`
}

// IsTerminal returns true once the request reached APPROVED or REJECTED
func (r *ApprovalRequest) IsTerminal() bool {
	return IsTerminalStatus(r.Status)
}
