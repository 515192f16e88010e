package entity

import "time"

// Workflow is a named, ordered sequence of approval steps bound to an entity type
type Workflow struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	EntityType string    `json:"entity_type"`
	IsActive   bool      `json:"is_active"`
	Steps      []*Step   `json:"steps,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StepByOrder returns the step whose order matches, or nil
func (w *Workflow) StepByOrder(order int) *Step {
	for _, s := range w.Steps {
		if s.Order == order {
			return s
		}
	}
	return nil
}

// RequiredSteps returns the steps counted toward the completion gate
func (w *Workflow) RequiredSteps() []*Step {
	var required []*Step
	for _, s := range w.Steps {
		if s.IsRequired {
			required = append(required, s)
		}
	}
	return required
}

// Step is one stage in a workflow. Order values form a dense 1..N sequence
// assigned at creation time.
type Step struct {
	ID         int64    `json:"id"`
	WorkflowID int64    `json:"workflow_id"`
	Order      int      `json:"order"`
	Name       string   `json:"name"`
	Approver   Approver `json:"approver"`
	IsRequired bool     `json:"is_required"`
	CanReject  bool     `json:"can_reject"`
	CanEdit    bool     `json:"can_edit"`
	// AutoApprove and TimeoutHours are persisted but not yet acted on
	AutoApprove  bool      `json:"auto_approve"`
	TimeoutHours *int      `json:"timeout_hours,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
