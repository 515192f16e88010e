package entity

import "time"

// Decision is an individual actor's approve/reject vote on one step of one
// request. Immutable once created; the ordered set of decisions forms the
// audit trail of the request.
type Decision struct {
	ID         int64     `json:"id"`
	RequestID  int64     `json:"request_id"`
	StepID     int64     `json:"step_id"`
	ApproverID string    `json:"approver_id"`
	Status     string    `json:"status"`
	Comment    string    `json:"comment,omitempty"`
	Data       string    `json:"data,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
