package entity

// Status constants for ApprovalRequest
const (
	RequestStatusPending  = "PENDING"
	RequestStatusApproved = "APPROVED"
	RequestStatusRejected = "REJECTED"
)

// Status constants for Decision
const (
	DecisionStatusApproved = "APPROVED"
	DecisionStatusRejected = "REJECTED"
)

// Action constants for decision submission
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Priority constants for ApprovalRequest
const (
	PriorityLow    = "LOW"
	PriorityNormal = "NORMAL"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

var validPriorities = map[string]bool{
	PriorityLow:    true,
	PriorityNormal: true,
	PriorityHigh:   true,
	PriorityUrgent: true,
}

// IsValidPriority returns true if the priority is one of the known levels
func IsValidPriority(p string) bool {
	return validPriorities[p]
}

// IsTerminalStatus returns true if no further transitions are possible from the status
func IsTerminalStatus(status string) bool {
	return status == RequestStatusApproved || status == RequestStatusRejected
}
