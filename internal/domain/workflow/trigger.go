package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	// TriggerAdvance records an approval that moves the request to its next step
	TriggerAdvance Trigger = "ADVANCE"

	// TriggerApprove records the approval that completes the request
	TriggerApprove Trigger = "APPROVE"

	// TriggerReject short-circuits the request to its rejected terminal state
	TriggerReject Trigger = "REJECT"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
