// Package apperror defines the error taxonomy shared by the approval engine.
// Each failure class is a sentinel so callers can classify with errors.Is
// after any amount of wrapping.
package apperror

import "errors"

var (
	// ErrValidation is returned when input to a creation call is malformed
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a workflow, request or step does not exist
	ErrNotFound = errors.New("not found")

	// ErrWorkflowInactive is returned when a request targets a deactivated workflow
	ErrWorkflowInactive = errors.New("workflow is not active")

	// ErrDuplicateRequest is returned when a PENDING or APPROVED request
	// already exists for the same (entityType, entityID) pair
	ErrDuplicateRequest = errors.New("an active approval request already exists for this entity")

	// ErrInvalidState is returned when a decision targets a non-pending request
	ErrInvalidState = errors.New("request is not pending")

	// ErrForbidden is returned when the actor is not authorized for the current step
	ErrForbidden = errors.New("actor is not authorized to decide this step")

	// ErrAlreadyDecided is returned when the actor already decided the current
	// step of this request
	ErrAlreadyDecided = errors.New("actor has already decided this step")

	// ErrStepNotFound is returned when the request's current step has no
	// matching step definition; given the creation invariants this indicates
	// a corrupted workflow
	ErrStepNotFound = errors.New("current step not found in workflow")
)
