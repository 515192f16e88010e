package workflow

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a state transition is not allowed
var ErrInvalidTransition = errors.New("invalid state transition")

// transitions is the full transition table for an approval request.
// Terminal states have no outgoing edges.
var transitions = map[State]map[Trigger]State{
	StatePending: {
		TriggerAdvance: StatePending,
		TriggerApprove: StateApproved,
		TriggerReject:  StateRejected,
	},
}

// CanFire returns true if the trigger is permitted in the given state
func CanFire(from State, trigger Trigger) bool {
	_, ok := transitions[from][trigger]
	return ok
}

// Fire returns the state reached by firing the trigger from the given state
func Fire(from State, trigger Trigger) (State, error) {
	to, ok := transitions[from][trigger]
	if !ok {
		return from, fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, from)
	}
	return to, nil
}

// PermittedTriggers returns all triggers that can be fired in the given state
func PermittedTriggers(from State) []Trigger {
	edges := transitions[from]
	triggers := make([]Trigger, 0, len(edges))
	for trigger := range edges {
		triggers = append(triggers, trigger)
	}
	return triggers
}
