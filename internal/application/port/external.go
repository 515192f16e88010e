package port

import "github.com/medadmin/approvalflow/internal/domain/entity"

// AuthorizationResolver answers whether an actor is entitled to decide a step.
// The engine treats it as an opaque, side-effect-free predicate; how roles are
// enumerated or how the actor was authenticated is the caller's concern.
type AuthorizationResolver interface {
	CanDecide(actor entity.Actor, step *entity.Step) bool
}
