package service

import (
	"github.com/medadmin/approvalflow/internal/application/port"
	"github.com/medadmin/approvalflow/internal/domain/entity"
)

// StaticResolver is the default AuthorizationResolver: it authorizes an actor
// when the step's role matches the actor's role, or the step names the actor
// directly. Steps without an approver descriptor match nobody.
type StaticResolver struct{}

// NewStaticResolver creates the default resolver
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{}
}

// CanDecide implements port.AuthorizationResolver
func (r *StaticResolver) CanDecide(actor entity.Actor, step *entity.Step) bool {
	switch step.Approver.Kind {
	case entity.ApproverKindRole:
		return actor.Role != "" && actor.Role == step.Approver.Role
	case entity.ApproverKindUser:
		return actor.ID == step.Approver.UserID
	}
	return false
}

var _ port.AuthorizationResolver = (*StaticResolver)(nil)
