package entity

// ApproverKind discriminates the authorization descriptor of a step
type ApproverKind string

const (
	// ApproverKindRole means any actor holding the role may decide the step
	ApproverKindRole ApproverKind = "ROLE"

	// ApproverKindUser means only one specific actor may decide the step
	ApproverKindUser ApproverKind = "USER"

	// ApproverKindNone is only valid for auto-approve steps
	ApproverKindNone ApproverKind = "NONE"
)

// Approver is the authorization descriptor of a step: a role match or an
// explicit user match, never both
type Approver struct {
	Kind   ApproverKind `json:"kind"`
	Role   string       `json:"role,omitempty"`
	UserID string       `json:"user_id,omitempty"`
}

// RoleApprover builds a role-based authorization descriptor
func RoleApprover(role string) Approver {
	return Approver{Kind: ApproverKindRole, Role: role}
}

// UserApprover builds a user-based authorization descriptor
func UserApprover(userID string) Approver {
	return Approver{Kind: ApproverKindUser, UserID: userID}
}

// NoApprover builds the empty descriptor used by auto-approve steps
func NoApprover() Approver {
	return Approver{Kind: ApproverKindNone}
}

// IsValid returns true if the descriptor carries exactly the field its kind requires
func (a Approver) IsValid() bool {
	switch a.Kind {
	case ApproverKindRole:
		return a.Role != "" && a.UserID == ""
	case ApproverKindUser:
		return a.UserID != "" && a.Role == ""
	case ApproverKindNone:
		return a.Role == "" && a.UserID == ""
	}
	return false
}

// Actor is the externally-resolved identity submitting a decision
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}
