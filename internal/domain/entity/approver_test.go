package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApproverIsValid(t *testing.T) {
	tests := []struct {
		name     string
		approver Approver
		want     bool
	}{
		{name: "role approver", approver: RoleApprover("MANAGER"), want: true},
		{name: "user approver", approver: UserApprover("user-1"), want: true},
		{name: "no approver", approver: NoApprover(), want: true},
		{name: "role kind without role", approver: Approver{Kind: ApproverKindRole}, want: false},
		{name: "user kind without user", approver: Approver{Kind: ApproverKindUser}, want: false},
		{name: "both set", approver: Approver{Kind: ApproverKindRole, Role: "MANAGER", UserID: "user-1"}, want: false},
		{name: "none kind with role", approver: Approver{Kind: ApproverKindNone, Role: "MANAGER"}, want: false},
		{name: "unknown kind", approver: Approver{Kind: "GROUP"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.approver.IsValid())
		})
	}
}

func TestWorkflowStepLookups(t *testing.T) {
	wf := &Workflow{
		Steps: []*Step{
			{ID: 10, Order: 1, IsRequired: true},
			{ID: 11, Order: 2, IsRequired: false},
			{ID: 12, Order: 3, IsRequired: true},
		},
	}

	assert.Equal(t, int64(11), wf.StepByOrder(2).ID)
	assert.Nil(t, wf.StepByOrder(4))

	required := wf.RequiredSteps()
	assert.Len(t, required, 2)
	assert.Equal(t, int64(10), required[0].ID)
	assert.Equal(t, int64(12), required[1].ID)
}
