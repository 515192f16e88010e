package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFire(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		trigger Trigger
		want    State
		wantErr bool
	}{
		{
			name:    "advance keeps request pending",
			from:    StatePending,
			trigger: TriggerAdvance,
			want:    StatePending,
		},
		{
			name:    "approve completes request",
			from:    StatePending,
			trigger: TriggerApprove,
			want:    StateApproved,
		},
		{
			name:    "reject terminates request",
			from:    StatePending,
			trigger: TriggerReject,
			want:    StateRejected,
		},
		{
			name:    "approved is terminal",
			from:    StateApproved,
			trigger: TriggerApprove,
			wantErr: true,
		},
		{
			name:    "rejected is terminal",
			from:    StateRejected,
			trigger: TriggerAdvance,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Fire(tt.from, tt.trigger)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanFire(t *testing.T) {
	assert.True(t, CanFire(StatePending, TriggerApprove))
	assert.True(t, CanFire(StatePending, TriggerReject))
	assert.False(t, CanFire(StateApproved, TriggerReject))
	assert.False(t, CanFire(StateRejected, TriggerApprove))
}

func TestTerminalStates(t *testing.T) {
	assert.False(t, StatePending.IsTerminal())
	assert.True(t, StateApproved.IsTerminal())
	assert.True(t, StateRejected.IsTerminal())

	assert.Empty(t, PermittedTriggers(StateApproved))
	assert.Len(t, PermittedTriggers(StatePending), 3)
}
