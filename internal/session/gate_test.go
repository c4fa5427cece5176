package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanNavigateTo(t *testing.T) {
	state := newState(false)
	state.CurrentStepIndex = 2
	state.CompletedSteps[0] = true
	state.CompletedSteps[1] = true

	t.Run("out of bounds", func(t *testing.T) {
		assert.False(t, canNavigateTo(&state, -1, 5))
		assert.False(t, canNavigateTo(&state, 5, 5))
	})

	t.Run("current step is always reachable", func(t *testing.T) {
		assert.True(t, canNavigateTo(&state, 2, 5))
	})

	t.Run("completed steps are revisitable", func(t *testing.T) {
		assert.True(t, canNavigateTo(&state, 0, 5))
		assert.True(t, canNavigateTo(&state, 1, 5))
	})

	t.Run("next step needs the current one finished", func(t *testing.T) {
		assert.False(t, canNavigateTo(&state, 3, 5))

		done := newState(false)
		done.CurrentStepIndex = 2
		done.CompletedSteps[2] = true
		assert.True(t, canNavigateTo(&done, 3, 5))
	})

	t.Run("skipping ahead is never allowed", func(t *testing.T) {
		done := newState(false)
		done.CurrentStepIndex = 2
		done.CompletedSteps[2] = true
		assert.False(t, canNavigateTo(&done, 4, 5))
	})
}
