package session

// canNavigateTo decides whether a step index is reachable given current state.
// A learner may always view the current step, revisit any finished step, or
// move exactly one step past a just-finished step. Skipping ahead into
// unfinished territory is never allowed. Depends only on the completed set and
// the cursor, nothing else.
func canNavigateTo(state *State, index int, stepCount int) bool {
	if index < 0 || index >= stepCount {
		return false
	}
	if index == state.CurrentStepIndex {
		return true
	}
	if state.CompletedSteps[index] {
		return true
	}
	if index == state.CurrentStepIndex+1 && state.CompletedSteps[state.CurrentStepIndex] {
		return true
	}
	return false
}
