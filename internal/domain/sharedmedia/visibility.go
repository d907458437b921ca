package sharedmedia

// PubliclyVisible reports whether anonymous callers may see an item.
func PubliclyVisible(state MediaState) bool {
	return state == StateApproved
}

// Available reports whether an item can be read at all. Deleted items stay in
// the table for auditing but behave as if absent.
func Available(state MediaState) bool {
	return state != StateDeleted
}

// ListableStates returns the states a tournament listing may include.
func ListableStates(publicOnly bool) []MediaState {
	if publicOnly {
		return []MediaState{StateApproved}
	}
	return []MediaState{StatePending, StateApproved, StateRejected}
}
