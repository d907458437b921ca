package sharedmedia

import (
	"fmt"
	"strings"
)

type MediaState string

const (
	StatePending  MediaState = "PENDING"
	StateApproved MediaState = "APPROVED"
	StateRejected MediaState = "REJECTED"
	StateDeleted  MediaState = "DELETED"
)

// ParseState accepts the state names case-insensitively.
func ParseState(s string) (MediaState, error) {
	state := MediaState(strings.ToUpper(strings.TrimSpace(s)))
	if !state.Valid() {
		return "", fmt.Errorf("%w: unknown media state %q", ErrValidation, s)
	}
	return state, nil
}

func (s MediaState) Valid() bool {
	switch s {
	case StatePending, StateApproved, StateRejected, StateDeleted:
		return true
	}
	return false
}

func (s MediaState) String() string {
	return string(s)
}

// UnmarshalText rejects unknown states while decoding request bodies.
func (s *MediaState) UnmarshalText(text []byte) error {
	state, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = state
	return nil
}
