package alloc

import (
	"errors"
	"fmt"
)

// Error taxonomy for the allocation core. Callers classify failures with errors.Is.
var (
	// ErrInvalidProfile marks a malformed preference profile (bad ranking,
	// agent/item count mismatch, empty profile). Recoverable by fixing the input.
	ErrInvalidProfile = errors.New("invalid preference profile")

	// ErrInvalidMatrix marks a malformed allocation matrix handed to the decomposer.
	ErrInvalidMatrix = errors.New("invalid allocation matrix")

	// ErrInvariantViolation marks an internal consistency failure. Never retried.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrEmptyLottery is returned when a lottery has no entries to sample from.
	ErrEmptyLottery = fmt.Errorf("%w: empty lottery", ErrInvariantViolation)

	// ErrInvalidConfig marks an unusable Config.
	ErrInvalidConfig = errors.New("invalid config")
)

// ProfileError identifies the agent whose ranking was rejected.
// Agent is empty for profile-wide problems (e.g. no agents at all).
type ProfileError struct {
	Agent  AgentID
	Reason string
}

func (e *ProfileError) Error() string {
	if e.Agent == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidProfile, e.Reason)
	}
	return fmt.Sprintf("%s: agent %q: %s", ErrInvalidProfile, e.Agent, e.Reason)
}

func (e *ProfileError) Unwrap() error { return ErrInvalidProfile }

func profileErrorf(agent AgentID, format string, args ...any) error {
	return &ProfileError{Agent: agent, Reason: fmt.Sprintf(format, args...)}
}

func invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariantViolation, fmt.Sprintf(format, args...))
}

func invalidMatrixf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidMatrix, fmt.Sprintf(format, args...))
}
