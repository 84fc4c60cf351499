package progression

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTimestamp indicates a workout date could not be parsed.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	// ErrUnknownXPAction indicates an XP action key missing from the source table.
	ErrUnknownXPAction = errors.New("unknown xp action")
	// ErrUnknownRequirementType indicates a badge requirement with no extraction rule.
	ErrUnknownRequirementType = errors.New("unknown requirement type")
	// ErrInvalidLevelTable indicates a malformed level table.
	ErrInvalidLevelTable = errors.New("invalid level table")
	// ErrStateNotFound indicates no persisted state exists for the user.
	ErrStateNotFound = errors.New("progression state not found")
	// ErrMissingUserID indicates a required user id was absent.
	ErrMissingUserID = errors.New("user id is required")
)

// TimestampError reports one workout date that was excluded from streak computation.
type TimestampError struct {
	Index int
	Value string
	Err   error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("%s at index %d: %q", ErrInvalidTimestamp, e.Index, e.Value)
}

func (e *TimestampError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidTimestamp}
	}
	return []error{ErrInvalidTimestamp, e.Err}
}

// RequirementError reports a badge skipped during refresh.
type RequirementError struct {
	BadgeID string
	Type    RequirementType
}

func (e *RequirementError) Error() string {
	return fmt.Sprintf("%s %q on badge %s", ErrUnknownRequirementType, e.Type, e.BadgeID)
}

func (e *RequirementError) Unwrap() error { return ErrUnknownRequirementType }

// ActionError reports an award attempted with an unregistered action.
type ActionError struct {
	Action XPAction
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s %q", ErrUnknownXPAction, e.Action)
}

func (e *ActionError) Unwrap() error { return ErrUnknownXPAction }
