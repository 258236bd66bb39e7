package session

import (
	"errors"
	"fmt"
)

// UnknownActionError is returned by Dispatch for an action id that is not
// part of the action table.
type UnknownActionError struct {
	Action string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Action)
}

// IsUnknownAction checks if an error is or wraps an UnknownActionError.
func IsUnknownAction(err error) bool {
	var target *UnknownActionError
	return errors.As(err, &target)
}

// ArgumentError reports positional arguments an action cannot be invoked
// with. Usage is the synopsis of the action.
type ArgumentError struct {
	Action  string
	Usage   string
	Message string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s (usage: %s)", e.Action, e.Message, e.Usage)
}

// IsArgumentError checks if an error is or wraps an ArgumentError.
func IsArgumentError(err error) bool {
	var target *ArgumentError
	return errors.As(err, &target)
}
