package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to remote callers. Operations wrap one of these with
// Errorf so transports can classify a failure with errors.Is.
var (
	// ErrNoRobot is returned when an operation needs a kinematic tree that has not been created yet.
	ErrNoRobot = errors.New("robot not found")

	// ErrNotFound is returned when a named joint, body, frame, model or problem key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName is returned when a frame, joint or obstacle name is already in use.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrModelLoad wraps a model loader failure during model insertion.
	ErrModelLoad = errors.New("model load error")

	// ErrEnvironmentLoad wraps a loader or injection failure during environment loading.
	ErrEnvironmentLoad = errors.New("environment load error")

	// ErrInvalidTransform is returned for malformed spatial input.
	ErrInvalidTransform = errors.New("invalid transform")

	// ErrNoActiveProblem is returned when no problem has been selected.
	ErrNoActiveProblem = errors.New("no active problem")

	// ErrInvalidArgument is returned for unknown enum values and empty names.
	ErrInvalidArgument = errors.New("invalid argument")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrNoRobot, "NoRobot"},
	{ErrNotFound, "NotFound"},
	{ErrDuplicateName, "DuplicateName"},
	{ErrModelLoad, "ModelLoadError"},
	{ErrEnvironmentLoad, "EnvironmentLoadError"},
	{ErrInvalidTransform, "InvalidTransform"},
	{ErrNoActiveProblem, "NoActiveProblem"},
	{ErrInvalidArgument, "InvalidArgument"},
}

// Errorf formats a message and wraps it with the given kind.
// The resulting text reads "<kind>: <message>".
func Errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// KindOf returns the taxonomy name of err, or "Internal" when err does not
// wrap any known kind. The outermost kind wins, so an ErrModelLoad that
// wraps an ErrNotFound is reported as ModelLoadError.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	best := "Internal"
	depth := -1
	for _, k := range kinds {
		if d := wrapDepth(err, k.err); d >= 0 && (depth < 0 || d < depth) {
			best, depth = k.name, d
		}
	}
	return best
}

// wrapDepth reports how many Unwrap steps separate err from target, or -1.
func wrapDepth(err, target error) int {
	for d := 0; err != nil; d++ {
		if err == target {
			return d
		}
		switch u := err.(type) {
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		case interface{ Unwrap() []error }:
			for _, e := range u.Unwrap() {
				if sub := wrapDepth(e, target); sub >= 0 {
					return d + 1 + sub
				}
			}
			return -1
		default:
			return -1
		}
	}
	return -1
}
