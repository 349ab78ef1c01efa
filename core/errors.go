package core

import (
	"errors"
	"fmt"
)

// Common errors used across the package
var (
	// Fetch errors
	ErrCloneFailed       = errors.New("clone failed")
	ErrReferenceNotFound = errors.New("reference not found on remote")
	ErrInstallFailed     = errors.New("install failed")
	ErrCheckoutRemove    = errors.New("failed to remove previous checkout")

	// Runner errors
	ErrRunnerStart  = errors.New("failed to start test runner")
	ErrRunnerFailed = errors.New("test runner did not report success")

	// Validation errors
	ErrEmptyCommand     = errors.New("command cannot be empty")
	ErrInvalidTestFile  = errors.New("blocked test must be named test_<name>.py")
	ErrInvalidScenario  = errors.New("invalid scenario")
	ErrScenarioNotFound = errors.New("scenario not found")
)

// WrapScenarioError wraps a scenario-related error with context
func WrapScenarioError(op string, scenario string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s scenario %q: %w", op, scenario, err)
}

// WrapFetchError wraps a clone or install error with the remote and version
func WrapFetchError(sentinel error, url, version string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s@%s: %w", sentinel, url, version, err)
}

// RunnerExitError reports a runner that exited with anything but ExitOK.
type RunnerExitError struct {
	Code ExitCode
}

func (e *RunnerExitError) Error() string {
	return fmt.Sprintf("runner exited with %s (%d)", e.Code, int(e.Code))
}

func (e *RunnerExitError) Unwrap() error {
	return ErrRunnerFailed
}

// IsRunnerExitError checks if the error is a runner exit error
func IsRunnerExitError(err error) bool {
	_, ok := errors.AsType[*RunnerExitError](err)
	return ok
}
