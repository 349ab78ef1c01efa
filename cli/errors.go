package cli

import "errors"

var (
	ErrScenarioNameRequired = errors.New("scenario section must have a name")
	ErrScenariosFailed      = errors.New("one or more scenarios failed")
	ErrInvalidLogLevel      = errors.New("invalid log level")
	ErrHealthCheckFailed    = errors.New("health check failed")
	ErrScenarioNameEmpty    = errors.New("scenario name cannot be empty")
	ErrScenarioNameInvalid  = errors.New("scenario name must be alphanumeric with hyphens or underscores only")
	ErrVersionEmpty         = errors.New("version cannot be empty")
)
