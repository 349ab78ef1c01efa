package core

import (
	"fmt"
	"time"

	"github.com/armon/circbuf"
	"github.com/google/uuid"
)

const (
	// DefaultTailSize is how much of the runner's stdout/stderr is kept in
	// memory for reports.
	DefaultTailSize = 64 * 1024
	logPrefix       = "[Scenario %q (%s)] %s"
)

type Logger interface {
	Criticalf(format string, args ...any)
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
	Noticef(format string, args ...any)
	Warningf(format string, args ...any)
}

// Execution contains all the information relative to a scenario run.
type Execution struct {
	ID       string
	Date     time.Time
	Duration time.Duration
	Failed   bool
	Error    error  `json:"-"`
	Message  string `json:"error,omitempty"`

	OutputStream, ErrorStream *circbuf.Buffer `json:"-"`
}

// NewExecution returns a new Execution with a random ID whose output buffers
// retain the last tailSize bytes of each stream.
func NewExecution(tailSize int64) (*Execution, error) {
	if tailSize <= 0 {
		tailSize = DefaultTailSize
	}

	bufOut, err := circbuf.NewBuffer(tailSize)
	if err != nil {
		return nil, fmt.Errorf("output buffer: %w", err)
	}
	bufErr, err := circbuf.NewBuffer(tailSize)
	if err != nil {
		return nil, fmt.Errorf("error buffer: %w", err)
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("execution id: %w", err)
	}

	return &Execution{
		ID:           id.String()[:8],
		OutputStream: bufOut,
		ErrorStream:  bufErr,
	}, nil
}

// Start records the start date.
func (e *Execution) Start() {
	e.Date = time.Now()
}

// Stop saves the duration and marks the execution failed when err is non-nil.
func (e *Execution) Stop(err error) {
	if e.Date.IsZero() {
		e.Date = time.Now()
	}
	e.Duration = time.Since(e.Date)
	if e.Duration <= 0 {
		e.Duration = time.Nanosecond
	}

	if err != nil {
		e.Error = err
		e.Message = err.Error()
		e.Failed = true
	}
}

// GetStdout returns the retained tail of the runner's stdout.
func (e *Execution) GetStdout() string {
	if e.OutputStream == nil {
		return ""
	}
	return e.OutputStream.String()
}

// GetStderr returns the retained tail of the runner's stderr.
func (e *Execution) GetStderr() string {
	if e.ErrorStream == nil {
		return ""
	}
	return e.ErrorStream.String()
}

// scenarioLog prefixes every message with the scenario name and execution ID.
type scenarioLog struct {
	logger   Logger
	scenario string
	id       string
}

func (l scenarioLog) Criticalf(format string, args ...any) {
	l.logger.Criticalf(logPrefix, l.scenario, l.id, fmt.Sprintf(format, args...))
}

func (l scenarioLog) Noticef(format string, args ...any) {
	l.logger.Noticef(logPrefix, l.scenario, l.id, fmt.Sprintf(format, args...))
}

func (l scenarioLog) Debugf(format string, args ...any) {
	l.logger.Debugf(logPrefix, l.scenario, l.id, fmt.Sprintf(format, args...))
}

func (l scenarioLog) Warningf(format string, args ...any) {
	l.logger.Warningf(logPrefix, l.scenario, l.id, fmt.Sprintf(format, args...))
}

func (l scenarioLog) Errorf(format string, args ...any) {
	l.logger.Errorf(logPrefix, l.scenario, l.id, fmt.Sprintf(format, args...))
}
