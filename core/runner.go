package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// ExitCode is the test runner's process exit status.
type ExitCode int

// Exit sentinels of the test runner.
const (
	ExitOK               ExitCode = 0
	ExitTestsFailed      ExitCode = 1
	ExitInterrupted      ExitCode = 2
	ExitInternalError    ExitCode = 3
	ExitUsageError       ExitCode = 4
	ExitNoTestsCollected ExitCode = 5
)

var exitCodeNames = map[ExitCode]string{
	ExitOK:               "ExitCode.OK",
	ExitTestsFailed:      "ExitCode.TESTS_FAILED",
	ExitInterrupted:      "ExitCode.INTERRUPTED",
	ExitInternalError:    "ExitCode.INTERNAL_ERROR",
	ExitUsageError:       "ExitCode.USAGE_ERROR",
	ExitNoTestsCollected: "ExitCode.NO_TESTS_COLLECTED",
}

func (c ExitCode) String() string {
	if name, ok := exitCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ExitCode(%d)", int(c))
}

func (c ExitCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// RunResult is what the runner reported.
type RunResult struct {
	Code     ExitCode      `json:"code"`
	Duration time.Duration `json:"duration"`
	Args     []string      `json:"args"`
}

// Passed reports whether every selected test passed.
func (r *RunResult) Passed() bool {
	return r != nil && r.Code == ExitOK
}

// Verify returns a *RunnerExitError unless the run passed.
func (r *RunResult) Verify() error {
	if r == nil {
		return ErrRunnerFailed
	}
	if r.Passed() {
		return nil
	}
	return &RunnerExitError{Code: r.Code}
}

const (
	DefaultRunnerCommand = "python -m pytest"
	DefaultRunnerFlags   = "-sv"
	DefaultTestDir       = "./tests/"
)

// TestRunner invokes the upstream's test runner inside a checkout.
type TestRunner struct {
	Command string
	Flags   []string
	TestDir string
	// Stdout and Stderr receive the live output, may be nil.
	Stdout io.Writer
	Stderr io.Writer
}

// NewTestRunner returns a runner with the default command line.
func NewTestRunner() *TestRunner {
	return &TestRunner{
		Command: DefaultRunnerCommand,
		Flags:   []string{DefaultRunnerFlags},
		TestDir: DefaultTestDir,
	}
}

// Args returns the arguments passed after the runner command.
func (r *TestRunner) Args(expr string, opt Optimization) []string {
	out := make([]string, 0, len(r.Flags)+4)
	out = append(out, r.Flags...)
	if opt != nil {
		out = append(out, opt.RunnerArgs()...)
	}
	if expr != "" {
		out = append(out, "-k"+expr)
	}
	testDir := r.TestDir
	if testDir == "" {
		testDir = DefaultTestDir
	}
	return append(out, testDir)
}

// Run executes the runner with dir as working directory, since tests are
// discovered relative to it. A non-zero exit is reported in the result, not
// as an error; errors mean the runner could not be run at all.
func (r *TestRunner) Run(
	ctx context.Context, dir string, env []string, expr string, opt Optimization, e *Execution,
) (*RunResult, error) {
	var outBuf, errBuf io.Writer
	if e != nil && e.OutputStream != nil {
		outBuf = e.OutputStream
	}
	if e != nil && e.ErrorStream != nil {
		errBuf = e.ErrorStream
	}

	args := r.Args(expr, opt)
	cmd, err := Command{
		Line:   r.Command,
		Dir:    dir,
		Env:    env,
		Stdout: tee(r.Stdout, outBuf),
		Stderr: tee(r.Stderr, errBuf),
	}.build(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRunnerStart, err)
	}

	start := time.Now()
	err = cmd.Run()
	result := &RunResult{Code: ExitOK, Duration: time.Since(start), Args: args}
	if err == nil {
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("test runner: %w", ctxErr)
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return nil, fmt.Errorf("%w: %w", ErrRunnerStart, err)
	}

	code := exitErr.ExitCode()
	if code < 0 {
		// killed by a signal
		result.Code = ExitInterrupted
		return result, nil
	}
	result.Code = ExitCode(code)
	return result, nil
}

func tee(live io.Writer, buf io.Writer) io.Writer {
	switch {
	case live == nil && buf == nil:
		return nil
	case live == nil:
		return buf
	case buf == nil:
		return live
	default:
		return io.MultiWriter(live, buf)
	}
}
