package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/netresearch/suiteport/core"
)

// RunCommand imports the upstream suite once per scenario and runs it
type RunCommand struct {
	ConfigFile string   `long:"config" env:"SUITEPORT_CONFIG" description:"configuration file (INI, or YAML by extension)"`
	LogLevel   string   `long:"log-level" env:"SUITEPORT_LOG_LEVEL" description:"Set log level (overrides config)"`
	Scenarios  []string `long:"scenario" short:"s" description:"Run only this scenario, may be repeated"`
	ReportFile string   `long:"report" description:"Write a JSON report to this file (overrides report-file)"`
	FailFast   bool     `long:"fail-fast" description:"Stop after the first failing scenario"`
	Quiet      bool     `long:"quiet" short:"q" description:"Do not stream installer and runner output"`
	Logger     core.Logger

	// Stdout and Stderr default to the process streams.
	Stdout io.Writer
	Stderr io.Writer

	cloner core.Cloner
}

// Execute runs the selected scenarios until done or interrupted
func (c *RunCommand) Execute(_ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.Run(ctx)
}

// Run returns ErrScenariosFailed when any scenario did not pass.
func (c *RunCommand) Run(ctx context.Context) error {
	if err := ApplyLogLevel(c.LogLevel); err != nil {
		return err
	}

	conf, err := LoadConfig(c.ConfigFile, c.Logger)
	if err != nil {
		return err
	}
	if c.LogLevel == "" {
		if err := ApplyLogLevel(conf.Global.LogLevel); err != nil {
			c.Logger.Warningf("Ignoring log-level from config: %v", err)
		}
	}
	if err := conf.Validate(); err != nil {
		return err
	}

	scenarios, err := conf.SelectScenarios(c.Scenarios)
	if err != nil {
		return err
	}

	stdout, stderr := c.Stdout, c.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	var live, liveErr, cloneProgress io.Writer
	if !c.Quiet {
		live, liveErr = stdout, stderr
		if isTerminal(stderr) {
			cloneProgress = stderr
		}
	}

	imp := conf.NewImporter(c.Logger, live, liveErr, cloneProgress)
	if c.cloner != nil {
		imp.Fetcher.Cloner = c.cloner
	}

	rr := NewRunReport(time.Now())
	progress := NewProgressReporter(c.Logger, stdout, len(scenarios))
	for i, sc := range scenarios {
		progress.Step(i+1, fmt.Sprintf("%s @ %s", sc.Name, sc.Version))

		report, err := imp.Run(ctx, sc)
		rr.Add(report)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			c.Logger.Warningf("Interrupted, skipping remaining scenarios")
			break
		}
		if c.FailFast {
			c.Logger.Warningf("Stopping after failed scenario %q", sc.Name)
			break
		}
	}
	rr.Duration = time.Since(rr.Started)

	reportFile := c.ReportFile
	if reportFile == "" {
		reportFile = conf.Global.ReportFile
	}
	if reportFile != "" {
		if err := WriteReport(reportFile, rr); err != nil {
			return err
		}
		c.Logger.Noticef("Report written to %s", reportFile)
	}

	PrintSummary(stdout, rr, isTerminal(stdout))

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}
	if !rr.Passed {
		return fmt.Errorf("%w: %s", ErrScenariosFailed, strings.Join(rr.Failed(), ", "))
	}
	return nil
}
