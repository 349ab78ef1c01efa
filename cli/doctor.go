package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/gobs/args"

	"github.com/netresearch/suiteport/core"
)

// DoctorCommand checks the configuration and the host before a run
type DoctorCommand struct {
	ConfigFile string        `long:"config" env:"SUITEPORT_CONFIG" description:"Path to configuration file"`
	LogLevel   string        `long:"log-level" env:"SUITEPORT_LOG_LEVEL" description:"Set log level"`
	JSON       bool          `long:"json" description:"Output results as JSON"`
	Offline    bool          `long:"offline" description:"Skip remote reference checks"`
	Timeout    time.Duration `long:"timeout" default:"30s" description:"Timeout for each remote check"`
	Logger     core.Logger

	// Out receives the JSON report; stdout when nil.
	Out io.Writer

	resolve func(ctx context.Context, url, version string) (plumbing.ReferenceName, error)
}

// Status constants for health check results.
const (
	statusPass = "pass"
	statusFail = "fail"
	statusSkip = "skip"
)

const (
	categoryConfig   = "Configuration"
	categoryTools    = "Tools"
	categoryCheckout = "Checkout"
	categoryRemote   = "Remote"
)

// CheckResult represents the result of a single health check
type CheckResult struct {
	Category string   `json:"category"`
	Name     string   `json:"name"`
	Status   string   `json:"status"`
	Message  string   `json:"message,omitempty"`
	Hints    []string `json:"hints,omitempty"`
}

// DoctorReport contains all health check results
type DoctorReport struct {
	Healthy bool          `json:"healthy"`
	Checks  []CheckResult `json:"checks"`
}

func (r *DoctorReport) add(check CheckResult) {
	if check.Status == statusFail {
		r.Healthy = false
	}
	r.Checks = append(r.Checks, check)
}

// Execute runs all health checks
func (c *DoctorCommand) Execute(_ []string) error {
	if err := ApplyLogLevel(c.LogLevel); err != nil {
		c.Logger.Warningf("Failed to apply log level (using default): %v", err)
	}
	if c.resolve == nil {
		c.resolve = core.ResolveReference
	}

	report := &DoctorReport{Healthy: true, Checks: []CheckResult{}}

	var progress *ProgressReporter
	if !c.JSON {
		c.Logger.Noticef("Running suiteport diagnostics...")
		progress = NewProgressReporter(c.Logger, os.Stdout, 4)
		progress.Step(1, "Checking configuration...")
	}
	conf := c.checkConfiguration(report)

	if progress != nil {
		progress.Step(2, "Checking tools...")
	}
	if conf != nil {
		c.checkTools(report, conf)
	}

	if progress != nil {
		progress.Step(3, "Checking checkout directory...")
	}
	if conf != nil {
		c.checkCheckoutDir(report, conf)
	}

	if progress != nil {
		progress.Step(4, "Resolving scenario versions...")
	}
	switch {
	case conf == nil:
	case c.Offline:
		report.add(CheckResult{
			Category: categoryRemote,
			Name:     "Versions",
			Status:   statusSkip,
			Message:  "Skipped (--offline)",
		})
	default:
		c.checkRemote(report, conf)
	}

	if c.JSON {
		return c.outputJSON(report)
	}
	return c.outputHuman(report)
}

func (c *DoctorCommand) checkConfiguration(report *DoctorReport) *Config {
	path := c.ConfigFile
	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		report.add(CheckResult{
			Category: categoryConfig,
			Name:     "File",
			Status:   statusSkip,
			Message:  "No config file found, using built-in defaults",
			Hints: []string{
				"Run 'suiteport init' to create one interactively",
				"Searched: " + strings.Join(commonConfigPaths, ", "),
			},
		})
	} else if _, err := os.Stat(path); err != nil {
		report.add(CheckResult{
			Category: categoryConfig,
			Name:     "File Exists",
			Status:   statusFail,
			Message:  fmt.Sprintf("Cannot read config file: %v", err),
			Hints:    []string{"Specify a path with: --config=/path/to/suiteport.ini"},
		})
		return nil
	} else {
		report.add(CheckResult{Category: categoryConfig, Name: "File Exists", Status: statusPass, Message: path})
	}

	var (
		conf *Config
		err  error
	)
	if path == "" {
		conf = DefaultConfig(c.Logger)
	} else {
		conf, err = BuildFromFile(path, c.Logger)
	}
	if err != nil {
		report.add(CheckResult{
			Category: categoryConfig,
			Name:     "Valid Syntax",
			Status:   statusFail,
			Message:  fmt.Sprintf("Parse error: %v", err),
			Hints:    []string{fmt.Sprintf("Inspect with: suiteport validate --config=%s", path)},
		})
		return nil
	}
	report.add(CheckResult{Category: categoryConfig, Name: "Valid Syntax", Status: statusPass})

	if err := conf.Validate(); err != nil {
		report.add(CheckResult{
			Category: categoryConfig,
			Name:     "Valid Values",
			Status:   statusFail,
			Message:  err.Error(),
		})
		return nil
	}
	report.add(CheckResult{Category: categoryConfig, Name: "Valid Values", Status: statusPass})

	scenarios, _ := conf.SelectScenarios(nil)
	names := make([]string, 0, len(scenarios))
	for _, sc := range scenarios {
		names = append(names, sc.Name)
	}
	report.add(CheckResult{
		Category: categoryConfig,
		Name:     "Scenarios Defined",
		Status:   statusPass,
		Message:  fmt.Sprintf("%d scenario(s): %s", len(scenarios), strings.Join(names, ", ")),
	})
	return conf
}

func (c *DoctorCommand) checkTools(report *DoctorReport, conf *Config) {
	report.add(lookPathCheck("Test Runner", conf.Global.RunnerCommand))

	if conf.Global.SkipInstall {
		report.add(CheckResult{
			Category: categoryTools,
			Name:     "Installer",
			Status:   statusSkip,
			Message:  "Skipped (skip-install = true)",
		})
		return
	}
	report.add(lookPathCheck("Installer", conf.Global.InstallerCommand))
}

func lookPathCheck(name, line string) CheckResult {
	check := CheckResult{Category: categoryTools, Name: name}
	argv := args.GetArgs(line)
	if len(argv) == 0 {
		check.Status = statusFail
		check.Message = core.ErrEmptyCommand.Error()
		return check
	}
	bin, err := exec.LookPath(argv[0])
	if err != nil {
		check.Status = statusFail
		check.Message = fmt.Sprintf("%q not found in PATH", argv[0])
		check.Hints = []string{"Install it or set the full path in the config"}
		return check
	}
	check.Status = statusPass
	check.Message = bin
	return check
}

// checkCheckoutDir verifies the checkout's parent accepts new directories.
func (c *DoctorCommand) checkCheckoutDir(report *DoctorReport, conf *Config) {
	parent := filepath.Dir(filepath.Clean(conf.Global.CheckoutDir))
	check := CheckResult{Category: categoryCheckout, Name: "Parent Writable"}

	probe, err := os.MkdirTemp(parent, ".suiteport-doctor-")
	if err != nil {
		check.Status = statusFail
		check.Message = fmt.Sprintf("Cannot create directories in %s: %v", parent, err)
		check.Hints = []string{"Choose another checkout-dir or fix its permissions"}
		report.add(check)
		return
	}
	_ = os.Remove(probe)

	check.Status = statusPass
	check.Message = parent
	report.add(check)
}

func (c *DoctorCommand) checkRemote(report *DoctorReport, conf *Config) {
	scenarios, err := conf.SelectScenarios(nil)
	if err != nil {
		report.add(CheckResult{Category: categoryRemote, Name: "Versions", Status: statusFail, Message: err.Error()})
		return
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	url := conf.Global.RepositoryURL
	for _, sc := range scenarios {
		check := CheckResult{Category: categoryRemote, Name: fmt.Sprintf("%s (%s)", sc.Name, sc.Version)}

		var spinner *ProgressIndicator
		if !c.JSON {
			spinner = NewProgressIndicator(c.Logger, os.Stderr, fmt.Sprintf("Resolving %s on %s", sc.Version, url))
			spinner.Start()
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		ref, err := c.resolve(ctx, url, sc.Version)
		cancel()

		if spinner != nil {
			spinner.Stop(err == nil, check.Name)
		}

		if err != nil {
			check.Status = statusFail
			check.Message = err.Error()
			check.Hints = []string{fmt.Sprintf("Check that %q is a branch or tag of %s", sc.Version, url)}
		} else {
			check.Status = statusPass
			check.Message = ref.String()
		}
		report.add(check)
	}
}

func (c *DoctorCommand) outputJSON(report *DoctorReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintln(out, string(data))

	if !report.Healthy {
		return ErrHealthCheckFailed
	}
	return nil
}

func (c *DoctorCommand) outputHuman(report *DoctorReport) error {
	categories := make(map[string][]CheckResult)
	for _, check := range report.Checks {
		categories[check.Category] = append(categories[check.Category], check)
	}

	for _, category := range []string{categoryConfig, categoryTools, categoryCheckout, categoryRemote} {
		checks, ok := categories[category]
		if !ok {
			continue
		}
		c.Logger.Noticef("%s %s", getCategoryIcon(category), category)
		for _, check := range checks {
			if check.Message != "" {
				c.Logger.Noticef("  %s %s: %s", getStatusIcon(check.Status), check.Name, check.Message)
			} else {
				c.Logger.Noticef("  %s %s", getStatusIcon(check.Status), check.Name)
			}
			for _, hint := range check.Hints {
				c.Logger.Noticef("    → %s", hint)
			}
		}
	}

	failCount, skipCount := 0, 0
	for _, check := range report.Checks {
		switch check.Status {
		case statusFail:
			failCount++
		case statusSkip:
			skipCount++
		}
	}

	if report.Healthy {
		c.Logger.Noticef("Summary: All checks passed ✅")
		if skipCount > 0 {
			c.Logger.Noticef("  (%d check(s) skipped)", skipCount)
		}
		return nil
	}

	c.Logger.Noticef("Summary: %d issue(s) found ❌", failCount)
	return ErrHealthCheckFailed
}

func getCategoryIcon(category string) string {
	icons := map[string]string{
		categoryConfig:   "📋",
		categoryTools:    "🔧",
		categoryCheckout: "📁",
		categoryRemote:   "🌐",
	}
	if icon, ok := icons[category]; ok {
		return icon
	}
	return "📌"
}

func getStatusIcon(status string) string {
	switch status {
	case statusPass:
		return "✅"
	case statusFail:
		return "❌"
	case statusSkip:
		return "⚠️"
	default:
		return "❓"
	}
}
