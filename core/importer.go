package core

import (
	"context"
	"fmt"
	"time"
)

// Stage is how far a scenario run got.
type Stage int

const (
	StageUnprepared Stage = iota
	StageFetched
	StageExecuted
)

func (s Stage) String() string {
	switch s {
	case StageUnprepared:
		return "unprepared"
	case StageFetched:
		return "fetched"
	case StageExecuted:
		return "executed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Settings are shared by every scenario of a run.
type Settings struct {
	RepositoryURL      string
	CheckoutDir        string
	OptimizationModule string
	// TailSize bounds the runner output kept per scenario.
	TailSize int64
	// Timeout bounds a whole scenario; zero disables it.
	Timeout time.Duration
}

// Report describes one scenario run.
type Report struct {
	Scenario     Scenario   `json:"scenario"`
	Stage        Stage      `json:"stage"`
	Optimization string     `json:"optimization"`
	Expression   string     `json:"expression"`
	Checkout     *Checkout  `json:"checkout,omitempty"`
	Result       *RunResult `json:"result,omitempty"`
	Execution    *Execution `json:"execution"`
}

// Passed reports whether the scenario ran to completion and the runner
// reported success.
func (r *Report) Passed() bool {
	return r.Stage == StageExecuted && r.Result.Passed() && (r.Execution == nil || !r.Execution.Failed)
}

// Importer runs scenarios: fetch the upstream, then run its suite.
type Importer struct {
	Settings    Settings
	Environment *Environment
	Fetcher     *Fetcher
	Runner      *TestRunner
	Logger      Logger
}

// Run executes sc. The returned report is never nil; err is non-nil when
// any step failed, including a runner that did not report success.
func (i *Importer) Run(ctx context.Context, sc Scenario) (*Report, error) {
	report := &Report{Scenario: sc, Stage: StageUnprepared}

	e, err := NewExecution(i.Settings.TailSize)
	if err != nil {
		return report, WrapScenarioError("start", sc.Name, err)
	}
	report.Execution = e
	e.Start()

	err = i.run(ctx, sc, report)
	e.Stop(err)

	log := scenarioLog{logger: i.Logger, scenario: sc.Name, id: e.ID}
	if err != nil {
		log.Errorf("failed at stage %s after %s: %v", report.Stage, e.Duration.Round(time.Millisecond), err)
		return report, WrapScenarioError("run", sc.Name, err)
	}
	log.Noticef("passed in %s", e.Duration.Round(time.Millisecond))
	return report, nil
}

func (i *Importer) run(ctx context.Context, sc Scenario, report *Report) error {
	log := scenarioLog{logger: i.Logger, scenario: sc.Name, id: report.Execution.ID}

	if err := sc.Validate(); err != nil {
		return err
	}
	expr, err := ExclusionExpression(sc.BlockedTests)
	if err != nil {
		return err
	}
	report.Expression = expr

	if i.Settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.Settings.Timeout)
		defer cancel()
	}

	src := Source{URL: i.Settings.RepositoryURL, Version: sc.Version, Dir: i.Settings.CheckoutDir}
	log.Noticef("fetching %s@%s", src.URL, src.Version)

	fetcher := *i.Fetcher
	fetcher.Logger = log
	co, err := fetcher.Fetch(ctx, src, i.Environment.Base)
	report.Checkout = co
	if err != nil {
		return err
	}
	report.Stage = StageFetched

	env := i.Environment.Apply(co.Dir)
	log.Debugf("%s=%v", i.Environment.Variable, i.Environment.SearchPath(co.Dir))

	opt := SelectOptimization(sc.WithoutOptimization, i.Settings.OptimizationModule)
	report.Optimization = opt.Name()
	log.Noticef("running suite in %s (optimization: %s, selection: %q)", co.Dir, opt.Name(), expr)

	result, err := i.Runner.Run(ctx, co.Dir, env, expr, opt, report.Execution)
	if err != nil {
		return err
	}
	report.Result = result
	report.Stage = StageExecuted
	log.Noticef("runner finished with %s in %s", result.Code, result.Duration.Round(time.Millisecond))

	return result.Verify()
}
