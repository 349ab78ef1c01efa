package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/natefinch/atomic"

	"github.com/netresearch/suiteport/core"
)

// RunReport is the outcome of one `run` invocation.
type RunReport struct {
	Started   time.Time         `json:"started"`
	Duration  time.Duration     `json:"duration"`
	Passed    bool              `json:"passed"`
	Scenarios []*ScenarioReport `json:"scenarios"`
}

// ScenarioReport adds the tails of the runner output to a scenario report.
type ScenarioReport struct {
	*core.Report
	Passed bool   `json:"passed"`
	Stdout string `json:"stdout,omitempty"`
	Stderr string `json:"stderr,omitempty"`
}

func NewRunReport(start time.Time) *RunReport {
	return &RunReport{Started: start, Passed: true, Scenarios: []*ScenarioReport{}}
}

// Add records r; a report with any failing scenario does not pass.
func (rr *RunReport) Add(r *core.Report) {
	sr := &ScenarioReport{Report: r, Passed: r.Passed()}
	if r.Execution != nil {
		sr.Stdout = r.Execution.GetStdout()
		sr.Stderr = r.Execution.GetStderr()
	}
	if !sr.Passed {
		rr.Passed = false
	}
	rr.Scenarios = append(rr.Scenarios, sr)
}

// Failed returns the names of the scenarios that did not pass.
func (rr *RunReport) Failed() []string {
	var out []string
	for _, s := range rr.Scenarios {
		if !s.Passed {
			out = append(out, s.Scenario.Name)
		}
	}
	return out
}

// WriteReport replaces path with the JSON report in one rename, so readers
// never see a partial file.
func WriteReport(path string, rr *RunReport) error {
	data, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(append(data, '\n'))); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// PrintSummary writes one line per scenario and a total.
func PrintSummary(w io.Writer, rr *RunReport, colorize bool) {
	pass := color.New(color.FgGreen, color.Bold)
	fail := color.New(color.FgRed, color.Bold)
	dim := color.New(color.Faint)
	for _, c := range []*color.Color{pass, fail, dim} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	for _, s := range rr.Scenarios {
		status := pass.Sprint("PASS")
		if !s.Passed {
			status = fail.Sprint("FAIL")
		}

		detail := s.Stage.String()
		if s.Result != nil {
			detail = s.Result.Code.String()
		}
		if s.Execution != nil && s.Execution.Message != "" && s.Result == nil {
			detail += ": " + s.Execution.Message
		}

		var took time.Duration
		if s.Execution != nil {
			took = s.Execution.Duration.Round(time.Millisecond)
		}
		fmt.Fprintf(w, "%s %s @ %s %s %s\n", status, s.Scenario.Name, s.Scenario.Version, dim.Sprintf("(%s)", took), detail)
	}

	total := len(rr.Scenarios)
	failed := len(rr.Failed())
	if failed == 0 {
		fmt.Fprintln(w, pass.Sprintf("%d/%d scenario(s) passed", total, total))
		return
	}
	fmt.Fprintln(w, fail.Sprintf("%d/%d scenario(s) failed", failed, total))
}
