package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netresearch/suiteport/core"
)

func executedReport(t *testing.T, name string, code core.ExitCode) *core.Report {
	t.Helper()

	e, err := core.NewExecution(1024)
	require.NoError(t, err)
	e.Start()
	_, _ = e.OutputStream.Write([]byte("collected 1 item\n"))
	result := &core.RunResult{Code: code}
	e.Stop(result.Verify())

	return &core.Report{
		Scenario:  core.Scenario{Name: name, Version: "v3.0.2"},
		Stage:     core.StageExecuted,
		Result:    result,
		Execution: e,
	}
}

func TestRunReportAdd(t *testing.T) {
	rr := NewRunReport(time.Now())

	rr.Add(executedReport(t, "Normal", core.ExitOK))
	assert.True(t, rr.Passed)
	assert.Empty(t, rr.Failed())
	assert.Equal(t, "collected 1 item\n", rr.Scenarios[0].Stdout)

	rr.Add(executedReport(t, "Baseline", core.ExitTestsFailed))
	assert.False(t, rr.Passed)
	assert.Equal(t, []string{"Baseline"}, rr.Failed())
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	rr := NewRunReport(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	rr.Add(executedReport(t, "Normal", core.ExitOK))

	require.NoError(t, WriteReport(path, rr))
	require.NoError(t, WriteReport(path, rr))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, true, got["passed"])
	assert.Equal(t, "2026-01-02T03:04:05Z", got["started"])

	scenarios, ok := got["scenarios"].([]any)
	require.True(t, ok)
	require.Len(t, scenarios, 1)
	first, ok := scenarios[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "executed", first["stage"])
	assert.Equal(t, "collected 1 item\n", first["stdout"])

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteReportMissingDir(t *testing.T) {
	err := WriteReport(filepath.Join(t.TempDir(), "missing", "report.json"), NewRunReport(time.Now()))
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	rr := NewRunReport(time.Now())
	rr.Add(executedReport(t, "Normal", core.ExitOK))
	rr.Add(executedReport(t, "Baseline", core.ExitNoTestsCollected))

	e, err := core.NewExecution(0)
	require.NoError(t, err)
	e.Start()
	e.Stop(errors.New("clone failed"))
	rr.Add(&core.Report{
		Scenario:  core.Scenario{Name: "Broken", Version: "v9"},
		Stage:     core.StageUnprepared,
		Execution: e,
	})

	var buf bytes.Buffer
	PrintSummary(&buf, rr, false)
	out := buf.String()

	assert.Contains(t, out, "PASS Normal @ v3.0.2")
	assert.Contains(t, out, "ExitCode.OK\n")
	assert.Contains(t, out, "FAIL Baseline @ v3.0.2")
	assert.Contains(t, out, "ExitCode.NO_TESTS_COLLECTED\n")
	assert.Contains(t, out, "FAIL Broken @ v9")
	assert.Contains(t, out, "unprepared: clone failed\n")
	assert.Contains(t, out, "2/3 scenario(s) failed\n")
	assert.NotContains(t, out, "\x1b[")
}

func TestPrintSummaryColor(t *testing.T) {
	rr := NewRunReport(time.Now())
	rr.Add(executedReport(t, "Normal", core.ExitOK))

	var buf bytes.Buffer
	PrintSummary(&buf, rr, true)

	out := buf.String()
	assert.Contains(t, out, "\x1b[32;1mPASS\x1b[0;22m")
	// the total line is reset before the newline
	assert.True(t, strings.HasSuffix(out, "\x1b[32;1m1/1 scenario(s) passed\x1b[0;22m\n"), "got %q", out)
}

func TestRunReportAddWithoutExecution(t *testing.T) {
	rr := NewRunReport(time.Now())
	require.NotPanics(t, func() {
		rr.Add(&core.Report{Scenario: core.Scenario{Name: "Normal", Version: "v3.0.2"}})
	})

	assert.False(t, rr.Passed)
	assert.Equal(t, []string{"Normal"}, rr.Failed())

	var buf bytes.Buffer
	PrintSummary(&buf, rr, false)
	assert.Contains(t, buf.String(), "FAIL Normal @ v3.0.2 (0s) unprepared\n")
}
