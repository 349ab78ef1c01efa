package cli

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netresearch/suiteport/test"
)

func TestProgressIndicator_NonTerminalLogs(t *testing.T) {
	logger := test.NewTestLogger()
	p := NewProgressIndicator(logger, &bytes.Buffer{}, "Resolving v3.0.2")
	require.False(t, p.isTerminal)

	p.Start()
	p.Start()
	p.Stop(true, "resolved")
	p.Stop(true, "resolved again")

	assert.True(t, logger.HasMessage("Resolving v3.0.2..."))
	assert.True(t, logger.HasMessage("✅ resolved"))
	assert.False(t, logger.HasMessage("resolved again"))
}

func TestProgressIndicator_FailureLogsError(t *testing.T) {
	logger := test.NewTestLogger()
	p := NewProgressIndicator(logger, &bytes.Buffer{}, "Cloning")

	p.Start()
	p.Stop(false, "clone failed")

	assert.True(t, logger.HasError("❌ clone failed"))
}

func TestProgressIndicator_TerminalWritesResult(t *testing.T) {
	var buf bytes.Buffer
	p := &ProgressIndicator{
		logger:     test.NewTestLogger(),
		writer:     &buf,
		message:    "Cloning",
		done:       make(chan struct{}),
		isTerminal: true,
	}

	p.Start()
	time.Sleep(150 * time.Millisecond)
	p.Stop(true, "cloned")

	assert.Contains(t, buf.String(), "Cloning")
	assert.Contains(t, buf.String(), "✅ cloned\n")
}

func TestProgressIndicator_Update(t *testing.T) {
	logger := test.NewTestLogger()
	p := NewProgressIndicator(logger, &bytes.Buffer{}, "first")

	p.Update("second")

	assert.Equal(t, "second", p.message)
	assert.True(t, logger.HasMessage("second..."))
}

func TestProgressIndicator_Restart(t *testing.T) {
	p := NewProgressIndicator(test.NewTestLogger(), &bytes.Buffer{}, "step")

	for range 3 {
		p.Start()
		p.Stop(true, "ok")
	}
	assert.False(t, p.started)
}

func TestProgressIndicator_Concurrency(t *testing.T) {
	p := &ProgressIndicator{
		logger:     test.NewTestLogger(),
		writer:     &bytes.Buffer{},
		message:    "busy",
		done:       make(chan struct{}),
		isTerminal: true,
	}
	p.Start()

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() { p.Update("still busy") })
	}
	wg.Wait()
	p.Stop(true, "done")
}

func TestProgressReporter_Step(t *testing.T) {
	logger := test.NewTestLogger()
	pr := NewProgressReporter(logger, &bytes.Buffer{}, 2)

	pr.Step(1, "Normal")
	pr.Step(2, "Baseline")

	assert.True(t, logger.HasMessage("[1/2] Normal"))
	assert.True(t, logger.HasMessage("[2/2] Baseline"))
	assert.Equal(t, 2, pr.currentStep)
}

func TestProgressReporter_TerminalBar(t *testing.T) {
	var buf bytes.Buffer
	pr := &ProgressReporter{logger: test.NewTestLogger(), writer: &buf, totalSteps: 4, isTerminal: true}

	pr.Step(2, "half")

	assert.Equal(t, "[2/4] ██████████░░░░░░░░░░ 50% half\n", buf.String())
}

func TestProgressReporter_ZeroSteps(t *testing.T) {
	logger := test.NewTestLogger()
	pr := NewProgressReporter(logger, &bytes.Buffer{}, 0)

	pr.Step(1, "nothing")

	assert.Empty(t, logger.Entries())
}

func TestRenderProgressBar(t *testing.T) {
	assert.Equal(t, "░░░░░░░░░░░░░░░░░░░░ 0%", renderProgressBar(0))
	assert.Equal(t, "████████████████████ 100%", renderProgressBar(100))
	assert.Equal(t, "████████████████████ 150%", renderProgressBar(150))
}
