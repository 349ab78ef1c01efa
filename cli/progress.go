package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/netresearch/suiteport/core"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ProgressIndicator shows a spinner on a terminal and plain log lines
// elsewhere.
type ProgressIndicator struct {
	logger     core.Logger
	writer     io.Writer
	message    string
	done       chan struct{}
	mu         sync.Mutex
	isTerminal bool
	ticker     *time.Ticker
	started    bool
	wg         sync.WaitGroup
}

func NewProgressIndicator(logger core.Logger, w io.Writer, message string) *ProgressIndicator {
	return &ProgressIndicator{
		logger:     logger,
		writer:     w,
		message:    message,
		done:       make(chan struct{}),
		isTerminal: isTerminal(w),
	}
}

func (p *ProgressIndicator) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}
	p.started = true

	if !p.isTerminal {
		p.logger.Noticef("%s...", p.message)
		return
	}

	p.ticker = time.NewTicker(100 * time.Millisecond)
	tick, done := p.ticker.C, p.done
	p.wg.Go(func() { p.animate(tick, done) })
}

// Stop ends the spinner and prints the outcome. Calling it twice is a no-op.
func (p *ProgressIndicator) Stop(success bool, resultMsg string) {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	close(p.done)
	p.done = make(chan struct{})
	if p.ticker != nil {
		p.ticker.Stop()
		p.ticker = nil
	}
	p.mu.Unlock()

	// the spinner must not write after the result line
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isTerminal {
		if success {
			p.logger.Noticef("✅ %s", resultMsg)
		} else {
			p.logger.Errorf("❌ %s", resultMsg)
		}
		return
	}

	p.clearLine()
	if success {
		fmt.Fprintf(p.writer, "✅ %s\n", resultMsg)
	} else {
		fmt.Fprintf(p.writer, "❌ %s\n", resultMsg)
	}
}

func (p *ProgressIndicator) Update(newMessage string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isTerminal {
		p.logger.Noticef("%s...", newMessage)
		p.message = newMessage
		return
	}

	p.clearLine()
	p.message = newMessage
}

func (p *ProgressIndicator) clearLine() {
	fmt.Fprintf(p.writer, "\r%s\r", strings.Repeat(" ", len(p.message)+10))
}

func (p *ProgressIndicator) animate(tick <-chan time.Time, done <-chan struct{}) {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	i := 0
	for {
		select {
		case <-done:
			return
		case <-tick:
			p.mu.Lock()
			fmt.Fprintf(p.writer, "\r%s %s", frames[i], p.message)
			p.mu.Unlock()
			i = (i + 1) % len(frames)
		}
	}
}

// ProgressReporter reports progress across the scenarios of a run.
type ProgressReporter struct {
	logger      core.Logger
	writer      io.Writer
	totalSteps  int
	currentStep int
	mu          sync.Mutex
	isTerminal  bool
}

func NewProgressReporter(logger core.Logger, w io.Writer, totalSteps int) *ProgressReporter {
	return &ProgressReporter{
		logger:     logger,
		writer:     w,
		totalSteps: totalSteps,
		isTerminal: isTerminal(w),
	}
}

func (pr *ProgressReporter) Step(stepNum int, message string) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	pr.currentStep = stepNum
	if pr.totalSteps == 0 {
		return
	}

	if !pr.isTerminal {
		pr.logger.Noticef("[%d/%d] %s", stepNum, pr.totalSteps, message)
		return
	}

	percent := float64(stepNum) / float64(pr.totalSteps) * 100
	fmt.Fprintf(pr.writer, "[%d/%d] %s %s\n", stepNum, pr.totalSteps, renderProgressBar(percent), message)
}

func renderProgressBar(percent float64) string {
	const barWidth = 20
	filled := min(int(percent/100.0*barWidth), barWidth)
	filled = max(filled, 0)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	return fmt.Sprintf("%s %.0f%%", bar, percent)
}
