package tui

import (
	"context"
	"fmt"

	"stackprobe/internal/suite"
	"stackprobe/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
)

// RunFunc executes a suite and reports progress to reporter.
type RunFunc func(ctx context.Context, reporter suite.Reporter) (*suite.SuiteResult, error)

// Run shows the run view while run executes and returns its outcome. Quitting
// the view before the run finished cancels the context passed to run, which
// the harness treats as an operator interrupt.
func Run(ctx context.Context, logChannel <-chan logging.LogEntry, run RunFunc, opts ...tea.ProgramOption) (*suite.SuiteResult, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(logChannel, cancel)
	p := tea.NewProgram(m, opts...)

	var (
		result *suite.SuiteResult
		runErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		result, runErr = run(runCtx, NewReporter(p.Send))
		p.Send(RunFinishedMsg{Err: runErr})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return result, fmt.Errorf("run view failed: %w", err)
	}

	// The view may be closed while the run is still unwinding.
	cancel()
	<-done
	return result, runErr
}
