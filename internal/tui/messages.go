package tui

import (
	"stackprobe/internal/suite"
	"stackprobe/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
)

// RunStartedMsg is sent when the run begins.
type RunStartedMsg struct {
	Config suite.Configuration
}

// ScenarioStartedMsg is sent when a scenario begins.
type ScenarioStartedMsg struct {
	Scenario suite.Scenario
}

// StepDoneMsg is sent when a step completes.
type StepDoneMsg struct {
	Result suite.StepResult
}

// ScenarioDoneMsg is sent when a scenario completes.
type ScenarioDoneMsg struct {
	Result suite.ScenarioResult
}

// SuiteDoneMsg carries the final result.
type SuiteDoneMsg struct {
	Result suite.SuiteResult
}

// RunFinishedMsg is sent once the run function returned.
type RunFinishedMsg struct {
	Err error
}

// LogEntryMsg wraps an entry read from the logging TUI channel.
type LogEntryMsg struct {
	Entry logging.LogEntry
}

// clipboardResultMsg reports the outcome of copying the log.
type clipboardResultMsg struct {
	err error
}

// ListenForLogEntriesCmd reads one entry from ch. It must be re-issued after
// every LogEntryMsg; it returns nil once ch is closed.
func ListenForLogEntriesCmd(ch <-chan logging.LogEntry) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return nil
		}
		return LogEntryMsg{Entry: entry}
	}
}
