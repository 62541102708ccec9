package tui

import (
	"stackprobe/internal/suite"

	tea "github.com/charmbracelet/bubbletea"
)

// Reporter forwards suite progress to a running program.
type Reporter struct {
	send func(tea.Msg)
}

// NewReporter creates a Reporter delivering messages through send, usually
// (*tea.Program).Send.
func NewReporter(send func(tea.Msg)) *Reporter {
	return &Reporter{send: send}
}

func (r *Reporter) ReportStart(config suite.Configuration) {
	r.send(RunStartedMsg{Config: config})
}

func (r *Reporter) ReportScenarioStart(scenario suite.Scenario) {
	r.send(ScenarioStartedMsg{Scenario: scenario})
}

func (r *Reporter) ReportStepResult(stepResult suite.StepResult) {
	r.send(StepDoneMsg{Result: stepResult})
}

func (r *Reporter) ReportScenarioResult(scenarioResult suite.ScenarioResult) {
	r.send(ScenarioDoneMsg{Result: scenarioResult})
}

func (r *Reporter) ReportSuiteResult(suiteResult suite.SuiteResult) {
	r.send(SuiteDoneMsg{Result: suiteResult})
}

var _ suite.Reporter = (*Reporter)(nil)
