package suite

import (
	"context"
	"time"
)

// Result is the outcome of a step, a scenario or a run
type Result string

const (
	// ResultPassed indicates every expectation held
	ResultPassed Result = "PASSED"
	// ResultFailed indicates an expectation did not hold
	ResultFailed Result = "FAILED"
	// ResultSkipped indicates the scenario was not executed
	ResultSkipped Result = "SKIPPED"
	// ResultError indicates the harness could not carry out a step
	ResultError Result = "ERROR"
	// ResultInterrupted indicates the operator stopped the run
	ResultInterrupted Result = "INTERRUPTED"
)

// StepKind names what a step does
type StepKind string

const (
	StepCommand   StepKind = "command"
	StepWaitUntil StepKind = "wait_until"
	StepWorkflow  StepKind = "workflow"
	StepScaffold  StepKind = "scaffold"
)

// Configuration controls a suite run
type Configuration struct {
	// ScenarioPath is a scenario file or a directory of them
	ScenarioPath string `yaml:"scenario_path" json:"scenario_path"`
	// Scenario restricts the run to scenarios with this name
	Scenario string `yaml:"scenario,omitempty" json:"scenario,omitempty"`
	// Tags restricts the run to scenarios carrying any of these tags
	Tags []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	// FailFast stops the run after the first failing scenario
	FailFast bool `yaml:"fail_fast" json:"fail_fast"`
	// Timeout bounds the whole run
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// Verbose prints every step
	Verbose bool `yaml:"verbose" json:"verbose"`
	// Debug prints step output as well
	Debug bool `yaml:"debug" json:"debug"`
	// ReportPath is a directory receiving a JSON report after the run
	ReportPath string `yaml:"report_path,omitempty" json:"report_path,omitempty"`
}

// Scenario is a named sequence of steps run against one environment
type Scenario struct {
	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string      `yaml:"tags,omitempty" json:"tags,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Steps       []Step        `yaml:"steps" json:"steps"`
	// Cleanup steps run after Steps regardless of their outcome
	Cleanup []Step `yaml:"cleanup,omitempty" json:"cleanup,omitempty"`
}

// Step is a single action. Exactly one of Command, WaitUntil, Workflow and
// Scaffold must be set.
type Step struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Command is a CLI argument string
	Command string `yaml:"command,omitempty" json:"command,omitempty"`
	// Expect lists markers the command output must contain
	Expect []string `yaml:"expect,omitempty" json:"expect,omitempty"`
	// ExitCode, when set, must equal the command's exit code
	ExitCode *int `yaml:"exit_code,omitempty" json:"exit_code,omitempty"`

	WaitUntil *WaitSpec     `yaml:"wait_until,omitempty" json:"wait_until,omitempty"`
	Workflow  *WorkflowSpec `yaml:"workflow,omitempty" json:"workflow,omitempty"`
	Scaffold  *ScaffoldSpec `yaml:"scaffold,omitempty" json:"scaffold,omitempty"`

	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// Kind reports which action the step performs, or "" when none or several
// are set.
func (s Step) Kind() StepKind {
	var kinds []StepKind
	if s.Command != "" {
		kinds = append(kinds, StepCommand)
	}
	if s.WaitUntil != nil {
		kinds = append(kinds, StepWaitUntil)
	}
	if s.Workflow != nil {
		kinds = append(kinds, StepWorkflow)
	}
	if s.Scaffold != nil {
		kinds = append(kinds, StepScaffold)
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// WaitSpec polls a command until its output contains Expected
type WaitSpec struct {
	Command     string        `yaml:"command" json:"command"`
	Expected    string        `yaml:"expected" json:"expected"`
	MaxAttempts int           `yaml:"max_attempts,omitempty" json:"max_attempts,omitempty"`
	Delay       time.Duration `yaml:"delay,omitempty" json:"delay,omitempty"`
}

// WorkflowSpec runs a named high-level workflow
type WorkflowSpec struct {
	Name string            `yaml:"name" json:"name"`
	Args map[string]string `yaml:"args,omitempty" json:"args,omitempty"`
}

// ScaffoldSpec generates an endpoint skeleton
type ScaffoldSpec struct {
	Project  string `yaml:"project" json:"project"`
	Endpoint string `yaml:"endpoint" json:"endpoint"`
}

// StepResult is the outcome of one step
type StepResult struct {
	Step      Step          `json:"step"`
	Cleanup   bool          `json:"cleanup,omitempty"`
	Result    Result        `json:"result"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	ExitCode  *int          `json:"exit_code,omitempty"`
	Output    []string      `json:"output,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// ScenarioResult is the outcome of one scenario
type ScenarioResult struct {
	Scenario    Scenario      `json:"scenario"`
	Result      Result        `json:"result"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Duration    time.Duration `json:"duration"`
	StepResults []StepResult  `json:"step_results"`
	Error       string        `json:"error,omitempty"`
}

// SuiteResult is the outcome of a whole run
type SuiteResult struct {
	RunID                string           `json:"run_id"`
	StartTime            time.Time        `json:"start_time"`
	EndTime              time.Time        `json:"end_time"`
	Duration             time.Duration    `json:"duration"`
	TotalScenarios       int              `json:"total_scenarios"`
	PassedScenarios      int              `json:"passed_scenarios"`
	FailedScenarios      int              `json:"failed_scenarios"`
	SkippedScenarios     int              `json:"skipped_scenarios"`
	ErrorScenarios       int              `json:"error_scenarios"`
	InterruptedScenarios int              `json:"interrupted_scenarios"`
	ScenarioResults      []ScenarioResult `json:"scenario_results"`
	Configuration        Configuration    `json:"configuration"`
}

// Succeeded reports whether no scenario failed, errored or was interrupted.
func (r SuiteResult) Succeeded() bool {
	return r.FailedScenarios == 0 && r.ErrorScenarios == 0 && r.InterruptedScenarios == 0
}

// Interrupted reports whether the operator stopped the run.
func (r SuiteResult) Interrupted() bool {
	return r.InterruptedScenarios > 0
}

// Runner executes scenarios
type Runner interface {
	// Run executes the scenarios selected by config, one at a time
	Run(ctx context.Context, config Configuration, scenarios []Scenario) (*SuiteResult, error)
}

// Loader reads scenario definitions
type Loader interface {
	// LoadScenarios loads scenarios from a file or a directory
	LoadScenarios(path string) ([]Scenario, error)
	// FilterScenarios keeps the scenarios selected by config
	FilterScenarios(scenarios []Scenario, config Configuration) []Scenario
}

// Reporter receives progress of a run
type Reporter interface {
	// ReportStart is called when the run begins
	ReportStart(config Configuration)
	// ReportScenarioStart is called when a scenario begins
	ReportScenarioStart(scenario Scenario)
	// ReportStepResult is called when a step completes
	ReportStepResult(stepResult StepResult)
	// ReportScenarioResult is called when a scenario completes
	ReportScenarioResult(scenarioResult ScenarioResult)
	// ReportSuiteResult is called when the run completes
	ReportSuiteResult(suiteResult SuiteResult)
}
