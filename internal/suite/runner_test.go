package suite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"stackprobe/internal/capture"
	"stackprobe/internal/config"
	"stackprobe/internal/executor"
	"stackprobe/internal/poller"
	"stackprobe/internal/scaffold"
	"stackprobe/internal/workflows"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRunner answers commands from a table and records what ran.
type scriptedRunner struct {
	output   map[string][]string
	exitCode map[string]int
	errs     map[string]error
	commands []string
}

func (s *scriptedRunner) Execute(_ context.Context, cmd executor.Command) (*executor.CommandResult, error) {
	s.commands = append(s.commands, cmd.Args)
	if err, ok := s.errs[cmd.Args]; ok {
		return &executor.CommandResult{Command: cmd, ExitCode: -1}, err
	}
	result := &executor.CommandResult{Command: cmd, ExitCode: s.exitCode[cmd.Args]}
	for _, l := range s.output[cmd.Args] {
		result.Lines = append(result.Lines, capture.Line{Channel: capture.ChannelCLIStdout, Text: l})
	}
	return result, executor.Assert(result, cmd.Expect...)
}

// recordingReporter keeps every callback for inspection.
type recordingReporter struct {
	started   bool
	scenarios []string
	steps     []StepResult
	results   []ScenarioResult
	suite     *SuiteResult
}

func (r *recordingReporter) ReportStart(Configuration) { r.started = true }

func (r *recordingReporter) ReportScenarioStart(s Scenario) { r.scenarios = append(r.scenarios, s.Name) }

func (r *recordingReporter) ReportStepResult(s StepResult) { r.steps = append(r.steps, s) }

func (r *recordingReporter) ReportScenarioResult(s ScenarioResult) {
	r.results = append(r.results, s)
}

func (r *recordingReporter) ReportSuiteResult(s SuiteResult) { r.suite = &s }

func newTestHarness(t *testing.T, runner *scriptedRunner) (Harness, config.HarnessConfig) {
	t.Helper()
	cfg := config.GetDefaultConfig()
	cfg.CLI.WorkDir = t.TempDir()
	cfg.Project.Root = t.TempDir()

	noSleep := func(context.Context, time.Duration) error { return nil }
	return Harness{
		Commands:  runner,
		Workflows: workflows.New(runner, cfg, workflows.WithSleep(noSleep)),
		Scaffold:  scaffold.NewGenerator(cfg.Project),
		Templates: scaffold.DefaultTemplates(),
		Retry:     poller.RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond},
	}, cfg
}

func intPtr(i int) *int { return &i }

func TestRun_PassingScenario(t *testing.T) {
	runner := &scriptedRunner{output: map[string][]string{
		"start":        {"Stack started"},
		"status":       {"backend | Running"},
		"remove --all": {"Stack removed"},
	}}
	harness, _ := newTestHarness(t, runner)
	reporter := &recordingReporter{}

	scenarios := []Scenario{{
		Name: "start",
		Steps: []Step{
			{Name: "start", Command: "start", Expect: []string{"Stack started"}, ExitCode: intPtr(0)},
			{Name: "wait", WaitUntil: &WaitSpec{Command: "status", Expected: "Running"}},
		},
		Cleanup: []Step{{Name: "remove", Command: "remove --all"}},
	}}

	result, err := NewRunner(harness, NewLoader(), reporter).Run(context.Background(), DefaultConfiguration(), scenarios)
	require.NoError(t, err)

	assert.True(t, result.Succeeded())
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 1, result.TotalScenarios)
	assert.Equal(t, 1, result.PassedScenarios)
	assert.Equal(t, []string{"start", "status", "remove --all"}, runner.commands)

	steps := result.ScenarioResults[0].StepResults
	require.Len(t, steps, 3)
	assert.Equal(t, []string{"Stack started"}, steps[0].Output)
	require.NotNil(t, steps[0].ExitCode)
	assert.Equal(t, 0, *steps[0].ExitCode)
	assert.False(t, steps[1].Cleanup)
	assert.True(t, steps[2].Cleanup)

	assert.True(t, reporter.started)
	assert.Equal(t, []string{"start"}, reporter.scenarios)
	assert.Len(t, reporter.steps, 3)
	require.NotNil(t, reporter.suite)
	assert.Equal(t, result.RunID, reporter.suite.RunID)
}

func TestRun_FailedStepStillRunsCleanup(t *testing.T) {
	runner := &scriptedRunner{output: map[string][]string{
		"start": {"Error: network not found"},
	}}
	harness, _ := newTestHarness(t, runner)

	scenarios := []Scenario{{
		Name: "start",
		Steps: []Step{
			{Name: "start", Command: "start", Expect: []string{"Stack started"}},
			{Name: "never", Command: "status"},
		},
		Cleanup: []Step{{Name: "remove", Command: "remove --all"}},
	}}

	result, err := NewRunner(harness, NewLoader(), &recordingReporter{}).Run(context.Background(), DefaultConfiguration(), scenarios)
	require.NoError(t, err)

	scenario := result.ScenarioResults[0]
	assert.Equal(t, ResultFailed, scenario.Result)
	assert.Contains(t, scenario.Error, "Stack started")
	assert.Equal(t, []string{"start", "remove --all"}, runner.commands)
	assert.Equal(t, 1, result.FailedScenarios)
	assert.False(t, result.Succeeded())
}

func TestRun_StepClassification(t *testing.T) {
	tests := []struct {
		name     string
		runner   *scriptedRunner
		step     Step
		expected Result
	}{
		{
			name:     "unexpected exit code fails",
			runner:   &scriptedRunner{exitCode: map[string]int{"status": 1}},
			step:     Step{Name: "s", Command: "status", ExitCode: intPtr(0)},
			expected: ResultFailed,
		},
		{
			name:     "expected non-zero exit code passes",
			runner:   &scriptedRunner{exitCode: map[string]int{"status": 2}},
			step:     Step{Name: "s", Command: "status", ExitCode: intPtr(2)},
			expected: ResultPassed,
		},
		{
			name:     "invocation timeout is an error",
			runner:   &scriptedRunner{errs: map[string]error{"status": executor.ErrInvocationTimeout}},
			step:     Step{Name: "s", Command: "status"},
			expected: ResultError,
		},
		{
			name:     "start failure is an error",
			runner:   &scriptedRunner{errs: map[string]error{"status": errors.New("exec: not found")}},
			step:     Step{Name: "s", Command: "status"},
			expected: ResultError,
		},
		{
			name:     "exhausted wait fails",
			runner:   &scriptedRunner{output: map[string][]string{"status": {"Starting"}}},
			step:     Step{Name: "s", WaitUntil: &WaitSpec{Command: "status", Expected: "Running", MaxAttempts: 2, Delay: time.Millisecond}},
			expected: ResultFailed,
		},
		{
			name:     "unknown step kind is an error",
			runner:   &scriptedRunner{},
			step:     Step{Name: "s"},
			expected: ResultError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			harness, _ := newTestHarness(t, tt.runner)
			scenarios := []Scenario{{Name: "x", Steps: []Step{tt.step}}}

			result, err := NewRunner(harness, NewLoader(), &recordingReporter{}).Run(context.Background(), DefaultConfiguration(), scenarios)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.ScenarioResults[0].Result)
		})
	}
}

func TestRun_WaitUntilUsesStepPolicy(t *testing.T) {
	runner := &scriptedRunner{output: map[string][]string{"status": {"Starting"}}}
	harness, _ := newTestHarness(t, runner)

	scenarios := []Scenario{{Name: "x", Steps: []Step{
		{Name: "wait", WaitUntil: &WaitSpec{Command: "status", Expected: "Running", MaxAttempts: 4}},
	}}}
	result, err := NewRunner(harness, NewLoader(), &recordingReporter{}).Run(context.Background(), DefaultConfiguration(), scenarios)
	require.NoError(t, err)

	assert.Len(t, runner.commands, 4)
	assert.Contains(t, result.ScenarioResults[0].Error, "after 4 retries")
}

func TestRun_InterruptStopsEverything(t *testing.T) {
	runner := &scriptedRunner{errs: map[string]error{"start": executor.ErrInterrupted}}
	harness, _ := newTestHarness(t, runner)

	scenarios := []Scenario{
		{
			Name:    "first",
			Steps:   []Step{{Name: "start", Command: "start"}},
			Cleanup: []Step{{Name: "remove", Command: "remove --all"}},
		},
		{Name: "second", Steps: []Step{{Name: "status", Command: "status"}}},
	}

	result, err := NewRunner(harness, NewLoader(), &recordingReporter{}).Run(context.Background(), DefaultConfiguration(), scenarios)
	require.NoError(t, err)

	assert.Equal(t, []string{"start"}, runner.commands, "cleanup and later scenarios must not run")
	assert.Equal(t, ResultInterrupted, result.ScenarioResults[0].Result)
	assert.Equal(t, ResultSkipped, result.ScenarioResults[1].Result)
	assert.True(t, result.Interrupted())
	assert.Equal(t, 1, result.SkippedScenarios)
}

func TestRun_CancelledContextIsInterrupt(t *testing.T) {
	runner := &scriptedRunner{errs: map[string]error{"status": context.Canceled}}
	harness, _ := newTestHarness(t, runner)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scenarios := []Scenario{{Name: "x", Steps: []Step{{Name: "s", Command: "status"}}}}
	result, err := NewRunner(harness, NewLoader(), &recordingReporter{}).Run(ctx, DefaultConfiguration(), scenarios)
	require.NoError(t, err)
	assert.Equal(t, ResultInterrupted, result.ScenarioResults[0].Result)
}

func TestRun_FailFast(t *testing.T) {
	runner := &scriptedRunner{}
	harness, _ := newTestHarness(t, runner)

	scenarios := []Scenario{
		{Name: "first", Steps: []Step{{Name: "s", Command: "start", Expect: []string{"Stack started"}}}},
		{Name: "second", Steps: []Step{{Name: "s", Command: "status"}}},
	}

	config := DefaultConfiguration()
	result, err := NewRunner(harness, NewLoader(), &recordingReporter{}).Run(context.Background(), config, scenarios)
	require.NoError(t, err)
	assert.Equal(t, ResultPassed, result.ScenarioResults[1].Result, "without fail fast the run continues")

	runner.commands = nil
	config.FailFast = true
	result, err = NewRunner(harness, NewLoader(), &recordingReporter{}).Run(context.Background(), config, scenarios)
	require.NoError(t, err)
	assert.Equal(t, []string{"start"}, runner.commands)
	assert.Equal(t, ResultSkipped, result.ScenarioResults[1].Result)
}

func TestRun_FiltersScenarios(t *testing.T) {
	runner := &scriptedRunner{}
	harness, _ := newTestHarness(t, runner)

	scenarios := []Scenario{
		{Name: "first", Tags: []string{"smoke"}, Steps: []Step{{Name: "s", Command: "start"}}},
		{Name: "second", Steps: []Step{{Name: "s", Command: "status"}}},
	}

	config := DefaultConfiguration()
	config.Tags = []string{"smoke"}
	result, err := NewRunner(harness, NewLoader(), &recordingReporter{}).Run(context.Background(), config, scenarios)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalScenarios)
	assert.Equal(t, []string{"start"}, runner.commands)
}

func TestRun_WorkflowStep(t *testing.T) {
	runner := &scriptedRunner{}
	harness, cfg := newTestHarness(t, runner)

	rc := "project_configuration:\n  variables:\n    env:\n      HEALTHCHECK_INTERVAL: 1s\n"
	require.NoError(t, os.WriteFile(filepath.Join(cfg.CLI.WorkDir, ".projectrc"), []byte(rc), 0644))

	scenarios := []Scenario{
		{Name: "match", Steps: []Step{{Name: "s", Workflow: &WorkflowSpec{
			Name: "projectrc_variable",
			Args: map[string]string{"name": "HEALTHCHECK_INTERVAL", "expect": "1s"},
		}}}},
		{Name: "mismatch", Steps: []Step{{Name: "s", Workflow: &WorkflowSpec{
			Name: "projectrc_variable",
			Args: map[string]string{"name": "HEALTHCHECK_INTERVAL", "expect": "5s"},
		}}}},
		{Name: "missing arg", Steps: []Step{{Name: "s", Workflow: &WorkflowSpec{Name: "verify_service"}}}},
	}

	result, err := NewRunner(harness, NewLoader(), &recordingReporter{}).Run(context.Background(), DefaultConfiguration(), scenarios)
	require.NoError(t, err)

	assert.Equal(t, ResultPassed, result.ScenarioResults[0].Result)
	assert.Equal(t, []string{"HEALTHCHECK_INTERVAL=1s"}, result.ScenarioResults[0].StepResults[0].Output)
	assert.Equal(t, ResultFailed, result.ScenarioResults[1].Result)
	assert.Equal(t, ResultError, result.ScenarioResults[2].Result)
	assert.Empty(t, runner.commands)
}

func TestRun_ScaffoldStep(t *testing.T) {
	harness, cfg := newTestHarness(t, &scriptedRunner{})

	scenarios := []Scenario{{Name: "x", Steps: []Step{
		{Name: "s", Scaffold: &ScaffoldSpec{Project: "demo", Endpoint: "MyEndpoint"}},
	}}}
	result, err := NewRunner(harness, NewLoader(), &recordingReporter{}).Run(context.Background(), DefaultConfiguration(), scenarios)
	require.NoError(t, err)
	require.Equal(t, ResultPassed, result.ScenarioResults[0].Result)

	files := result.ScenarioResults[0].StepResults[0].Output
	require.NotEmpty(t, files)
	for _, f := range files {
		assert.FileExists(t, f)
		assert.True(t, strings.HasPrefix(f, cfg.Project.Root))
	}
}

func TestNewFramework(t *testing.T) {
	cfg := config.GetDefaultConfig()
	framework, err := NewFramework(cfg, nil, &recordingReporter{})
	require.NoError(t, err)
	assert.NotNil(t, framework.Runner)
	assert.Equal(t, poller.PolicyFromConfig(cfg.Retry), framework.Harness.Retry)
	assert.NotEmpty(t, framework.Harness.Templates.Names)

	cfg.Project.TemplatesDir = filepath.Join(t.TempDir(), "missing")
	_, err = NewFramework(cfg, nil, &recordingReporter{})
	assert.Error(t, err)
}

func TestValidateConfiguration(t *testing.T) {
	assert.NoError(t, ValidateConfiguration(DefaultConfiguration()))
	assert.Error(t, ValidateConfiguration(Configuration{Timeout: time.Minute}))
	assert.Error(t, ValidateConfiguration(Configuration{ScenarioPath: "s"}))
}
