package suite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stackprobe/internal/executor"
	"stackprobe/internal/poller"
	"stackprobe/internal/scaffold"
	"stackprobe/internal/workflows"
	"stackprobe/pkg/logging"

	"github.com/google/uuid"
)

// Harness holds the components steps are executed with.
type Harness struct {
	Commands  executor.Runner
	Workflows *workflows.Workflows
	Scaffold  *scaffold.Generator
	Templates scaffold.TemplateSet
	Retry     poller.RetryPolicy
}

// scenarioRunner implements Runner
type scenarioRunner struct {
	harness  Harness
	loader   Loader
	reporter Reporter
}

// NewRunner creates a Runner executing steps with harness.
func NewRunner(harness Harness, loader Loader, reporter Reporter) Runner {
	return &scenarioRunner{harness: harness, loader: loader, reporter: reporter}
}

// Run executes the selected scenarios strictly one after another.
func (r *scenarioRunner) Run(ctx context.Context, config Configuration, scenarios []Scenario) (*SuiteResult, error) {
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	result := &SuiteResult{
		RunID:         uuid.NewString(),
		StartTime:     time.Now(),
		Configuration: config,
	}

	r.reporter.ReportStart(config)

	selected := r.loader.FilterScenarios(scenarios, config)
	result.TotalScenarios = len(selected)
	result.ScenarioResults = make([]ScenarioResult, 0, len(selected))

	stopped := false
	for _, scenario := range selected {
		if stopped {
			skipped := ScenarioResult{Scenario: scenario, Result: ResultSkipped}
			result.ScenarioResults = append(result.ScenarioResults, skipped)
			updateCounters(result, skipped)
			r.reporter.ReportScenarioResult(skipped)
			continue
		}

		scenarioResult := r.runScenario(ctx, scenario)
		result.ScenarioResults = append(result.ScenarioResults, scenarioResult)
		updateCounters(result, scenarioResult)
		r.reporter.ReportScenarioResult(scenarioResult)

		switch {
		case scenarioResult.Result == ResultInterrupted:
			stopped = true
		case config.FailFast && (scenarioResult.Result == ResultFailed || scenarioResult.Result == ResultError):
			stopped = true
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	r.reporter.ReportSuiteResult(*result)
	return result, nil
}

// runScenario executes a single scenario
func (r *scenarioRunner) runScenario(ctx context.Context, scenario Scenario) ScenarioResult {
	result := ScenarioResult{
		Scenario:    scenario,
		StartTime:   time.Now(),
		StepResults: make([]StepResult, 0, len(scenario.Steps)+len(scenario.Cleanup)),
		Result:      ResultPassed,
	}

	r.reporter.ReportScenarioStart(scenario)

	scenarioCtx := ctx
	if scenario.Timeout > 0 {
		var cancel context.CancelFunc
		scenarioCtx, cancel = context.WithTimeout(ctx, scenario.Timeout)
		defer cancel()
	}

	for _, step := range scenario.Steps {
		stepResult := r.runStep(scenarioCtx, step)
		result.StepResults = append(result.StepResults, stepResult)
		r.reporter.ReportStepResult(stepResult)

		if stepResult.Result != ResultPassed {
			result.Result = stepResult.Result
			result.Error = stepResult.Error
			break
		}
	}

	// An interrupted run stops right away; cleanup would only be cancelled too.
	if result.Result != ResultInterrupted {
		for _, cleanupStep := range scenario.Cleanup {
			stepResult := r.runStep(scenarioCtx, cleanupStep)
			stepResult.Cleanup = true
			result.StepResults = append(result.StepResults, stepResult)
			r.reporter.ReportStepResult(stepResult)

			if stepResult.Result != ResultPassed && result.Result == ResultPassed {
				result.Result = stepResult.Result
				result.Error = stepResult.Error
			}
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	return result
}

// runStep executes a single step
func (r *scenarioRunner) runStep(ctx context.Context, step Step) StepResult {
	result := StepResult{
		Step:      step,
		StartTime: time.Now(),
		Result:    ResultPassed,
	}

	stepCtx := ctx
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	var err error
	switch step.Kind() {
	case StepCommand:
		err = r.runCommand(stepCtx, step, &result)
	case StepWaitUntil:
		err = r.runWaitUntil(stepCtx, step, &result)
	case StepWorkflow:
		err = r.runWorkflow(stepCtx, step, &result)
	case StepScaffold:
		err = r.runScaffold(step, &result)
	default:
		err = fmt.Errorf("step %q has no single action", step.Name)
	}

	if err != nil {
		result.Result = classify(ctx, err)
		result.Error = err.Error()
		logging.Debug("Suite", "Step %q: %s: %v", step.Name, result.Result, err)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	return result
}

func (r *scenarioRunner) runCommand(ctx context.Context, step Step, result *StepResult) error {
	res, err := r.harness.Commands.Execute(ctx, executor.NewCommand(step.Command, step.Expect...))
	if res != nil {
		exitCode := res.ExitCode
		result.ExitCode = &exitCode
		result.Output = res.Output()
	}
	if err != nil {
		return err
	}
	if step.ExitCode != nil && *step.ExitCode != res.ExitCode {
		return &expectationError{fmt.Sprintf("exit code %d, expected %d", res.ExitCode, *step.ExitCode)}
	}
	return nil
}

func (r *scenarioRunner) runWaitUntil(ctx context.Context, step Step, result *StepResult) error {
	policy := r.harness.Retry
	if policy.MaxAttempts == 0 {
		policy = poller.DefaultPolicy()
	}
	if step.WaitUntil.MaxAttempts > 0 {
		policy.MaxAttempts = step.WaitUntil.MaxAttempts
	}
	if step.WaitUntil.Delay > 0 {
		policy.Delay = step.WaitUntil.Delay
	}

	_, err := poller.New(r.harness.Commands).Poll(ctx, executor.NewCommand(step.WaitUntil.Command), step.WaitUntil.Expected, policy)
	if err == nil {
		result.Output = []string{fmt.Sprintf("found %q", step.WaitUntil.Expected)}
	}
	return err
}

func (r *scenarioRunner) runWorkflow(ctx context.Context, step Step, result *StepResult) error {
	run, ok := workflowSteps[step.Workflow.Name]
	if !ok {
		return fmt.Errorf("unknown workflow %q", step.Workflow.Name)
	}
	if r.harness.Workflows == nil {
		return fmt.Errorf("workflows are not available")
	}
	output, err := run(ctx, r.harness.Workflows, step.Workflow.Args)
	result.Output = output
	return err
}

func (r *scenarioRunner) runScaffold(step Step, result *StepResult) error {
	if r.harness.Scaffold == nil {
		return fmt.Errorf("scaffolding is not available")
	}
	job, err := r.harness.Scaffold.Generate(step.Scaffold.Project, step.Scaffold.Endpoint, r.harness.Templates)
	if err != nil {
		return err
	}
	result.Output = job.Files
	return nil
}

// classify maps a step error to a result. Unmet expectations fail the step;
// anything that kept the harness from checking them is an error.
func classify(ctx context.Context, err error) Result {
	var exhausted *poller.RetryExhaustedError
	var expectation *expectationError
	switch {
	case errors.Is(err, executor.ErrInterrupted), errors.Is(ctx.Err(), context.Canceled):
		return ResultInterrupted
	case executor.IsVerificationError(err), errors.As(err, &exhausted), errors.As(err, &expectation):
		return ResultFailed
	default:
		return ResultError
	}
}

// updateCounters updates the result counters based on a scenario result
func updateCounters(suiteResult *SuiteResult, scenarioResult ScenarioResult) {
	switch scenarioResult.Result {
	case ResultPassed:
		suiteResult.PassedScenarios++
	case ResultFailed:
		suiteResult.FailedScenarios++
	case ResultSkipped:
		suiteResult.SkippedScenarios++
	case ResultError:
		suiteResult.ErrorScenarios++
	case ResultInterrupted:
		suiteResult.InterruptedScenarios++
	}
}
