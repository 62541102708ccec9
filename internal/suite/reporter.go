package suite

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stackprobe/internal/color"

	"github.com/mattn/go-runewidth"
)

// maxOutputWidth bounds each output line printed in debug mode
const maxOutputWidth = 160

// consoleReporter implements Reporter for humans
type consoleReporter struct {
	out        io.Writer
	verbose    bool
	debug      bool
	reportPath string
}

// NewConsoleReporter creates a reporter printing progress to out
func NewConsoleReporter(out io.Writer, verbose, debug bool, reportPath string) Reporter {
	return &consoleReporter{
		out:        out,
		verbose:    verbose,
		debug:      debug,
		reportPath: reportPath,
	}
}

func (r *consoleReporter) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

// ReportStart is called when the run begins
func (r *consoleReporter) ReportStart(config Configuration) {
	r.printf("%s\n", color.HeaderStyle.Render("🧪 Starting stackprobe scenarios"))
	r.printf("📂 Scenarios: %s\n", config.ScenarioPath)

	if r.verbose {
		r.printf("⚙️  Configuration:\n")
		r.printf("   • Scenario: %s\n", stringOrDefault(config.Scenario, "all"))
		r.printf("   • Tags: %s\n", stringOrDefault(strings.Join(config.Tags, ", "), "any"))
		r.printf("   • Fail fast: %t\n", config.FailFast)
		r.printf("   • Debug mode: %t\n", config.Debug)
		r.printf("   • Timeout: %v\n", config.Timeout)
		if config.ReportPath != "" {
			r.printf("   • Report path: %s\n", config.ReportPath)
		}
		r.printf("\n")
	}
}

// ReportScenarioStart is called when a scenario begins
func (r *consoleReporter) ReportScenarioStart(scenario Scenario) {
	if !r.verbose {
		r.printf("🎯 %s... ", scenario.Name)
		return
	}

	r.printf("🎯 Starting scenario: %s\n", scenario.Name)
	if scenario.Description != "" {
		r.printf("   📝 %s\n", scenario.Description)
	}
	if len(scenario.Tags) > 0 {
		r.printf("   🏷️  Tags: %s\n", strings.Join(scenario.Tags, ", "))
	}
	r.printf("   📋 Steps: %d\n", len(scenario.Steps))
	if len(scenario.Cleanup) > 0 {
		r.printf("   🧹 Cleanup steps: %d\n", len(scenario.Cleanup))
	}
	if scenario.Timeout > 0 {
		r.printf("   ⏱️  Timeout: %v\n", scenario.Timeout)
	}
	r.printf("\n")
}

// ReportStepResult is called when a step completes
func (r *consoleReporter) ReportStepResult(stepResult StepResult) {
	if !r.verbose {
		return
	}

	label := "Step"
	if stepResult.Cleanup {
		label = "Cleanup"
	}
	r.printf("   %s %s: %s (%v)\n",
		resultSymbol(stepResult.Result), label, stepResult.Step.Name, stepResult.Duration.Round(time.Millisecond))

	if stepResult.ExitCode != nil && *stepResult.ExitCode != 0 {
		r.printf("     ↩️  Exit code: %d\n", *stepResult.ExitCode)
	}
	if stepResult.Error != "" {
		r.printf("     %s\n", color.ForStatus(string(stepResult.Result)).Render("❌ Error: "+firstLine(stepResult.Error)))
	}
	if r.debug {
		for _, line := range stepResult.Output {
			r.printf("     %s\n", color.MutedStyle.Render(truncate(line, maxOutputWidth)))
		}
	}
}

// ReportScenarioResult is called when a scenario completes
func (r *consoleReporter) ReportScenarioResult(scenarioResult ScenarioResult) {
	symbol := resultSymbol(scenarioResult.Result)
	status := color.ForStatus(string(scenarioResult.Result)).Render(string(scenarioResult.Result))

	if scenarioResult.Result == ResultSkipped {
		r.printf("%s %s %s\n", symbol, scenarioResult.Scenario.Name, status)
		return
	}

	if !r.verbose {
		r.printf("%s %s (%v)\n", symbol, status, scenarioResult.Duration.Round(time.Millisecond))
		return
	}

	r.printf("%s Scenario completed: %s %s (%v)\n",
		symbol, scenarioResult.Scenario.Name, status, scenarioResult.Duration.Round(time.Millisecond))
	if scenarioResult.Error != "" {
		r.printf("   ❌ Error: %s\n", firstLine(scenarioResult.Error))
	}

	passed, failed, errored := 0, 0, 0
	for _, stepResult := range scenarioResult.StepResults {
		switch stepResult.Result {
		case ResultPassed:
			passed++
		case ResultFailed:
			failed++
		case ResultError, ResultInterrupted:
			errored++
		}
	}

	r.printf("   📊 Steps: %d passed", passed)
	if failed > 0 {
		r.printf(", %d failed", failed)
	}
	if errored > 0 {
		r.printf(", %d errors", errored)
	}
	r.printf("\n\n")
}

// ReportSuiteResult is called when the run completes
func (r *consoleReporter) ReportSuiteResult(suiteResult SuiteResult) {
	r.printf("\n%s\n", color.HeaderStyle.Render("🏁 Scenarios Complete"))
	r.printf("⏱️  Duration: %v\n", suiteResult.Duration.Round(time.Millisecond))
	r.printf("📊 Results:\n")
	r.printf("   ✅ Passed: %d\n", suiteResult.PassedScenarios)
	if suiteResult.FailedScenarios > 0 {
		r.printf("   ❌ Failed: %d\n", suiteResult.FailedScenarios)
	}
	if suiteResult.ErrorScenarios > 0 {
		r.printf("   💥 Errors: %d\n", suiteResult.ErrorScenarios)
	}
	if suiteResult.InterruptedScenarios > 0 {
		r.printf("   🛑 Interrupted: %d\n", suiteResult.InterruptedScenarios)
	}
	if suiteResult.SkippedScenarios > 0 {
		r.printf("   ⏭️  Skipped: %d\n", suiteResult.SkippedScenarios)
	}
	r.printf("   📈 Total: %d\n", suiteResult.TotalScenarios)

	successRate := 0.0
	if suiteResult.TotalScenarios > 0 {
		successRate = float64(suiteResult.PassedScenarios) / float64(suiteResult.TotalScenarios) * 100
	}
	r.printf("   📏 Success Rate: %.1f%%\n", successRate)

	switch {
	case suiteResult.Interrupted():
		r.printf("\n%s\n", color.WarningStyle.Render("🛑 Interrupted by the user"))
	case suiteResult.Succeeded():
		r.printf("\n%s\n", color.SuccessStyle.Render("🎉 All scenarios passed!"))
	default:
		r.printf("\n%s\n", color.FailureStyle.Render("💔 Some scenarios failed"))
	}

	if r.reportPath != "" {
		path, err := SaveReport(r.reportPath, suiteResult)
		if err != nil {
			r.printf("⚠️  Failed to save detailed report: %v\n", err)
		} else {
			r.printf("📄 Detailed report saved to: %s\n", path)
		}
	}
}

// SaveReport writes suiteResult as indented JSON into dir and returns the
// file path.
func SaveReport(dir string, suiteResult SuiteResult) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	timestamp := suiteResult.StartTime.Format("20060102-150405")
	if suiteResult.StartTime.IsZero() {
		timestamp = time.Now().Format("20060102-150405")
	}
	fullPath := filepath.Join(dir, fmt.Sprintf("stackprobe-report-%s.json", timestamp))

	jsonData, err := json.MarshalIndent(suiteResult, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	if err := os.WriteFile(fullPath, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return fullPath, nil
}

func resultSymbol(result Result) string {
	switch result {
	case ResultPassed:
		return "✅"
	case ResultFailed:
		return "❌"
	case ResultSkipped:
		return "⏭️"
	case ResultError:
		return "💥"
	case ResultInterrupted:
		return "🛑"
	default:
		return "❓"
	}
}

// truncate shortens s to width terminal cells
func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

func stringOrDefault(s, defaultValue string) string {
	if s == "" {
		return defaultValue
	}
	return s
}

// NewQuietReporter creates a reporter that only prints failures and a summary
func NewQuietReporter(out io.Writer) Reporter {
	return &quietReporter{out: out}
}

// quietReporter implements minimal output for CI
type quietReporter struct {
	out io.Writer
}

func (r *quietReporter) ReportStart(config Configuration) {}

func (r *quietReporter) ReportScenarioStart(scenario Scenario) {}

func (r *quietReporter) ReportStepResult(stepResult StepResult) {}

func (r *quietReporter) ReportScenarioResult(scenarioResult ScenarioResult) {
	switch scenarioResult.Result {
	case ResultFailed, ResultError, ResultInterrupted:
		fmt.Fprintf(r.out, "%s %s: %s\n",
			resultSymbol(scenarioResult.Result), scenarioResult.Scenario.Name, firstLine(scenarioResult.Error))
	}
}

func (r *quietReporter) ReportSuiteResult(suiteResult SuiteResult) {
	if suiteResult.Succeeded() {
		fmt.Fprintf(r.out, "✅ All %d scenarios passed\n", suiteResult.PassedScenarios)
		return
	}
	fmt.Fprintf(r.out, "❌ %d/%d scenarios failed\n",
		suiteResult.FailedScenarios+suiteResult.ErrorScenarios+suiteResult.InterruptedScenarios,
		suiteResult.TotalScenarios)
}

// NewJSONReporter creates a reporter printing the final result as JSON
func NewJSONReporter(out io.Writer) Reporter {
	return &jsonReporter{out: out}
}

// jsonReporter implements JSON output for machine consumption
type jsonReporter struct {
	out io.Writer
}

func (r *jsonReporter) ReportStart(config Configuration) {}

func (r *jsonReporter) ReportScenarioStart(scenario Scenario) {}

func (r *jsonReporter) ReportStepResult(stepResult StepResult) {}

func (r *jsonReporter) ReportScenarioResult(scenarioResult ScenarioResult) {}

func (r *jsonReporter) ReportSuiteResult(suiteResult SuiteResult) {
	jsonData, err := json.MarshalIndent(suiteResult, "", "  ")
	if err != nil {
		fmt.Fprintf(r.out, `{"error": "Failed to marshal results: %v"}`+"\n", err)
		return
	}
	fmt.Fprintln(r.out, string(jsonData))
}
