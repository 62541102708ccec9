package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"stackprobe/internal/executor"
	"stackprobe/internal/repository"
	"stackprobe/internal/suite"

	"github.com/anmitsu/go-shlex"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinArgs_RoundTripsThroughShellSplitting(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "plain words", args: []string{"create", "demo", "--auth", "neo4j"}},
		{name: "spaces", args: []string{"shell", "backend", "restapi verify --service neo4j"}},
		{name: "single quote", args: []string{"echo", "it's"}},
		{name: "mixed quotes", args: []string{"echo", `say "it's"`}},
		{name: "backslash", args: []string{"echo", `a\b c`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split, err := shlex.Split(joinArgs(tt.args), true)
			require.NoError(t, err)
			assert.Equal(t, tt.args, split)
		})
	}
}

func TestJoinArgs_SingleArgumentIsKept(t *testing.T) {
	assert.Equal(t, "shell backend 'restapi verify'", joinArgs([]string{"shell backend 'restapi verify'"}))
}

func TestQuoteArg(t *testing.T) {
	assert.Equal(t, "plain", quoteArg("plain"))
	assert.Equal(t, "''", quoteArg(""))
	assert.Equal(t, "'two words'", quoteArg("two words"))
	assert.Equal(t, `"it's"`, quoteArg("it's"))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: 0},
		{name: "interrupt", err: fmt.Errorf("step: %w", executor.ErrInterrupted), want: exitInterrupted},
		{name: "cancelled", err: context.Canceled, want: exitInterrupted},
		{name: "precondition", err: &repository.PreconditionError{Repository: "core", Path: "/tmp/core", Reason: "missing"}, want: exitPrecondition},
		{name: "failure", err: errors.New("boom"), want: exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestSuiteOutcome(t *testing.T) {
	assert.NoError(t, suiteOutcome(nil))
	assert.NoError(t, suiteOutcome(&suite.SuiteResult{TotalScenarios: 2, PassedScenarios: 2}))
	assert.ErrorIs(t, suiteOutcome(&suite.SuiteResult{TotalScenarios: 2, InterruptedScenarios: 1}), executor.ErrInterrupted)

	err := suiteOutcome(&suite.SuiteResult{TotalScenarios: 3, PassedScenarios: 1, FailedScenarios: 1, ErrorScenarios: 1})
	require.Error(t, err)
	assert.Equal(t, "2 of 3 scenario(s) did not pass", err.Error())
}

// withEchoConfig points the commands at a configuration driving echo as
// the CLI.
func withEchoConfig(t *testing.T) string {
	t.Helper()
	if _, err := os.Stat("/bin/echo"); err != nil {
		t.Skip("/bin/echo not available")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`cli:
  binary: /bin/echo
  workDir: %s
  timeout: 10s
project:
  root: %s
repository:
  root: %s
retry:
  maxAttempts: 2
  delay: 1ms
`, dir, filepath.Join(dir, "projects"), dir)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	original := configPath
	configPath = path
	t.Cleanup(func() { configPath = original })
	return dir
}

func execute(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetErr(&out)
	c.SetArgs(args)
	err := c.Execute()
	return out.String(), err
}

func TestExecCmd_MarkerFound(t *testing.T) {
	withEchoConfig(t)

	out, err := execute(t, newExecCmd(), "--expect", "Stack started", "--", "Stack started")
	require.NoError(t, err)
	assert.Contains(t, out, "Stack started")
}

func TestExecCmd_MarkerMissing(t *testing.T) {
	withEchoConfig(t)

	_, err := execute(t, newExecCmd(), "--expect", "never printed", "--", "something else")
	require.Error(t, err)
	assert.True(t, executor.IsVerificationError(err))
	assert.Equal(t, exitFailure, exitCode(err))
}

func TestExecCmd_CopyToClipboard(t *testing.T) {
	withEchoConfig(t)

	var copied string
	original := clipboardWriteAll
	clipboardWriteAll = func(text string) error {
		copied = text
		return nil
	}
	t.Cleanup(func() { clipboardWriteAll = original })

	out, err := execute(t, newExecCmd(), "--copy", "--", "hello")
	require.NoError(t, err)
	assert.Contains(t, copied, "hello")
	assert.Contains(t, out, "Output copied to clipboard")
}

func TestWaitUntilCmd(t *testing.T) {
	withEchoConfig(t)

	out, err := execute(t, newWaitUntilCmd(), "Running", "--", "status", "Running")
	require.NoError(t, err)
	assert.Contains(t, out, `Found "Running"`)

	_, err = execute(t, newWaitUntilCmd(), "--max-attempts", "1", "--delay", "1ms", "Running", "--", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "never found")
}

func TestScaffoldCmd(t *testing.T) {
	dir := withEchoConfig(t)

	out, err := execute(t, newScaffoldCmd(), "demo", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Endpoint status generated")
	assert.DirExists(t, filepath.Join(dir, "projects", "demo"))
}

func TestRunCmd_ScenarioFile(t *testing.T) {
	dir := withEchoConfig(t)

	scenarioFile := filepath.Join(dir, "smoke.yaml")
	require.NoError(t, os.WriteFile(scenarioFile, []byte(`name: smoke
steps:
  - name: greet
    command: hello world
    expect: ["hello world"]
---
name: broken
tags: [slow]
steps:
  - name: greet
    command: hello
    expect: ["goodbye"]
`), 0644))

	out, err := execute(t, newRunCmd(), "--quiet", "--scenario", "smoke", scenarioFile)
	require.NoError(t, err)
	assert.Contains(t, out, "All 1 scenarios passed")

	out, err = execute(t, newRunCmd(), "--quiet", "--tag", "slow", scenarioFile)
	require.Error(t, err)
	assert.Contains(t, out, "broken")
	assert.Equal(t, exitFailure, exitCode(err))
}

func TestRunCmd_NoScenarios(t *testing.T) {
	dir := withEchoConfig(t)
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.MkdirAll(empty, 0755))

	out, err := execute(t, newRunCmd(), empty)
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestVersionCmd(t *testing.T) {
	original := rootCmd.Version
	rootCmd.Version = "1.0.0"
	t.Cleanup(func() { rootCmd.Version = original })

	out, err := execute(t, newVersionCmd())
	require.NoError(t, err)
	assert.Equal(t, "stackprobe version 1.0.0\n", out)
}
