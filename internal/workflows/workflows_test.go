package workflows

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"stackprobe/internal/capture"
	"stackprobe/internal/config"
	"stackprobe/internal/executor"
	"stackprobe/internal/poller"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner answers every command with fixed output and records what ran.
type fakeRunner struct {
	output   map[string][]string
	fallback []string
	commands []executor.Command
}

func (f *fakeRunner) Execute(_ context.Context, cmd executor.Command) (*executor.CommandResult, error) {
	f.commands = append(f.commands, cmd)
	lines := f.fallback
	if out, ok := f.output[cmd.Args]; ok {
		lines = out
	}
	result := &executor.CommandResult{Command: cmd}
	for _, l := range lines {
		result.Lines = append(result.Lines, capture.Line{Channel: capture.ChannelCLIStdout, Text: l})
	}
	return result, executor.Assert(result, cmd.Expect...)
}

func (f *fakeRunner) argv(t *testing.T, i int) []string {
	t.Helper()
	require.Greater(t, len(f.commands), i)
	argv, err := f.commands[i].Argv()
	require.NoError(t, err)
	return argv
}

type fakeInspector struct {
	started  time.Time
	logs     string
	services []string
}

func (f *fakeInspector) StartedAt(_ context.Context, service string) (time.Time, error) {
	f.services = append(f.services, service)
	return f.started, nil
}

func (f *fakeInspector) Logs(_ context.Context, service string) (string, error) {
	f.services = append(f.services, service)
	return f.logs, nil
}

type sleepRecorder struct {
	slept []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.slept = append(s.slept, d)
	return nil
}

func newTestWorkflows(runner *fakeRunner, cfg config.HarnessConfig, inspector *fakeInspector) (*Workflows, *sleepRecorder) {
	rec := &sleepRecorder{}
	return New(runner, cfg, WithSleep(rec.sleep), WithInspector(inspector)), rec
}

func TestCreateProject(t *testing.T) {
	runner := &fakeRunner{fallback: []string{"Project first successfully created"}}
	w, _ := newTestWorkflows(runner, config.GetDefaultConfig(), &fakeInspector{})

	name, err := w.CreateProject(context.Background(), ProjectOptions{
		Name:     "first",
		Services: []string{"neo4j", "rabbit"},
		Extra:    "--env X=1",
	})
	require.NoError(t, err)
	assert.Equal(t, "first", name)
	assert.Equal(t, []string{
		"create", "first", "--auth", "postgres", "--frontend", "angular",
		"--current", "--origin-url", "https://your_remote_git/your_project.git",
		"--env", "X=1", "--service", "neo4j", "--service", "rabbit",
	}, runner.argv(t, 0))
	assert.Equal(t, []string{"Project first successfully created"}, runner.commands[0].Expect)
}

func TestCreateProject_RandomName(t *testing.T) {
	runner := &fakeRunner{}
	w, _ := newTestWorkflows(runner, config.GetDefaultConfig(), &fakeInspector{})

	name, err := w.CreateProject(context.Background(), ProjectOptions{Auth: "neo4j", Frontend: "no"})
	require.Error(t, err, "the fake does not print the success marker")
	assert.True(t, executor.IsVerificationError(err))
	assert.Regexp(t, regexp.MustCompile(`^[a-z]+$`), name)

	argv := runner.argv(t, 0)
	assert.Equal(t, name, argv[1])
	assert.Equal(t, "neo4j", argv[3])
	assert.Equal(t, "no", argv[5])
}

func TestInitProject(t *testing.T) {
	runner := &fakeRunner{fallback: []string{"Project initialized"}}
	w, _ := newTestWorkflows(runner, config.GetDefaultConfig(), &fakeInspector{})

	require.NoError(t, w.InitProject(context.Background(), "", "--force"))
	assert.Equal(t, []string{"-e", "HEALTHCHECK_INTERVAL=1s", "init", "--force"}, runner.argv(t, 0))

	require.NoError(t, w.InitProject(context.Background(), "-e HEALTHCHECK_INTERVAL=5s", ""))
	assert.Equal(t, []string{"-e", "HEALTHCHECK_INTERVAL=5s", "init"}, runner.argv(t, 1))
}

func TestPullImages(t *testing.T) {
	runner := &fakeRunner{fallback: []string{"Base images pulled from docker hub"}}
	w, _ := newTestWorkflows(runner, config.GetDefaultConfig(), &fakeInspector{})

	require.NoError(t, w.PullImages(context.Background()))
	assert.Equal(t, "pull --quiet", runner.commands[0].Args)
}

func TestStartStack_Settles(t *testing.T) {
	tests := []struct {
		name   string
		swarm  bool
		settle time.Duration
	}{
		{"compose", false, 5 * time.Second},
		{"swarm", true, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.GetDefaultConfig()
			cfg.Containers.SwarmMode = tt.swarm
			runner := &fakeRunner{fallback: []string{"Stack started"}}
			w, rec := newTestWorkflows(runner, cfg, &fakeInspector{})

			require.NoError(t, w.StartStack(context.Background()))
			assert.Equal(t, []time.Duration{tt.settle}, rec.slept)
		})
	}
}

func TestStartStack_FailureSkipsSettle(t *testing.T) {
	runner := &fakeRunner{fallback: []string{"Error: network not found"}}
	w, rec := newTestWorkflows(runner, config.GetDefaultConfig(), &fakeInspector{})

	err := w.StartStack(context.Background())
	assert.True(t, executor.IsVerificationError(err))
	assert.Empty(t, rec.slept)
}

func TestStartRegistry(t *testing.T) {
	runner := &fakeRunner{}
	inspector := &fakeInspector{logs: "listening on [::]:5000"}

	w, rec := newTestWorkflows(runner, config.GetDefaultConfig(), inspector)
	logs, err := w.StartRegistry(context.Background())
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.Empty(t, runner.commands, "nothing to do outside swarm mode")

	cfg := config.GetDefaultConfig()
	cfg.Containers.SwarmMode = true
	w, rec = newTestWorkflows(runner, cfg, inspector)
	logs, err = w.StartRegistry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "listening on [::]:5000", logs)
	assert.Equal(t, "run registry --pull", runner.commands[0].Args)
	assert.Equal(t, []time.Duration{2 * time.Second}, rec.slept)
	assert.Equal(t, []string{"registry"}, inspector.services)
}

func TestVerifyService(t *testing.T) {
	runner := &fakeRunner{fallback: []string{
		"Service neo4j is reachable",
		"neo4j successfully authenticated on neo4j:7687",
	}}
	w, _ := newTestWorkflows(runner, config.GetDefaultConfig(), &fakeInspector{})

	require.NoError(t, w.VerifyService(context.Background(), "neo4j"))
	assert.Equal(t, []string{"shell", "backend", "restapi verify --service neo4j"}, runner.argv(t, 0))

	err := w.VerifyService(context.Background(), "postgres")
	assert.True(t, executor.IsVerificationError(err))
}

func TestExecuteOutside(t *testing.T) {
	runner := &fakeRunner{fallback: []string{"You are not in a git repository"}}
	w, _ := newTestWorkflows(runner, config.GetDefaultConfig(), &fakeInspector{})

	require.NoError(t, w.ExecuteOutside(context.Background(), "start"))
	assert.Equal(t, os.TempDir(), runner.commands[0].Dir)
}

func TestContainerStartDate(t *testing.T) {
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	runner := &fakeRunner{}
	inspector := &fakeInspector{started: started}
	w, rec := newTestWorkflows(runner, config.GetDefaultConfig(), inspector)

	got, err := w.ContainerStartDate(context.Background(), "backend", true)
	require.NoError(t, err)
	assert.Equal(t, started, got)
	assert.Empty(t, runner.commands, "no rollout wait outside swarm mode")
	assert.Empty(t, rec.slept)

	cfg := config.GetDefaultConfig()
	cfg.Containers.SwarmMode = true
	w, rec = newTestWorkflows(runner, cfg, inspector)
	_, err = w.ContainerStartDate(context.Background(), "backend", true)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{5 * time.Second}, rec.slept)
	assert.Equal(t, "status", runner.commands[0].Args)
}

func TestProjectRCVariable(t *testing.T) {
	dir := t.TempDir()
	cfg := config.GetDefaultConfig()
	cfg.CLI.WorkDir = dir
	w, _ := newTestWorkflows(&fakeRunner{}, cfg, &fakeInspector{})

	_, err := w.ProjectRCVariable("HEALTHCHECK_INTERVAL")
	assert.Error(t, err, "the projectrc must exist")

	rc := "project_configuration:\n  variables:\n    env:\n      HEALTHCHECK_INTERVAL: 1s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".projectrc"), []byte(rc), 0644))

	value, err := w.ProjectRCVariable("HEALTHCHECK_INTERVAL")
	require.NoError(t, err)
	assert.Equal(t, "1s", value)

	value, err = w.ProjectRCVariable("UNKNOWN")
	require.NoError(t, err)
	assert.Equal(t, "", value)
}

func TestWaitUntil(t *testing.T) {
	runner := &fakeRunner{fallback: []string{"backend | Running"}}
	w, _ := newTestWorkflows(runner, config.GetDefaultConfig(), &fakeInspector{})

	ok, err := w.WaitUntil(context.Background(), "status", "Running")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, runner.commands, 1)

	ok, err = w.WaitUntilWith(context.Background(), "status", "Stopped", poller.RetryPolicy{MaxAttempts: 2})
	assert.False(t, ok)
	var exhausted *poller.RetryExhaustedError
	assert.True(t, errors.As(err, &exhausted))
	assert.Len(t, runner.commands, 3)
}

func TestRandomProjectName(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		name := RandomProjectName()
		assert.Regexp(t, `^[a-z]{12}$`, name)
		seen[name] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), executor.ErrInterrupted)
}
