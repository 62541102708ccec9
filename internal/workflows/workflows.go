package workflows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stackprobe/internal/config"
	"stackprobe/internal/containers"
	"stackprobe/internal/executor"
	"stackprobe/internal/poller"
	"stackprobe/pkg/logging"

	"github.com/google/uuid"
)

// Workflows bundles the common environment lifecycle steps.
type Workflows struct {
	runner    executor.Runner
	poller    *poller.Poller
	cfg       config.HarnessConfig
	inspector containers.Inspector
	sleep     func(ctx context.Context, d time.Duration) error
}

// Option configures Workflows.
type Option func(*Workflows)

// WithInspector sets the container inspector instead of building one from
// the configuration on first use.
func WithInspector(i containers.Inspector) Option {
	return func(w *Workflows) { w.inspector = i }
}

// WithSleep replaces the settle delay implementation.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(w *Workflows) { w.sleep = sleep }
}

// New creates Workflows running commands through runner.
func New(runner executor.Runner, cfg config.HarnessConfig, opts ...Option) *Workflows {
	w := &Workflows{
		runner: runner,
		poller: poller.New(runner),
		cfg:    cfg,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		if ctx.Err() == context.Canceled {
			return executor.ErrInterrupted
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (w *Workflows) containerInspector() (containers.Inspector, error) {
	if w.inspector == nil {
		inspector, err := containers.NewInspector(w.cfg.Containers)
		if err != nil {
			return nil, err
		}
		w.inspector = inspector
	}
	return w.inspector, nil
}

// Exec runs args and checks the expected markers.
func (w *Workflows) Exec(ctx context.Context, args string, expect ...string) (*executor.CommandResult, error) {
	return w.runner.Execute(ctx, executor.NewCommand(args, expect...))
}

// ProjectOptions describes a project to create.
type ProjectOptions struct {
	Name     string
	Auth     string
	Frontend string
	Services []string
	Extra    string
}

// CreateProject creates a project with the driven CLI. An empty name gets a
// random one. It returns the name that was used.
func (w *Workflows) CreateProject(ctx context.Context, opts ProjectOptions) (string, error) {
	if opts.Name == "" {
		opts.Name = RandomProjectName()
	}
	if opts.Auth == "" {
		opts.Auth = "postgres"
	}
	if opts.Frontend == "" {
		opts.Frontend = "angular"
	}

	var services strings.Builder
	for _, service := range opts.Services {
		services.WriteString(" --service ")
		services.WriteString(service)
	}

	args := fmt.Sprintf("create %s --auth %s --frontend %s --current --origin-url %s %s %s",
		opts.Name, opts.Auth, opts.Frontend, w.cfg.Workflows.OriginURL, opts.Extra, services.String())

	_, err := w.Exec(ctx, args, fmt.Sprintf("Project %s successfully created", opts.Name))
	return opts.Name, err
}

// InitProject initialises the current project. A short healthcheck interval
// is injected unless pre already sets one.
func (w *Workflows) InitProject(ctx context.Context, pre, post string) error {
	if !strings.Contains(pre, "HEALTHCHECK_INTERVAL") {
		pre += " -e HEALTHCHECK_INTERVAL=1s "
	}
	_, err := w.Exec(ctx, fmt.Sprintf("%s init %s", pre, post), "Project initialized")
	return err
}

// PullImages pulls the base images of the stack.
func (w *Workflows) PullImages(ctx context.Context) error {
	_, err := w.Exec(ctx, "pull --quiet", "Base images pulled from docker hub")
	return err
}

// StartStack starts the stack and waits for it to settle.
func (w *Workflows) StartStack(ctx context.Context) error {
	if _, err := w.Exec(ctx, "start", "Stack started"); err != nil {
		return err
	}
	settle := w.cfg.Workflows.StartSettle
	if w.cfg.Containers.SwarmMode {
		settle = w.cfg.Workflows.SwarmStartSettle
	}
	return w.sleep(ctx, settle)
}

// StartRegistry starts the image registry. It only applies in swarm mode and
// returns the registry's logs.
func (w *Workflows) StartRegistry(ctx context.Context) (string, error) {
	if !w.cfg.Containers.SwarmMode {
		logging.Debug("Workflows", "Not in swarm mode, registry not started")
		return "", nil
	}
	if _, err := w.Exec(ctx, "run registry --pull"); err != nil {
		return "", err
	}
	if err := w.sleep(ctx, w.cfg.Workflows.RegistrySettle); err != nil {
		return "", err
	}

	inspector, err := w.containerInspector()
	if err != nil {
		return "", err
	}
	logs, err := inspector.Logs(ctx, w.cfg.Containers.Registry)
	if err != nil {
		return "", err
	}
	logging.Info("Workflows", "Registry logs:\n%s", logs)
	return logs, nil
}

// VerifyService asks the backend to check that service is reachable and
// accepts its credentials.
func (w *Workflows) VerifyService(ctx context.Context, service string) error {
	_, err := w.Exec(ctx,
		fmt.Sprintf("shell backend 'restapi verify --service %s'", service),
		fmt.Sprintf("Service %s is reachable", service),
		fmt.Sprintf("%s successfully authenticated on ", service),
	)
	return err
}

// ExecuteOutside runs args from the OS temporary directory and expects the
// CLI to refuse to work outside a repository.
func (w *Workflows) ExecuteOutside(ctx context.Context, args string) error {
	cmd := executor.NewCommand(args, "You are not in a git repository").In(os.TempDir())
	_, err := w.runner.Execute(ctx, cmd)
	return err
}

// ContainerStartDate returns when the first replica of service started. In
// swarm mode with wait set it first gives the rollout time to finish.
func (w *Workflows) ContainerStartDate(ctx context.Context, service string, wait bool) (time.Time, error) {
	if w.cfg.Containers.SwarmMode && wait {
		if err := w.sleep(ctx, w.cfg.Workflows.RolloutSettle); err != nil {
			return time.Time{}, err
		}
		// Shows the rollout state and delays the lookup a little further.
		if _, err := w.Exec(ctx, "status"); err != nil {
			return time.Time{}, err
		}
	}

	inspector, err := w.containerInspector()
	if err != nil {
		return time.Time{}, err
	}
	return inspector.StartedAt(ctx, service)
}

// ProjectRCVariable reads project_configuration.variables.env.<name> from the
// projectrc. The file must exist; a missing variable is "".
func (w *Workflows) ProjectRCVariable(name string) (string, error) {
	path := w.cfg.ProjectRC
	if w.cfg.CLI.WorkDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(w.cfg.CLI.WorkDir, path)
	}
	rc, err := config.LoadProjectRC(path, false)
	if err != nil {
		return "", err
	}
	return rc.Variable(name), nil
}

// WaitUntil polls args with the configured retry policy until expected shows
// up in the output.
func (w *Workflows) WaitUntil(ctx context.Context, args, expected string) (bool, error) {
	return w.WaitUntilWith(ctx, args, expected, poller.PolicyFromConfig(w.cfg.Retry))
}

// WaitUntilWith polls args with an explicit retry policy.
func (w *Workflows) WaitUntilWith(ctx context.Context, args, expected string, policy poller.RetryPolicy) (bool, error) {
	return w.poller.Poll(ctx, executor.NewCommand(args), expected, policy)
}

// RandomProjectName returns a lowercase alphabetic project name.
func RandomProjectName() string {
	id := uuid.New()
	name := make([]byte, 0, 12)
	for _, b := range id[:12] {
		name = append(name, 'a'+b%26)
	}
	return string(name)
}
