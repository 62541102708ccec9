package suite

import (
	"fmt"
	"time"

	"stackprobe/internal/config"
	"stackprobe/internal/executor"
	"stackprobe/internal/poller"
	"stackprobe/internal/scaffold"
	"stackprobe/internal/session"
	"stackprobe/internal/workflows"
)

// DefaultConfiguration returns the run settings used when no flags are given
func DefaultConfiguration() Configuration {
	return Configuration{
		ScenarioPath: "scenarios",
		Timeout:      30 * time.Minute,
	}
}

// Framework holds all components needed to run scenarios
type Framework struct {
	Runner   Runner
	Loader   Loader
	Reporter Reporter
	Harness  Harness
}

// NewFramework wires a Framework driving the CLI described by cfg. Sessions
// are created by sessions for every command the scenarios run.
func NewFramework(cfg config.HarnessConfig, sessions session.Factory, reporter Reporter, opts ...executor.Option) (*Framework, error) {
	templates, err := scaffold.TemplatesFor(cfg.Project)
	if err != nil {
		return nil, fmt.Errorf("failed to load scaffold templates: %w", err)
	}

	commands := executor.New(sessions, opts...)
	harness := Harness{
		Commands:  commands,
		Workflows: workflows.New(commands, cfg),
		Scaffold:  scaffold.NewGenerator(cfg.Project),
		Templates: templates,
		Retry:     poller.PolicyFromConfig(cfg.Retry),
	}

	loader := NewLoader()
	return &Framework{
		Runner:   NewRunner(harness, loader, reporter),
		Loader:   loader,
		Reporter: reporter,
		Harness:  harness,
	}, nil
}

// ValidateConfiguration validates run settings
func ValidateConfiguration(config Configuration) error {
	if config.ScenarioPath == "" {
		return fmt.Errorf("scenario path is required")
	}
	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}
