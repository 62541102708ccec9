package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"stackprobe/internal/config"
	"stackprobe/pkg/logging"

	"github.com/google/uuid"
)

// Application is the resolved launch description of the driven CLI.
type Application struct {
	Binary  string
	Args    []string
	Env     []string
	Dir     string
	Timeout time.Duration
}

// Argv returns the full argument vector for an invocation with args.
func (a Application) Argv(args []string) []string {
	argv := make([]string, 0, 1+len(a.Args)+len(args))
	argv = append(argv, a.Binary)
	argv = append(argv, a.Args...)
	argv = append(argv, args...)
	return argv
}

// Session is the state a single invocation runs against. A new one is built
// for every invocation, so nothing one command changes is seen by the next.
type Session struct {
	ID        string
	Config    config.HarnessConfig
	ProjectRC *config.ProjectRC
	App       Application
	CreatedAt time.Time
}

// Factory builds a fresh Session.
type Factory func() (*Session, error)

// NewFactory returns a Factory that reloads every configuration layer and the
// projectrc each time it is called.
func NewFactory(configPath string) Factory {
	return func() (*Session, error) {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		return FromConfig(cfg)
	}
}

// Static returns a Factory that builds sessions from a fixed configuration.
// The projectrc is still re-read on every call.
func Static(cfg config.HarnessConfig) Factory {
	return func() (*Session, error) {
		return FromConfig(cfg)
	}
}

// FromConfig builds a Session from an already loaded configuration.
func FromConfig(cfg config.HarnessConfig) (*Session, error) {
	rcPath := cfg.ProjectRC
	if cfg.CLI.WorkDir != "" && !filepath.IsAbs(rcPath) {
		rcPath = filepath.Join(cfg.CLI.WorkDir, rcPath)
	}
	rc, err := config.LoadProjectRC(rcPath, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	s := &Session{
		ID:        uuid.NewString(),
		Config:    cfg,
		ProjectRC: rc,
		App:       resolveApplication(cfg.CLI),
		CreatedAt: time.Now(),
	}
	logging.Debug("Session", "Created session %s for %s", s.ID, s.App.Binary)
	return s, nil
}

func resolveApplication(cli config.CLIConfig) Application {
	env := os.Environ()
	keys := make([]string, 0, len(cli.Env))
	for k := range cli.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+os.ExpandEnv(cli.Env[k]))
	}

	return Application{
		Binary:  cli.Binary,
		Args:    append([]string(nil), cli.Args...),
		Env:     env,
		Dir:     cli.WorkDir,
		Timeout: cli.Timeout,
	}
}
