package containers

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"stackprobe/internal/config"
	"stackprobe/pkg/logging"
)

// RunFunc runs a command and returns its output. For docker logs that is
// stdout and stderr combined, for every other command stdout only.
type RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// DockerInspector queries container state through the docker CLI.
type DockerInspector struct {
	binary   string
	project  string
	swarm    bool
	registry string
	run      RunFunc
}

// NewDockerInspector creates a DockerInspector. A nil run uses os/exec.
func NewDockerInspector(cfg config.ContainersConfig, run RunFunc) *DockerInspector {
	binary := cfg.DockerBinary
	if binary == "" {
		binary = "docker"
	}
	if run == nil {
		run = execRun
	}
	return &DockerInspector{
		binary:   binary,
		project:  cfg.Project,
		swarm:    cfg.SwarmMode,
		registry: cfg.Registry,
		run:      run,
	}
}

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	// docker logs replays the container's stderr on its own stderr.
	if len(args) > 0 && args[0] == "logs" {
		out, err := cmd.CombinedOutput()
		if err != nil {
			return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
		}
		return out, nil
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// ContainerID resolves the first replica of service. The registry is
// addressed by its fixed container name.
func (d *DockerInspector) ContainerID(ctx context.Context, service string) (string, error) {
	if service == d.registry {
		return d.registry, nil
	}

	args := []string{"ps", "--all", "--format", "{{.ID}}"}
	if d.swarm {
		prefix := service + ".1."
		if d.project != "" {
			prefix = d.project + "_" + prefix
		}
		args = append(args, "--filter", "name="+prefix)
	} else {
		args = append(args,
			"--filter", "label=com.docker.compose.service="+service,
			"--filter", "label=com.docker.compose.container-number=1",
		)
		if d.project != "" {
			args = append(args, "--filter", "label=com.docker.compose.project="+d.project)
		}
	}

	out, err := d.run(ctx, d.binary, args...)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(out), "\n") {
		if id := strings.TrimSpace(line); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("service %s: %w", service, ErrContainerNotFound)
}

// StartedAt implements Inspector.
func (d *DockerInspector) StartedAt(ctx context.Context, service string) (time.Time, error) {
	id, err := d.ContainerID(ctx, service)
	if err != nil {
		return time.Time{}, err
	}

	out, err := d.run(ctx, d.binary, "inspect", "--format", "{{.State.StartedAt}}", id)
	if err != nil {
		return time.Time{}, err
	}
	raw := strings.TrimSpace(string(out))
	started, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("unexpected start date %q for %s: %w", raw, service, err)
	}
	logging.Debug("Containers", "Container %s of %s started at %s", id, service, started)
	return started, nil
}

// Logs implements Inspector.
func (d *DockerInspector) Logs(ctx context.Context, service string) (string, error) {
	id, err := d.ContainerID(ctx, service)
	if err != nil {
		return "", err
	}
	out, err := d.run(ctx, d.binary, "logs", id)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
