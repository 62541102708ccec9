package containers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stackprobe/internal/config"
)

// ErrContainerNotFound is returned when no container backs a service.
var ErrContainerNotFound = errors.New("container not found")

// Inspector reads the runtime state of the stack's containers.
type Inspector interface {
	// StartedAt returns when the first replica of service last started.
	StartedAt(ctx context.Context, service string) (time.Time, error)
	// Logs returns the output of the first replica of service.
	Logs(ctx context.Context, service string) (string, error)
}

// NewInspector builds the inspector selected by cfg.Runtime.
func NewInspector(cfg config.ContainersConfig) (Inspector, error) {
	switch cfg.Runtime {
	case config.ContainerRuntimeDocker, "":
		return NewDockerInspector(cfg, nil), nil
	case config.ContainerRuntimeKubernetes:
		return NewKubernetesInspectorFromKubeconfig(cfg)
	default:
		return nil, fmt.Errorf("unsupported container runtime %q", cfg.Runtime)
	}
}
