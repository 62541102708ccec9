package config

import (
	"time"
)

// HarnessConfig is the top-level configuration structure for stackprobe.
type HarnessConfig struct {
	CLI        CLIConfig        `yaml:"cli"`
	ProjectRC  string           `yaml:"projectrc" validate:"required"` // Path of the driven CLI's runtime configuration file
	Project    ProjectConfig    `yaml:"project"`
	Repository RepositoryConfig `yaml:"repository"`
	Retry      RetryConfig      `yaml:"retry"`
	Containers ContainersConfig `yaml:"containers"`
	Workflows  WorkflowsConfig  `yaml:"workflows"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// CLIConfig describes how the driven CLI is launched.
type CLIConfig struct {
	Binary  string            `yaml:"binary" validate:"required"`   // Executable name or path, e.g. "rapydo"
	Args    []string          `yaml:"args,omitempty"`               // Arguments prepended to every invocation
	WorkDir string            `yaml:"workDir,omitempty"`            // Working directory; empty means the current one
	Env     map[string]string `yaml:"env,omitempty"`                // Extra environment, values support ${VAR} expansion
	Timeout time.Duration     `yaml:"timeout" validate:"gt=0"`      // Hard deadline for a single invocation
	Echo    bool              `yaml:"echo"`                         // Print each invocation and its captured streams
}

// ProjectConfig locates scaffolded projects on disk.
type ProjectConfig struct {
	Root         string `yaml:"root" validate:"required"`       // Directory containing all projects
	BackendDir   string `yaml:"backendDir" validate:"required"` // Backend source directory inside a project
	SwaggerDir   string `yaml:"swaggerDir" validate:"required"` // Specs directory inside the backend
	TemplatesDir string `yaml:"templatesDir,omitempty"`         // Scaffold templates; empty uses the built-in set
}

// RepositoryConfig defines where framework repositories are cloned from.
type RepositoryConfig struct {
	HostingBase  string `yaml:"hostingBase" validate:"required,url"`
	Organization string `yaml:"organization" validate:"required"`
	GitExtension string `yaml:"gitExtension" validate:"required"`
	Root         string `yaml:"root" validate:"required"` // Base for relative local paths
}

// RetryConfig is the default polling policy for eventually consistent checks.
type RetryConfig struct {
	MaxAttempts int           `yaml:"maxAttempts" validate:"gte=1"`
	Delay       time.Duration `yaml:"delay" validate:"gte=0"`
}

// ContainerRuntime selects how container state is inspected.
type ContainerRuntime string

const (
	ContainerRuntimeDocker     ContainerRuntime = "docker"
	ContainerRuntimeKubernetes ContainerRuntime = "kubernetes"
)

// ContainersConfig configures container state inspection.
type ContainersConfig struct {
	Runtime      ContainerRuntime `yaml:"runtime" validate:"oneof=docker kubernetes"`
	SwarmMode    bool             `yaml:"swarmMode"`
	Project      string           `yaml:"project,omitempty"` // Compose project or swarm stack name
	Registry     string           `yaml:"registry" validate:"required"`
	DockerBinary string           `yaml:"dockerBinary,omitempty"`
	Namespace    string           `yaml:"namespace,omitempty"`
	Kubeconfig   string           `yaml:"kubeconfig,omitempty"`
	KubeContext  string           `yaml:"kubeContext,omitempty"`
	ServiceLabel string           `yaml:"serviceLabel,omitempty"` // Pod label carrying the service name
}

// WorkflowsConfig tunes the high-level lifecycle workflows.
type WorkflowsConfig struct {
	OriginURL        string        `yaml:"originURL" validate:"required"`
	StartSettle      time.Duration `yaml:"startSettle" validate:"gte=0"`
	SwarmStartSettle time.Duration `yaml:"swarmStartSettle" validate:"gte=0"`
	RegistrySettle   time.Duration `yaml:"registrySettle" validate:"gte=0"`
	RolloutSettle    time.Duration `yaml:"rolloutSettle" validate:"gte=0"`
}

// LoggingConfig controls the harness's own log output.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}
