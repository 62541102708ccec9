package config

import (
	"time"
)

// GetDefaultConfig returns the built-in configuration. Every layer loaded by
// LoadConfig is applied on top of it.
func GetDefaultConfig() HarnessConfig {
	return HarnessConfig{
		CLI: CLIConfig{
			Binary:  "rapydo",
			Timeout: 10 * time.Minute,
			Echo:    true,
		},
		ProjectRC: ".projectrc",
		Project: ProjectConfig{
			Root:       "projects",
			BackendDir: "backend",
			SwaggerDir: "swagger",
		},
		Repository: RepositoryConfig{
			HostingBase:  "https://github.com",
			Organization: "rapydo",
			GitExtension: "git",
			Root:         ".",
		},
		Retry: RetryConfig{
			MaxAttempts: 30,
			Delay:       2 * time.Second,
		},
		Containers: ContainersConfig{
			Runtime:      ContainerRuntimeDocker,
			Registry:     "registry",
			DockerBinary: "docker",
			Namespace:    "default",
			ServiceLabel: "app.kubernetes.io/name",
		},
		Workflows: WorkflowsConfig{
			OriginURL:        "https://your_remote_git/your_project.git",
			StartSettle:      5 * time.Second,
			SwarmStartSettle: 10 * time.Second,
			RegistrySettle:   2 * time.Second,
			RolloutSettle:    5 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
