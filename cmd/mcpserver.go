package cmd

import (
	"stackprobe/internal/mcpserver"
	"stackprobe/internal/repository"
	"stackprobe/internal/session"
	"stackprobe/internal/suite"

	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	scenarioPath := suite.DefaultConfiguration().ScenarioPath

	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve the harness as MCP tools over stdio",
		Long: `Starts a Model Context Protocol server on stdin/stdout exposing the harness
operations as tools: execute, wait_until, scaffold_endpoint,
ensure_repository and run_scenarios.

Logs are written to stderr so they never mix with the protocol stream.
Invocations are not echoed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			framework, err := suite.NewFramework(cfg, session.NewFactory(configPath), suite.NewQuietReporter(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			srv := mcpserver.New(framework.Harness, repository.NewSyncer(cfg.Repository, nil), scenarioPath, rootCmd.Version)
			return srv.ServeStdio()
		},
	}

	cmd.Flags().StringVar(&scenarioPath, "scenarios", scenarioPath, "Scenario file or directory used by run_scenarios when no path is given")
	return cmd
}
