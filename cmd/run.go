package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"stackprobe/internal/color"
	"stackprobe/internal/config"
	"stackprobe/internal/executor"
	"stackprobe/internal/session"
	"stackprobe/internal/suite"
	"stackprobe/internal/tui"
	"stackprobe/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

type runOptions struct {
	suite.Configuration
	quiet   bool
	jsonOut bool
	useTUI  bool
}

// completeScenarioFlag provides shell completion for the scenario flag by loading available scenarios
func completeScenarioFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	path := suite.DefaultConfiguration().ScenarioPath
	if len(args) > 0 {
		path = args[0]
	}

	scenarios, err := suite.NewLoader().LoadScenarios(path)
	if err != nil {
		return []string{}, cobra.ShellCompDirectiveDefault
	}

	var names []string
	for _, scenario := range scenarios {
		names = append(names, scenario.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{Configuration: suite.DefaultConfiguration()}

	cmd := &cobra.Command{
		Use:   "run [scenario file or directory]",
		Short: "Run scenario files against the driven CLI",
		Long: `Runs YAML scenario files one scenario at a time. Each scenario is a list of
steps (commands with expected markers, polls, named workflows and
scaffolding) followed by cleanup steps.

The scenario path defaults to ./scenarios. Every command starts from a freshly
loaded configuration, so edits to the configuration files between steps are
picked up.

Example usage:
  stackprobe run                          # Run every scenario in ./scenarios
  stackprobe run smoke.yaml --verbose     # Detailed output
  stackprobe run --tag smoke --fail-fast  # Stop at the first failing scenario
  stackprobe run --scenario start-stack   # Run a single scenario
  stackprobe run --tui                    # Live view
  stackprobe run --json > result.json     # Machine readable result

Exit codes: 0 when every scenario passed, 1 on failures, 130 when
interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.ScenarioPath = args[0]
			}
			return runScenarios(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Scenario, "scenario", "", "Run only the scenario with this name")
	flags.StringSliceVar(&opts.Tags, "tag", nil, "Run only scenarios carrying any of these tags")
	flags.BoolVar(&opts.FailFast, "fail-fast", false, "Stop after the first failing scenario")
	flags.DurationVar(&opts.Timeout, "timeout", opts.Timeout, "Overall run timeout")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Print every step")
	flags.StringVar(&opts.ReportPath, "report", "", "Directory receiving a detailed JSON report")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Only print failures and a summary")
	flags.BoolVar(&opts.jsonOut, "json", false, "Print the result as JSON")
	flags.BoolVar(&opts.useTUI, "tui", false, "Show a live view of the run")

	cmd.MarkFlagsMutuallyExclusive("quiet", "json", "tui")
	_ = cmd.RegisterFlagCompletionFunc("scenario", completeScenarioFlag)
	return cmd
}

func runScenarios(cmd *cobra.Command, opts *runOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts.Debug = debugMode
	if err := suite.ValidateConfiguration(opts.Configuration); err != nil {
		return err
	}

	scenarios, err := suite.NewLoader().LoadScenarios(opts.ScenarioPath)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(scenarios) == 0 {
		fmt.Fprintf(out, "No scenarios found in %s\n", opts.ScenarioPath)
		return nil
	}

	sessions := session.NewFactory(configPath)
	color.Configure()

	var result *suite.SuiteResult
	if opts.useTUI {
		result, err = runWithTUI(cmd.Context(), cfg, sessions, opts.Configuration, scenarios, out)
	} else {
		var execOpts []executor.Option
		if !opts.quiet && !opts.jsonOut {
			execOpts = append(execOpts, executor.WithEcho(out))
		}
		var framework *suite.Framework
		framework, err = suite.NewFramework(cfg, sessions, reporterFor(opts, out), execOpts...)
		if err != nil {
			return err
		}
		result, err = framework.Runner.Run(cmd.Context(), opts.Configuration, scenarios)
	}
	if err != nil {
		return err
	}
	return suiteOutcome(result)
}

func reporterFor(opts *runOptions, out io.Writer) suite.Reporter {
	switch {
	case opts.jsonOut:
		return suite.NewJSONReporter(out)
	case opts.quiet:
		return suite.NewQuietReporter(out)
	default:
		return suite.NewConsoleReporter(out, opts.Verbose, opts.Debug, opts.ReportPath)
	}
}

func runWithTUI(ctx context.Context, cfg config.HarnessConfig, sessions session.Factory, runCfg suite.Configuration, scenarios []suite.Scenario, out io.Writer) (*suite.SuiteResult, error) {
	level := logging.LevelInfo
	if debugMode {
		level = logging.LevelDebug
	}
	logChannel := logging.InitForTUI(level)
	defer func() {
		dropped := logging.DroppedTUIEntries()
		logging.CloseTUIChannel()
		initLogging(cfg, os.Stderr)
		if dropped > 0 {
			logging.Warn("Run", "%d log entries were dropped while the live view was not reading them", dropped)
		}
	}()

	result, err := tui.Run(ctx, logChannel, func(ctx context.Context, reporter suite.Reporter) (*suite.SuiteResult, error) {
		framework, err := suite.NewFramework(cfg, sessions, reporter)
		if err != nil {
			return nil, err
		}
		return framework.Runner.Run(ctx, runCfg, scenarios)
	}, tea.WithAltScreen())
	if err != nil || result == nil {
		return result, err
	}

	suite.NewQuietReporter(out).ReportSuiteResult(*result)
	if runCfg.ReportPath != "" {
		path, err := suite.SaveReport(runCfg.ReportPath, *result)
		if err != nil {
			logging.Warn("Run", "Failed to save detailed report: %v", err)
		} else {
			fmt.Fprintf(out, "📄 Detailed report saved to: %s\n", path)
		}
	}
	return result, nil
}

// suiteOutcome turns a finished run into the command's error.
func suiteOutcome(result *suite.SuiteResult) error {
	switch {
	case result == nil:
		return nil
	case result.Interrupted():
		return executor.ErrInterrupted
	case !result.Succeeded():
		return fmt.Errorf("%d of %d scenario(s) did not pass",
			result.FailedScenarios+result.ErrorScenarios, result.TotalScenarios)
	default:
		return nil
	}
}
