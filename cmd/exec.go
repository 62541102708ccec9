package cmd

import (
	"fmt"
	"strings"
	"time"

	"stackprobe/internal/executor"
	"stackprobe/internal/session"
	"stackprobe/pkg/logging"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

// For mocking in tests
var clipboardWriteAll = clipboard.WriteAll

type execOptions struct {
	expect  []string
	copy    bool
	timeout time.Duration
	dir     string
}

func newExecCmd() *cobra.Command {
	opts := &execOptions{}
	cmd := &cobra.Command{
		Use:   "exec [flags] -- <cli arguments>",
		Short: "Run the driven CLI once and check its output",
		Long: `Runs the configured CLI once with the given arguments and prints everything
it wrote: harness log lines, container log lines (stderr), standard output
and, if the invocation could not complete, the exception text.

A single argument is taken as a complete argument string and split like a
shell would, so quoted inner commands stay intact:

  stackprobe exec "shell backend 'restapi verify --service neo4j'" \
    --expect "Service neo4j is reachable"

The command fails when any --expect marker is missing from the output. A
non-zero exit code of the CLI alone is not a failure.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, args, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.expect, "expect", "e", nil, "Marker that must appear in the output (repeatable)")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "Copy the captured output to the clipboard")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Hard deadline for the invocation (default from configuration)")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "Working directory for the invocation")
	return cmd
}

func runExec(cmd *cobra.Command, args []string, opts *execOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.timeout > 0 {
		cfg.CLI.Timeout = opts.timeout
	}
	cfg.CLI.Echo = true

	runner := executor.New(session.Static(cfg), executor.WithEcho(cmd.OutOrStdout()))
	command := executor.NewCommand(joinArgs(args), opts.expect...)
	if opts.dir != "" {
		command = command.In(opts.dir)
	}

	result, err := runner.Execute(cmd.Context(), command)
	if opts.copy && result != nil {
		if copyErr := clipboardWriteAll(strings.Join(result.Output(), "\n")); copyErr != nil {
			logging.Warn("Exec", "Failed to copy output to clipboard: %v", copyErr)
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), "📋 Output copied to clipboard")
		}
	}
	return err
}
