package cmd

import (
	"fmt"
	"time"

	"stackprobe/internal/executor"
	"stackprobe/internal/poller"
	"stackprobe/internal/session"

	"github.com/spf13/cobra"
)

func newWaitUntilCmd() *cobra.Command {
	var (
		maxAttempts int
		delay       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "wait-until <expected> -- <cli arguments>",
		Short: "Re-run a command until its output contains a marker",
		Long: `Runs the CLI with the given arguments until <expected> appears in its
output, waiting between attempts. Fails once the attempts are used up.

  stackprobe wait-until --max-attempts 10 --delay 3s Running -- status`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			policy := poller.PolicyFromConfig(cfg.Retry)
			if cmd.Flags().Changed("max-attempts") {
				policy.MaxAttempts = maxAttempts
			}
			if cmd.Flags().Changed("delay") {
				policy.Delay = delay
			}

			expected := args[0]
			command := executor.NewCommand(joinArgs(args[1:]))
			p := poller.New(executor.New(session.Static(cfg)))
			if _, err := p.Poll(cmd.Context(), command, expected, policy); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Found %q in the output of %q\n", expected, command.Args)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxAttempts, "max-attempts", poller.DefaultMaxAttempts, "Maximum number of attempts")
	cmd.Flags().DurationVar(&delay, "delay", poller.DefaultDelay, "Delay between attempts")
	return cmd
}
