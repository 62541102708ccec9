package cmd

import (
	"fmt"
	"time"

	"stackprobe/internal/executor"
	"stackprobe/internal/session"
	"stackprobe/internal/workflows"

	"github.com/spf13/cobra"
)

func newStartedAtCmd() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "started-at <service>",
		Short: "Print when the container of a service was started",
		Long: `Asks the configured container runtime (docker or kubernetes) when the
first container of <service> started. In swarm mode --wait gives a rolling
restart time to settle before asking.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			w := workflows.New(executor.New(session.Static(cfg)), cfg)
			started, err := w.ContainerStartDate(cmd.Context(), args[0], wait)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), started.Format(time.RFC3339Nano))
			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for a swarm rollout to settle first")
	return cmd
}
