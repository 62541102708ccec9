package cmd

import (
	"fmt"

	"stackprobe/internal/repository"

	"github.com/spf13/cobra"
)

func newRepoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage the repositories a test session depends on",
	}
	cmd.AddCommand(newRepoEnsureCmd())
	cmd.AddCommand(newRepoCompareCmd())
	return cmd
}

func localPathArg(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	return args[0]
}

func newRepoEnsureCmd() *cobra.Command {
	var clone bool

	cmd := &cobra.Command{
		Use:   "ensure <name> [local path]",
		Short: "Make sure a repository is present locally",
		Long: `Checks that the local path of a repository exists. The path defaults to
the repository name and is resolved against the configured repository root.

When the path is missing the command fails with exit code 2, unless --clone
is given, in which case the repository is cloned from
{hosting base}/{organization}/{name}.{git extension}.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			syncer := repository.NewSyncer(cfg.Repository, nil)
			handle, err := syncer.Ensure(cmd.Context(), args[0], localPathArg(args), clone)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is available at %s\n", handle.Name, handle.Path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&clone, "clone", false, "Clone the repository when the local path is missing")
	return cmd
}

func newRepoCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <name> [local path]",
		Short: "Compare a local repository with its remote (not implemented)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			syncer := repository.NewSyncer(cfg.Repository, nil)
			handle, err := syncer.Ensure(cmd.Context(), args[0], localPathArg(args), false)
			if err != nil {
				return err
			}
			return syncer.Compare(cmd.Context(), handle, handle.RemoteURL)
		},
	}
}
