package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"stackprobe/internal/executor"
	"stackprobe/internal/repository"
	"stackprobe/pkg/logging"

	"github.com/spf13/cobra"
)

const (
	exitFailure      = 1
	exitPrecondition = 2
	exitInterrupted  = 130
)

var (
	configPath string
	debugMode  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stackprobe",
	Short: "Drive a project CLI and check what it prints",
	Long: `stackprobe runs a project management CLI as a subprocess, captures
everything it prints and checks the output for expected markers.

It can run single invocations, poll a command until a marker appears,
scaffold endpoint skeletons, make sure repositories are present and run
whole scenario files describing a test session step by step.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// that are not caused by wrong arguments
	SilenceUsage: true,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "stackprobe version %s\n" .Version}}`)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if code := exitCode(err); code != 0 {
		os.Exit(code)
	}
}

// exitCode maps the error of a command to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, executor.ErrInterrupted), errors.Is(err, context.Canceled):
		logging.Critical("Main", err, "Interrupted by the user")
		return exitInterrupted
	case repository.IsPreconditionError(err):
		return exitPrecondition
	default:
		return exitFailure
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file applied on top of the user and project configuration")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newExecCmd())
	rootCmd.AddCommand(newWaitUntilCmd())
	rootCmd.AddCommand(newScaffoldCmd())
	rootCmd.AddCommand(newRepoCmd())
	rootCmd.AddCommand(newStartedAtCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newMCPServerCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
