package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"stackprobe/internal/capture"
	"stackprobe/internal/session"
	"stackprobe/pkg/logging"
)

// For mocking in tests
var execCommand = exec.CommandContext

// waitDelay bounds how long Wait keeps reading output after the process has
// been killed, in case a grandchild still holds the pipes open.
const waitDelay = 5 * time.Second

const separator = "_____________________________________________"

// Runner executes commands. Executor is the production implementation.
type Runner interface {
	Execute(ctx context.Context, cmd Command) (*CommandResult, error)
}

// Executor runs the driven CLI one invocation at a time.
type Executor struct {
	sessions session.Factory
	echo     io.Writer
	last     *session.Session
}

// Option configures an Executor.
type Option func(*Executor)

// WithEcho prints every invocation and its captured output to w when the
// session's configuration enables echoing.
func WithEcho(w io.Writer) Option {
	return func(e *Executor) { e.echo = w }
}

// New creates an Executor that builds a fresh session from sessions before
// every invocation.
func New(sessions session.Factory, opts ...Option) *Executor {
	e := &Executor{sessions: sessions}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Session returns the session used by the most recent invocation, or nil.
func (e *Executor) Session() *session.Session {
	return e.last
}

// Execute runs cmd to completion and checks its expected markers.
//
// A non-zero exit code is not an error. The returned result is complete even
// when an error is returned, so callers can always report what was captured.
func (e *Executor) Execute(ctx context.Context, cmd Command) (*CommandResult, error) {
	sess, err := e.sessions()
	if err != nil {
		return nil, err
	}
	e.last = sess

	argv, err := cmd.Argv()
	if err != nil {
		return nil, err
	}
	full := sess.App.Argv(argv)

	runCtx := ctx
	if sess.App.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, sess.App.Timeout)
		defer cancel()
	}

	streams := capture.New()
	release := logging.Capture(streams.Writer(capture.ChannelHarnessLog))

	proc := execCommand(runCtx, full[0], full[1:]...)
	proc.Env = append(proc.Env, sess.App.Env...)
	proc.Dir = sess.App.Dir
	if cmd.Dir != "" {
		proc.Dir = cmd.Dir
	}
	proc.Stdout = streams.Writer(capture.ChannelCLIStdout)
	proc.Stderr = streams.Writer(capture.ChannelContainerLog)
	proc.WaitDelay = waitDelay

	logging.Debug("Executor", "Running %s", strings.Join(full, " "))

	startedAt := time.Now()
	runErr := proc.Run()
	finishedAt := time.Now()

	exitCode, execErr := classify(ctx, runCtx, cmd, runErr)
	if execErr != nil {
		streams.AddText(capture.ChannelException, exceptionText(execErr, runErr))
		logging.Debug("Executor", "Invocation %q ended with error: %v", cmd.Args, execErr)
	}

	release()
	streams.Close()

	result := &CommandResult{
		Command:    cmd,
		ExitCode:   exitCode,
		Elapsed:    int(finishedAt.Sub(startedAt) / time.Second),
		Lines:      streams.Merged(),
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}

	if e.echo != nil && sess.Config.CLI.Echo {
		Echo(e.echo, sess.App.Binary, result)
	}

	if execErr != nil {
		return result, execErr
	}
	return result, Assert(result, cmd.Expect...)
}

// classify turns the outcome of Run into an exit code and, for failures that
// are not a plain non-zero exit, an error.
func classify(parent, runCtx context.Context, cmd Command, runErr error) (int, error) {
	if runErr == nil {
		return 0, nil
	}

	if runCtx.Err() != nil {
		if errors.Is(parent.Err(), context.Canceled) {
			return -1, fmt.Errorf("%q: %w", cmd.Args, ErrInterrupted)
		}
		return -1, fmt.Errorf("%q: %w", cmd.Args, ErrInvocationTimeout)
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("failed to run %q: %w", cmd.Args, runErr)
}

func exceptionText(execErr, runErr error) string {
	if errors.Is(execErr, ErrInvocationTimeout) || errors.Is(execErr, ErrInterrupted) {
		return execErr.Error()
	}
	return runErr.Error()
}

// Echo prints a result in the console layout used for every invocation:
// harness log lines unprefixed, container lines with ">> ", CLI stdout with
// "_ " and exception text last.
func Echo(w io.Writer, binary string, r *CommandResult) {
	fmt.Fprintf(w, "\n%s\n", separator)
	fmt.Fprintf(w, "%s %s\n", binary, r.Command.Args)
	fmt.Fprintf(w, "Exit code: %d\n", r.ExitCode)
	fmt.Fprintf(w, "Execution time: %d second(s)\n", r.Elapsed)
	for _, line := range r.Channel(capture.ChannelHarnessLog) {
		fmt.Fprintln(w, line)
	}
	for _, line := range r.Channel(capture.ChannelContainerLog) {
		fmt.Fprintf(w, ">> %s\n", line)
	}
	for _, line := range r.Channel(capture.ChannelCLIStdout) {
		fmt.Fprintf(w, "_ %s\n", line)
	}
	if exc := r.Channel(capture.ChannelException); len(exc) > 0 {
		fmt.Fprintln(w, "\n!! Exception:")
		for _, line := range exc {
			fmt.Fprintln(w, line)
		}
	}
	fmt.Fprintln(w, separator)
}
