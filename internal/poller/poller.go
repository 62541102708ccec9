package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stackprobe/internal/config"
	"stackprobe/internal/executor"
	"stackprobe/pkg/logging"

	"k8s.io/apimachinery/pkg/util/wait"
)

const (
	DefaultMaxAttempts = 30
	DefaultDelay       = 2 * time.Second
)

// RetryPolicy bounds how often and how fast a command is re-run.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultPolicy returns 30 attempts two seconds apart.
func DefaultPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, Delay: DefaultDelay}
}

// PolicyFromConfig converts the configured retry settings.
func PolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	return RetryPolicy{MaxAttempts: cfg.MaxAttempts, Delay: cfg.Delay}
}

// RetryExhaustedError is returned when every attempt finished without the
// expected text appearing.
type RetryExhaustedError struct {
	Command  string
	Expected string
	Attempts int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("never found %q in %q after %d retries", e.Expected, e.Command, e.Attempts)
}

// Poller re-runs a command until its output contains an expected string.
type Poller struct {
	runner executor.Runner
}

// New creates a Poller on top of runner.
func New(runner executor.Runner) *Poller {
	return &Poller{runner: runner}
}

// Poll runs cmd until expected appears in its output, sleeping policy.Delay
// between attempts. It returns true as soon as a match is seen, so a match on
// attempt k costs k invocations and k-1 sleeps.
//
// Markers attached to cmd are ignored. An attempt that times out counts as a
// miss; any other invocation error stops polling.
func (p *Poller) Poll(ctx context.Context, cmd executor.Command, expected string, policy RetryPolicy) (bool, error) {
	if policy.MaxAttempts < 1 {
		return false, fmt.Errorf("invalid retry policy: max attempts must be at least 1, got %d", policy.MaxAttempts)
	}
	if policy.Delay < 0 {
		return false, fmt.Errorf("invalid retry policy: negative delay %s", policy.Delay)
	}

	probe := executor.Command{Args: cmd.Args, Dir: cmd.Dir}
	attempts := 0
	var runErr error

	backoff := wait.Backoff{
		Duration: policy.Delay,
		Factor:   1,
		Steps:    policy.MaxAttempts,
	}
	err := wait.ExponentialBackoffWithContext(ctx, backoff, func(ctx context.Context) (bool, error) {
		attempts++
		result, err := p.runner.Execute(ctx, probe)
		if err != nil {
			if errors.Is(err, executor.ErrInvocationTimeout) {
				logging.Warn("Poller", "Attempt %d/%d of %q timed out", attempts, policy.MaxAttempts, cmd.Args)
				return false, nil
			}
			runErr = err
			return false, err
		}
		if result.Contains(expected) {
			logging.Debug("Poller", "Found %q in %q after %d attempt(s)", expected, cmd.Args, attempts)
			return true, nil
		}
		logging.Debug("Poller", "Attempt %d/%d: %q not found in %q", attempts, policy.MaxAttempts, expected, cmd.Args)
		return false, nil
	})

	switch {
	case err == nil:
		return true, nil
	case runErr != nil:
		return false, runErr
	case errors.Is(ctx.Err(), context.Canceled):
		return false, fmt.Errorf("polling %q: %w", cmd.Args, executor.ErrInterrupted)
	case ctx.Err() != nil:
		return false, fmt.Errorf("polling %q: %w", cmd.Args, ctx.Err())
	case wait.Interrupted(err):
		return false, &RetryExhaustedError{Command: cmd.Args, Expected: expected, Attempts: attempts}
	default:
		return false, err
	}
}
