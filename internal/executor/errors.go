package executor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvocationTimeout is returned when an invocation exceeds its deadline.
	ErrInvocationTimeout = errors.New("invocation timed out")
	// ErrInterrupted is returned when the run was stopped by the operator.
	ErrInterrupted = errors.New("interrupted by the user")
)

// VerificationError reports expected markers that were not found in the
// output of an invocation. It carries everything needed to diagnose the
// failure without re-running the command.
type VerificationError struct {
	Command  string
	Missing  []string
	ExitCode int
	Elapsed  int
	Output   []string
}

func (e *VerificationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "verification failed for %q (exit code %d, %d second(s)): missing %s",
		e.Command, e.ExitCode, e.Elapsed, quoteAll(e.Missing))
	if len(e.Output) == 0 {
		b.WriteString("\ncaptured output: <empty>")
		return b.String()
	}
	b.WriteString("\ncaptured output:")
	for _, line := range e.Output {
		b.WriteString("\n  ")
		b.WriteString(line)
	}
	return b.String()
}

// IsVerificationError reports whether err is, or wraps, a VerificationError.
func IsVerificationError(err error) bool {
	var verr *VerificationError
	return errors.As(err, &verr)
}

// Assert checks every expected marker against the result and returns a
// VerificationError listing the ones that are missing. With no markers it
// always succeeds.
func Assert(result *CommandResult, expects ...string) error {
	if len(expects) == 0 {
		return nil
	}

	output := result.Output()
	var missing []string
	for _, expected := range expects {
		if !Matches(output, expected) {
			missing = append(missing, expected)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	verr := &VerificationError{Missing: missing, Output: output}
	if result != nil {
		verr.Command = result.Command.Args
		verr.ExitCode = result.ExitCode
		verr.Elapsed = result.Elapsed
	}
	return verr
}

func quoteAll(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return strings.Join(quoted, ", ")
}
