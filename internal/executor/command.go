package executor

import (
	"fmt"

	"github.com/anmitsu/go-shlex"
)

// Command is one invocation of the driven CLI. It is a value: build a new one
// for each invocation instead of modifying an existing one.
type Command struct {
	// Args is the argument string as it would be typed after the binary name.
	Args string
	// Expect lists substrings that must appear in the captured output.
	Expect []string
	// Dir overrides the working directory of the invocation.
	Dir string
}

// NewCommand builds a Command from an argument string and expected markers.
func NewCommand(args string, expect ...string) Command {
	return Command{Args: args, Expect: append([]string(nil), expect...)}
}

// In returns a copy of c that runs in dir.
func (c Command) In(dir string) Command {
	c.Expect = append([]string(nil), c.Expect...)
	c.Dir = dir
	return c
}

// Argv splits Args using POSIX shell quoting rules, so a quoted inner command
// such as `shell backend 'restapi verify'` stays a single argument.
func (c Command) Argv() ([]string, error) {
	argv, err := shlex.Split(c.Args, true)
	if err != nil {
		return nil, fmt.Errorf("failed to parse arguments %q: %w", c.Args, err)
	}
	return argv, nil
}

func (c Command) String() string {
	return c.Args
}
