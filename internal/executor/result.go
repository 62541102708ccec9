package executor

import (
	"strings"
	"time"

	"stackprobe/internal/capture"
)

// CommandResult is the frozen outcome of one invocation.
type CommandResult struct {
	Command    Command        `json:"command"`
	ExitCode   int            `json:"exitCode"`
	Elapsed    int            `json:"elapsedSeconds"`
	Lines      []capture.Line `json:"lines"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
}

// Output returns the merged output lines without their channel tags.
func (r *CommandResult) Output() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Lines))
	for _, l := range r.Lines {
		out = append(out, l.Text)
	}
	return out
}

// Channel returns the lines captured on ch.
func (r *CommandResult) Channel(ch capture.Channel) []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, l := range r.Lines {
		if l.Channel == ch {
			out = append(out, l.Text)
		}
	}
	return out
}

// Contains reports whether expected appears in the output, either as a whole
// line or as part of one.
func (r *CommandResult) Contains(expected string) bool {
	return Matches(r.Output(), expected)
}

// Matches reports whether expected is a full line of lines or a substring of
// at least one of them.
func Matches(lines []string, expected string) bool {
	for _, line := range lines {
		if line == expected {
			return true
		}
	}
	for _, line := range lines {
		if strings.Contains(line, expected) {
			return true
		}
	}
	return false
}
