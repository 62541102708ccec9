package repository

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// For mocking in tests
var gitCommand = exec.CommandContext

// GitCloner clones with the git binary found on PATH.
type GitCloner struct {
	// Binary overrides the git executable.
	Binary string
}

// Clone runs `git clone remoteURL path`, creating the parent directory first.
func (g *GitCloner) Clone(ctx context.Context, remoteURL, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", path, err)
	}

	binary := g.Binary
	if binary == "" {
		binary = "git"
	}

	var output bytes.Buffer
	cmd := gitCommand(ctx, binary, "clone", "--quiet", remoteURL, path)
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git clone failed: %w: %s", err, strings.TrimSpace(output.String()))
	}
	return nil
}
