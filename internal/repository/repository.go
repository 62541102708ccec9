package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stackprobe/internal/config"
	"stackprobe/pkg/logging"
)

// ErrCompareNotImplemented is returned by Compare. Detecting drift between a
// local clone and its remote has no defined algorithm yet.
var ErrCompareNotImplemented = errors.New("repository comparison is not implemented")

// Handle describes a local working copy of a remote repository.
type Handle struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	RemoteURL string `json:"remoteURL"`
	Exists    bool   `json:"exists"`
}

// PreconditionError reports an environment the run cannot continue in, such
// as a missing repository when cloning is disabled.
type PreconditionError struct {
	Repository string
	Path       string
	Reason     string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("repository %s is missing in %s: %s", e.Repository, e.Path, e.Reason)
}

// IsPreconditionError reports whether err is, or wraps, a PreconditionError.
func IsPreconditionError(err error) bool {
	var perr *PreconditionError
	return errors.As(err, &perr)
}

// Cloner fetches a remote repository into a local path.
type Cloner interface {
	Clone(ctx context.Context, remoteURL, path string) error
}

// Syncer makes sure local working copies exist.
type Syncer struct {
	cfg    config.RepositoryConfig
	cloner Cloner
}

// NewSyncer creates a Syncer. A nil cloner uses git.
func NewSyncer(cfg config.RepositoryConfig, cloner Cloner) *Syncer {
	if cloner == nil {
		cloner = &GitCloner{}
	}
	return &Syncer{cfg: cfg, cloner: cloner}
}

// RemoteURL builds {hostingBase}/{organization}/{name}.{gitExtension}.
func (s *Syncer) RemoteURL(name string) string {
	return fmt.Sprintf("%s/%s/%s.%s",
		strings.TrimSuffix(s.cfg.HostingBase, "/"), s.cfg.Organization, name, s.cfg.GitExtension)
}

// LocalPath resolves path against the configured repository root.
func (s *Syncer) LocalPath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.cfg.Root, path)
}

// Ensure returns a handle to the working copy of name at localPath.
//
// Existence is checked on the filesystem every time. An existing path is
// wrapped as is. A missing one is cloned when allowClone is set; otherwise a
// PreconditionError is returned and the run should stop.
func (s *Syncer) Ensure(ctx context.Context, name, localPath string, allowClone bool) (*Handle, error) {
	handle := &Handle{
		Name:      name,
		Path:      s.LocalPath(localPath),
		RemoteURL: s.RemoteURL(name),
	}

	exists, err := pathExists(handle.Path)
	if err != nil {
		return nil, err
	}
	if exists {
		handle.Exists = true
		logging.Debug("Repository", "(CHECKED) Path %s already exists", handle.Path)
		return handle, nil
	}

	if !allowClone {
		return nil, &PreconditionError{
			Repository: s.cfg.Organization + "/" + name,
			Path:       handle.Path,
			Reason:     "cloning is disabled",
		}
	}

	if err := s.cloner.Clone(ctx, handle.RemoteURL, handle.Path); err != nil {
		return nil, fmt.Errorf("failed to clone %s into %s: %w", handle.RemoteURL, handle.Path, err)
	}

	handle.Exists, err = pathExists(handle.Path)
	if err != nil {
		return nil, err
	}
	if !handle.Exists {
		return nil, fmt.Errorf("clone of %s reported success but %s does not exist", handle.RemoteURL, handle.Path)
	}
	logging.Info("Repository", "Cloned repo %s as %s", name, handle.Path)
	return handle, nil
}

// Compare is meant to detect divergence between a local clone and its
// remote. It always fails with ErrCompareNotImplemented and never reports a
// clean result.
func (s *Syncer) Compare(_ context.Context, handle *Handle, remoteURL string) error {
	path := ""
	if handle != nil {
		path = handle.Path
	}
	return fmt.Errorf("compare %s with %s: %w", path, remoteURL, ErrCompareNotImplemented)
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check %s: %w", path, err)
}
