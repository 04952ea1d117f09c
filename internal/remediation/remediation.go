// Package remediation implements what happens to an artifact once it has
// been classified suspicious: deletion, quarantine, report-only, or any of
// those behind an interactive confirmation.
package remediation

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/garagon/importguard/internal/project"
	"github.com/garagon/importguard/internal/types"
)

// Remover acts on one suspicious artifact. The returned Removal is always
// populated, also when err is non-nil.
type Remover interface {
	Remove(path string) (types.Removal, error)
}

// Mode selects a Remover in configuration.
type Mode string

const (
	ModeDelete     Mode = "delete"
	ModeQuarantine Mode = "quarantine"
	ModeReport     Mode = "report"
)

// Modes lists the accepted modes.
var Modes = []Mode{ModeDelete, ModeQuarantine, ModeReport}

// ParseMode converts a string to a Mode. Empty selects ModeDelete.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return ModeDelete, nil
	}
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown action %q (valid: delete, quarantine, report)", s)
}

// Options configures New.
type Options struct {
	Root project.Root
	// JailDir is the quarantine directory. Relative paths resolve against
	// Root. Empty uses DefaultJailDir.
	JailDir string
	// Refresh runs after a successful deletion.
	Refresh func() error
	// Confirm wraps the remover in a yes/no prompt on In and Out.
	Confirm bool
	In      io.Reader
	Out     io.Writer
}

// New builds the Remover for mode.
func New(mode Mode, opts Options) (Remover, error) {
	var r Remover
	switch mode {
	case ModeDelete, "":
		r = NewDeleter(opts.Root, opts.Refresh)
	case ModeQuarantine:
		r = NewJail(opts.Root, opts.JailDir)
	case ModeReport:
		return ReportOnly{}, nil
	default:
		return nil, fmt.Errorf("unknown action %q", mode)
	}
	if opts.Confirm {
		r = NewConfirming(r, opts.In, opts.Out)
	}
	return r, nil
}

// ReportOnly records the decision and leaves the artifact in place.
type ReportOnly struct{}

func (ReportOnly) Remove(path string) (types.Removal, error) {
	return types.Removal{Path: path, Action: types.ActionReported}, nil
}

// Deleter removes an artifact together with its ".meta" sidecar.
type Deleter struct {
	root    project.Root
	refresh func() error
}

// NewDeleter creates a Deleter. refresh, when non-nil, runs after every
// successful deletion so the host can re-index the project.
func NewDeleter(root project.Root, refresh func() error) *Deleter {
	return &Deleter{root: root, refresh: refresh}
}

func (d *Deleter) Remove(path string) (types.Removal, error) {
	r := types.Removal{Path: path, Action: types.ActionDeleted}
	target := d.root.Resolve(path)

	if err := requireRegular(target); err != nil {
		return failed(r, fmt.Errorf("deleting %s: %w", path, err))
	}
	if err := os.Remove(target); err != nil {
		return failed(r, fmt.Errorf("deleting %s: %w", path, err))
	}
	if err := os.Remove(project.MetaPath(target)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		r.Error = err.Error()
		return r, fmt.Errorf("deleting sidecar of %s: %w", path, err)
	}
	if d.refresh != nil {
		if err := d.refresh(); err != nil {
			r.Error = err.Error()
			return r, fmt.Errorf("refreshing after deleting %s: %w", path, err)
		}
	}
	return r, nil
}

// requireRegular refuses folders, symlinks and other non-regular entries.
func requireRegular(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	return nil
}

func failed(r types.Removal, err error) (types.Removal, error) {
	r.Action = types.ActionFailed
	r.Destination = ""
	r.Error = err.Error()
	return r, err
}
