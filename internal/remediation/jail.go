package remediation

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/garagon/importguard/internal/project"
	"github.com/garagon/importguard/internal/types"
)

// DefaultJailDir sits under Library/, which the editor never imports.
const DefaultJailDir = "Library/ImportGuard/Quarantine"

const (
	jailSuffix     = ".quarantine"
	jailMetaSuffix = ".meta" + jailSuffix
	stampLayout    = "20060102_150405"
)

// Jail moves suspicious artifacts into a quarantine directory instead of
// deleting them. Jailed files are named "<timestamp>_<name>.quarantine";
// the ".meta" sidecar, when present, travels along as
// "<timestamp>_<name>.meta.quarantine".
type Jail struct {
	root project.Root
	dir  string
	now  func() time.Time
}

// NewJail creates a Jail at dir. Relative dirs resolve against root.
func NewJail(root project.Root, dir string) *Jail {
	if dir == "" {
		dir = DefaultJailDir
	}
	return &Jail{root: root, dir: root.Resolve(dir), now: time.Now}
}

// Dir returns the quarantine directory.
func (j *Jail) Dir() string { return j.dir }

func (j *Jail) Remove(path string) (types.Removal, error) {
	r := types.Removal{Path: path, Action: types.ActionQuarantined}
	src := j.root.Resolve(path)

	if err := requireRegular(src); err != nil {
		return failed(r, fmt.Errorf("quarantining %s: %w", path, err))
	}
	if err := os.MkdirAll(j.dir, 0700); err != nil {
		return failed(r, fmt.Errorf("creating jail: %w", err))
	}

	cell := j.cellName(filepath.Base(src))
	dest := filepath.Join(j.dir, cell)
	if err := moveFile(src, dest); err != nil {
		return failed(r, fmt.Errorf("quarantining %s: %w", path, err))
	}
	r.Destination = dest

	meta := project.MetaPath(src)
	if _, err := os.Stat(meta); err == nil {
		metaDest := strings.TrimSuffix(dest, jailSuffix) + jailMetaSuffix
		if err := moveFile(meta, metaDest); err != nil {
			r.Error = err.Error()
			return r, fmt.Errorf("quarantining sidecar of %s: %w", path, err)
		}
	}
	return r, nil
}

// cellName picks a free "<timestamp>_<name>.quarantine" name.
func (j *Jail) cellName(base string) string {
	stamp := j.now().Format(stampLayout)
	name := fmt.Sprintf("%s_%s%s", stamp, base, jailSuffix)
	for i := 1; ; i++ {
		if _, err := os.Lstat(filepath.Join(j.dir, name)); errors.Is(err, fs.ErrNotExist) {
			return name
		}
		name = fmt.Sprintf("%s-%d_%s%s", stamp, i, base, jailSuffix)
	}
}

// List returns the names of jailed artifacts, oldest first. A missing jail
// is empty.
func (j *Jail) List() ([]string, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, jailSuffix) || strings.HasSuffix(name, jailMetaSuffix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// OriginalName recovers the artifact file name from a jail cell name.
func OriginalName(cell string) (string, error) {
	base := filepath.Base(cell)
	if !strings.HasSuffix(base, jailSuffix) {
		return "", fmt.Errorf("not a quarantine file: %s", base)
	}
	base = strings.TrimSuffix(base, jailSuffix)
	parts := strings.SplitN(base, "_", 3)
	if len(parts) < 3 || parts[2] == "" {
		return "", fmt.Errorf("malformed quarantine name: %s", cell)
	}
	return parts[2], nil
}

// Restore moves a jailed artifact, and its sidecar if jailed too, into
// destDir under its original name. It refuses to overwrite.
func (j *Jail) Restore(cell, destDir string) (string, error) {
	name, err := OriginalName(cell)
	if err != nil {
		return "", err
	}
	src := filepath.Join(j.dir, filepath.Base(cell))
	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("quarantine file not found: %s", cell)
	}

	dest := filepath.Join(j.root.Resolve(destDir), name)
	if _, err := os.Lstat(dest); err == nil {
		return "", fmt.Errorf("restore target already exists: %s", dest)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("creating restore directory: %w", err)
	}
	if err := moveFile(src, dest); err != nil {
		return "", fmt.Errorf("restoring %s: %w", cell, err)
	}

	metaSrc := strings.TrimSuffix(src, jailSuffix) + jailMetaSuffix
	if _, err := os.Stat(metaSrc); err == nil {
		if err := moveFile(metaSrc, project.MetaPath(dest)); err != nil {
			return dest, fmt.Errorf("restoring sidecar of %s: %w", cell, err)
		}
	}
	return dest, nil
}

// moveFile renames src to dest, falling back to copy and delete when the
// two are on different devices.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return err
	}
	in.Close()
	return os.Remove(src)
}
