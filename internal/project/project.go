// Package project maps artifact paths, which are project-relative with
// forward slashes ("Assets/Scripts/Foo.cs"), onto the file system.
package project

import (
	"path/filepath"
	"strings"
)

// Root is the project directory that relative artifact paths are resolved
// against. The zero value resolves against the working directory.
type Root string

// Resolve returns the file-system path for an artifact path. Absolute
// paths are returned unchanged.
func (r Root) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	local := filepath.FromSlash(p)
	if r == "" {
		return local
	}
	return filepath.Join(string(r), local)
}

// Rel converts a file-system path under the root back to an artifact path.
// Paths outside the root are returned in slash form unchanged.
func (r Root) Rel(fsPath string) string {
	base := string(r)
	if base == "" {
		base = "."
	}
	rel, err := filepath.Rel(base, fsPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(fsPath)
	}
	return filepath.ToSlash(rel)
}

// Ext returns the lowercased extension of an artifact path.
func Ext(p string) string {
	return strings.ToLower(filepath.Ext(p))
}

// MetaPath returns the path of the ".meta" sidecar that accompanies every
// artifact in the project.
func MetaPath(p string) string {
	return p + ".meta"
}
