package scanner

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/garagon/importguard/internal/project"
)

// IgnoreFile lists extra ignore globs, one per line, at the project root.
const IgnoreFile = ".importguardignore"

// contentDirs are the project directories the editor imports from.
var contentDirs = []string{"Assets", "Packages"}

// TargetDiscovery walks a project and returns its importable artifacts.
type TargetDiscovery struct {
	IgnorePatterns []string
}

// Discover walks the content directories of root and returns artifact
// paths in slash form relative to root, respecting .importguardignore.
// ".meta" sidecars and hidden entries are skipped.
func (td *TargetDiscovery) Discover(root string) ([]string, error) {
	patterns := append(LoadIgnoreFile(root), td.IgnorePatterns...)
	r := project.Root(root)

	var paths []string
	for _, dir := range contentDirs {
		base := r.Resolve(dir)
		if _, err := os.Stat(base); err != nil {
			continue
		}
		err := filepath.Walk(base, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil // skip inaccessible files
			}
			name := info.Name()
			if info.IsDir() {
				if path != base && isHidden(name) {
					return filepath.SkipDir
				}
				return nil
			}
			if isHidden(name) || isSidecar(name) {
				return nil
			}
			rel := r.Rel(path)
			if isIgnored(patterns, rel) {
				return nil
			}
			paths = append(paths, rel)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadIgnoreFile reads the ignore globs of root. A missing file yields none.
func LoadIgnoreFile(root string) []string {
	f, err := os.Open(filepath.Join(root, IgnoreFile))
	if err != nil {
		return nil
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns
}

func isIgnored(patterns []string, relPath string) bool {
	for _, pattern := range patterns {
		if matchGlob(pattern, relPath) {
			return true
		}
	}
	return false
}

// isHidden matches the entries the editor itself never imports: dot files
// and names ending in "~".
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~")
}

func isSidecar(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".meta")
}

// matchGlob supports ** globs that filepath.Match does not.
// "dir/**" matches any file under dir/ at any depth.
// "**/*.yaml" matches any .yaml file at any depth.
func matchGlob(pattern, relPath string) bool {
	// Fast path: no ** means filepath.Match is sufficient
	if !strings.Contains(pattern, "**") {
		if matched, _ := filepath.Match(pattern, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(relPath)); matched {
			return true
		}
		return false
	}

	// "prefix/**" → match anything under prefix/
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		if strings.HasPrefix(relPath, prefix+"/") || relPath == prefix {
			return true
		}
	}

	// "**/<glob>" → match <glob> against every path suffix
	if strings.HasPrefix(pattern, "**/") {
		suffix := strings.TrimPrefix(pattern, "**/")
		parts := strings.Split(relPath, "/")
		for i := range parts {
			candidate := strings.Join(parts[i:], "/")
			if matched, _ := filepath.Match(suffix, candidate); matched {
				return true
			}
		}
	}

	// "prefix/**/suffix" → prefix matches start, suffix matches rest
	if idx := strings.Index(pattern, "/**/"); idx >= 0 {
		prefix := pattern[:idx]
		suffix := pattern[idx+4:]
		if strings.HasPrefix(relPath, prefix+"/") {
			rest := strings.TrimPrefix(relPath, prefix+"/")
			parts := strings.Split(rest, "/")
			for i := range parts {
				candidate := strings.Join(parts[i:], "/")
				if matched, _ := filepath.Match(suffix, candidate); matched {
					return true
				}
			}
		}
	}

	return false
}
