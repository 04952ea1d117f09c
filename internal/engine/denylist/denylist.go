// Package denylist matches artifact paths against a line-oriented list of
// known-bad path indicators.
package denylist

import (
	"fmt"
	"strings"

	"github.com/garagon/importguard/internal/cache"
	"github.com/garagon/importguard/internal/project"
)

// DefaultSource is the indicator file, relative to the project root.
const DefaultSource = "Packages/com.garagon.importguard/Resources/indicators.txt"

// Matcher holds the indicator entries for one batch. The source is read
// through the batch cache on first use and parsed once.
type Matcher struct {
	source  string
	root    project.Root
	cache   *cache.Cache
	entries []string
	err     error
	loaded  bool
}

// NewMatcher creates a Matcher for the indicator file at source.
func NewMatcher(source string, c *cache.Cache, root project.Root) *Matcher {
	if source == "" {
		source = DefaultSource
	}
	return &Matcher{source: source, root: root, cache: c}
}

// Source returns the indicator file path.
func (m *Matcher) Source() string { return m.source }

// Entries returns the parsed indicators.
func (m *Matcher) Entries() ([]string, error) {
	if !m.loaded {
		m.load()
	}
	return m.entries, m.err
}

// MatchesDenylist returns the first indicator contained in path. An
// unreadable indicator source is returned as an error so the caller can
// fail closed.
func (m *Matcher) MatchesDenylist(path string) (string, bool, error) {
	entries, err := m.Entries()
	if err != nil {
		return "", false, err
	}
	for _, e := range entries {
		if strings.Contains(path, e) {
			return e, true, nil
		}
	}
	return "", false, nil
}

func (m *Matcher) load() {
	m.loaded = true
	content, err := m.cache.Get(m.root.Resolve(m.source))
	if err != nil {
		m.err = fmt.Errorf("reading indicator source %s: %w", m.source, err)
		return
	}
	m.entries = Parse(content)
}

// Parse splits indicator content into trimmed entries. Blank lines and
// lines starting with '#' are dropped.
func Parse(content string) []string {
	var entries []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	return entries
}
