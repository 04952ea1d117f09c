// Package pattern implements the content check for script artifacts: plain,
// case-sensitive substring search for dangerous API usage.
package pattern

import (
	"strings"

	"github.com/garagon/importguard/internal/cache"
	"github.com/garagon/importguard/internal/project"
	"github.com/garagon/importguard/internal/rules"
)

// Hit is the first dangerous pattern found in a script.
type Hit struct {
	Pattern rules.Pattern
	Line    int
}

// Matcher scans script content loaded through a batch cache.
type Matcher struct {
	patterns []rules.Pattern
	cache    *cache.Cache
	root     project.Root
}

// NewMatcher creates a pattern matcher over the policy's pattern set.
func NewMatcher(policy *rules.Policy, c *cache.Cache, root project.Root) *Matcher {
	return &Matcher{
		patterns: policy.Patterns(),
		cache:    c,
		root:     root,
	}
}

func (m *Matcher) Name() string { return "pattern" }

// Match returns the first pattern, in policy order, contained in the
// content of path, or nil if none is. Read failures are returned as errors.
func (m *Matcher) Match(path string) (*Hit, error) {
	content, err := m.cache.Get(m.root.Resolve(path))
	if err != nil {
		return nil, err
	}
	for _, pat := range m.patterns {
		if pos := strings.Index(content, pat.Value); pos >= 0 {
			return &Hit{Pattern: pat, Line: lineNumberAtOffset(content, pos)}, nil
		}
	}
	return nil, nil
}

// HasDangerousPattern reports whether path contains any dangerous pattern.
func (m *Matcher) HasDangerousPattern(path string) (bool, error) {
	hit, err := m.Match(path)
	return hit != nil, err
}

func lineNumberAtOffset(content string, offset int) int {
	return strings.Count(content[:offset], "\n") + 1
}
