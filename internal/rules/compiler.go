package rules

import (
	"fmt"
	"strings"
	"sync"

	"github.com/garagon/importguard/internal/rules/builtin"
)

// Compile validates a RawPolicy and converts it into a Policy.
func Compile(raw RawPolicy) (*Policy, error) {
	if raw.MaxScriptSize <= 0 {
		return nil, fmt.Errorf("max_script_size must be positive, got %d", raw.MaxScriptSize)
	}
	if len(raw.Extensions) == 0 {
		return nil, fmt.Errorf("no extensions defined")
	}

	p := &Policy{
		maxScriptSize: raw.MaxScriptSize,
		kinds:         make(map[string]Kind, len(raw.Extensions)),
	}

	for i, e := range raw.Extensions {
		ext := strings.ToLower(strings.TrimSpace(e.Ext))
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return nil, fmt.Errorf("extension %d: invalid extension %q", i, e.Ext)
		}
		switch e.Kind {
		case KindScript, KindComposite, KindPlain:
		default:
			return nil, fmt.Errorf("extension %s: unknown kind %q", ext, e.Kind)
		}
		if _, dup := p.kinds[ext]; dup {
			return nil, fmt.Errorf("extension %s: declared twice", ext)
		}
		p.kinds[ext] = e.Kind
	}

	seen := make(map[string]bool, len(raw.Patterns))
	for i, rp := range raw.Patterns {
		if rp.ID == "" {
			return nil, fmt.Errorf("pattern %d: missing ID", i)
		}
		if seen[rp.ID] {
			return nil, fmt.Errorf("pattern %s: duplicate ID", rp.ID)
		}
		seen[rp.ID] = true
		// Patterns are matched verbatim, case-sensitive.
		if strings.TrimSpace(rp.Value) == "" {
			return nil, fmt.Errorf("pattern %s: empty value", rp.ID)
		}
		p.patterns = append(p.patterns, Pattern{
			ID:          rp.ID,
			Name:        rp.Name,
			Category:    rp.Category,
			Description: rp.Description,
			Value:       rp.Value,
			Examples:    rp.Examples,
		})
	}

	return p, nil
}

var builtinPolicy = sync.OnceValues(func() (*Policy, error) {
	raw, err := LoadFromFS(builtin.FS())
	if err != nil {
		return nil, fmt.Errorf("loading built-in policy: %w", err)
	}
	return Compile(raw)
})

// Builtin returns the process-wide built-in policy. It is compiled once
// and shared; callers must treat it as read-only.
func Builtin() (*Policy, error) {
	return builtinPolicy()
}

// MustBuiltin is like Builtin but panics if the embedded policy is invalid.
func MustBuiltin() *Policy {
	p, err := Builtin()
	if err != nil {
		panic(err)
	}
	return p
}
