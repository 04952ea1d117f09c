// Package rules loads and compiles the classification policy: the
// recognized extension set, the script size limit and the dangerous
// pattern set.
package rules

import "sort"

// Kind classifies an artifact by how its content is inspected.
type Kind string

const (
	KindScript    Kind = "script"    // text scanned for dangerous patterns
	KindComposite Kind = "composite" // object graph scanned for embedded scripts
	KindPlain     Kind = "plain"     // metadata and denylist only
)

// RawExtension is a single recognized extension as defined in YAML.
type RawExtension struct {
	Ext  string `yaml:"ext"`
	Kind Kind   `yaml:"kind"`
}

// RawExamples contains test examples for pattern self-testing.
type RawExamples struct {
	TruePositive  []string `yaml:"true_positive"`
	FalsePositive []string `yaml:"false_positive"`
}

// RawPattern is the YAML representation of a dangerous pattern.
type RawPattern struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Category    string      `yaml:"category"`
	Description string      `yaml:"description"`
	Value       string      `yaml:"value"`
	Examples    RawExamples `yaml:"examples"`
}

// RawPolicy is the YAML representation of the whole policy file.
type RawPolicy struct {
	MaxScriptSize int64          `yaml:"max_script_size"`
	Extensions    []RawExtension `yaml:"extensions"`
	Patterns      []RawPattern   `yaml:"patterns"`
}

// Pattern is a compiled dangerous pattern. Value is matched as a
// case-sensitive substring.
type Pattern struct {
	ID          string
	Name        string
	Category    string
	Description string
	Value       string
	Examples    RawExamples
}

// Policy is the compiled, read-only classification policy.
type Policy struct {
	maxScriptSize int64
	kinds         map[string]Kind
	patterns      []Pattern
}

// MaxScriptSize returns the size limit in bytes for script artifacts.
func (p *Policy) MaxScriptSize() int64 { return p.maxScriptSize }

// KindOf returns the kind registered for a lowercased extension.
func (p *Policy) KindOf(ext string) (Kind, bool) {
	k, ok := p.kinds[ext]
	return k, ok
}

// Extensions returns the recognized extensions, sorted.
func (p *Policy) Extensions() []string {
	exts := make([]string, 0, len(p.kinds))
	for ext := range p.kinds {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Patterns returns a copy of the pattern set in declaration order.
func (p *Policy) Patterns() []Pattern {
	out := make([]Pattern, len(p.patterns))
	copy(out, p.patterns)
	return out
}

// Pattern looks up a pattern by ID.
func (p *Policy) Pattern(id string) (Pattern, bool) {
	for _, pat := range p.patterns {
		if pat.ID == id {
			return pat, true
		}
	}
	return Pattern{}, false
}
