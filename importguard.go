// Package importguard provides a public API for classifying artifacts that
// enter a Unity project and acting on the suspicious ones.
//
// This is the library entry point. For the CLI tool, see cmd/importguard/.
package importguard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/garagon/importguard/internal/classifier"
	"github.com/garagon/importguard/internal/project"
	"github.com/garagon/importguard/internal/remediation"
	"github.com/garagon/importguard/internal/rules"
	"github.com/garagon/importguard/internal/scanner"
	"github.com/garagon/importguard/internal/types"
)

// Re-export core types from internal/types so consumers don't need to
// import internal packages.
type (
	Reason      = types.Reason
	Verdict     = types.Verdict
	Batch       = types.Batch
	BatchResult = types.BatchResult
	Removal     = types.Removal
	Action      = types.Action
	Remover     = remediation.Remover
)

const (
	ReasonInvalidPath      = types.ReasonInvalidPath
	ReasonMissingFile      = types.ReasonMissingFile
	ReasonUnknownType      = types.ReasonUnknownType
	ReasonOversizedScript  = types.ReasonOversizedScript
	ReasonDangerousPattern = types.ReasonDangerousPattern
	ReasonEmbeddedScript   = types.ReasonEmbeddedScript
	ReasonDenylistMatch    = types.ReasonDenylistMatch
	ReasonReadError        = types.ReasonReadError
	ReasonLoadError        = types.ReasonLoadError
)

// RuleInfo provides summary metadata about a dangerous-pattern rule.
type RuleInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Value    string `json:"value"`
}

// RuleDetail provides full information about a rule, including examples.
type RuleDetail struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Category       string   `json:"category"`
	Description    string   `json:"description"`
	Value          string   `json:"value"`
	TruePositives  []string `json:"true_positives"`
	FalsePositives []string `json:"false_positives"`
}

// ExtensionInfo describes one known asset type.
type ExtensionInfo struct {
	Ext  string `json:"ext"`
	Kind string `json:"kind"`
}

// Classify returns the verdict for one artifact of the project at root.
// The error is non-nil only when the policy cannot be loaded; every other
// failure is folded into a suspicious verdict.
func Classify(root, path string, opts ...Option) (Verdict, error) {
	cfg := applyOpts(opts)
	policy, err := loadPolicy(cfg)
	if err != nil {
		return Verdict{}, err
	}
	session := classifier.NewSession(policy, classifier.Options{
		Root:     project.Root(root),
		Denylist: cfg.denylist,
		MaxDepth: cfg.maxDepth,
		Logger:   cfg.logger,
	})
	return session.Classify(path), nil
}

// ScanBatch classifies the imported paths of batch and hands every
// suspicious one to the configured remover (report-only by default).
func ScanBatch(root string, batch Batch, opts ...Option) (*BatchResult, error) {
	cfg := applyOpts(opts)
	s, err := buildScanner(root, cfg)
	if err != nil {
		return nil, err
	}
	return s.ScanBatch(batch), nil
}

// Scan discovers every artifact of the project at root and scans them as
// one batch.
func Scan(root string, opts ...Option) (*BatchResult, error) {
	cfg := applyOpts(opts)
	s, err := buildScanner(root, cfg)
	if err != nil {
		return nil, err
	}
	return s.Scan()
}

// ValidatePolicy loads and compiles the policy selected by opts.
func ValidatePolicy(opts ...Option) error {
	_, err := loadPolicy(applyOpts(opts))
	return err
}

// ListRules returns all dangerous-pattern rules in evaluation order.
// Use WithCategory to filter by category.
func ListRules(opts ...Option) []RuleInfo {
	cfg := applyOpts(opts)
	policy, err := loadPolicy(cfg)
	if err != nil {
		return nil
	}

	var infos []RuleInfo
	for _, p := range policy.Patterns() {
		if cfg.category != "" && !strings.EqualFold(p.Category, cfg.category) {
			continue
		}
		infos = append(infos, RuleInfo{
			ID:       p.ID,
			Name:     p.Name,
			Category: p.Category,
			Value:    p.Value,
		})
	}
	return infos
}

// ListExtensions returns the known asset types, sorted by extension.
func ListExtensions(opts ...Option) []ExtensionInfo {
	cfg := applyOpts(opts)
	policy, err := loadPolicy(cfg)
	if err != nil {
		return nil
	}
	var infos []ExtensionInfo
	for _, ext := range policy.Extensions() {
		kind, _ := policy.KindOf(ext)
		infos = append(infos, ExtensionInfo{Ext: ext, Kind: string(kind)})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Ext < infos[j].Ext })
	return infos
}

// ExplainRule returns detailed information about a specific rule.
func ExplainRule(id string, opts ...Option) (*RuleDetail, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	cfg := applyOpts(opts)
	policy, err := loadPolicy(cfg)
	if err != nil {
		return nil, err
	}

	found, ok := policy.Pattern(id)
	if !ok {
		return nil, fmt.Errorf("rule %q not found", id)
	}
	return &RuleDetail{
		ID:             found.ID,
		Name:           found.Name,
		Category:       found.Category,
		Description:    found.Description,
		Value:          found.Value,
		TruePositives:  found.Examples.TruePositive,
		FalsePositives: found.Examples.FalsePositive,
	}, nil
}

// --- internal helpers ---

func applyOpts(opts []Option) *scanConfig {
	cfg := &scanConfig{}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// loadPolicy returns the built-in policy, or the policy file set with
// WithPolicyFile.
func loadPolicy(cfg *scanConfig) (*rules.Policy, error) {
	if cfg.policyFile == "" {
		policy, err := rules.Builtin()
		if err != nil {
			return nil, fmt.Errorf("loading built-in policy: %w", err)
		}
		return policy, nil
	}
	raw, err := rules.LoadFromFile(cfg.policyFile)
	if err != nil {
		return nil, fmt.Errorf("loading policy from %s: %w", cfg.policyFile, err)
	}
	policy, err := rules.Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("compiling policy %s: %w", cfg.policyFile, err)
	}
	return policy, nil
}

// buildScanner creates a fully wired Scanner.
func buildScanner(root string, cfg *scanConfig) (*scanner.Scanner, error) {
	policy, err := loadPolicy(cfg)
	if err != nil {
		return nil, err
	}

	s := scanner.New(policy, root)
	if cfg.selfPath != nil {
		s.SetSelfPath(*cfg.selfPath)
	}
	if cfg.denylist != "" {
		s.SetDenylist(cfg.denylist)
	}
	if len(cfg.ignorePatterns) > 0 {
		s.SetIgnorePatterns(cfg.ignorePatterns)
	}
	s.SetMaxDepth(cfg.maxDepth)
	if cfg.remover != nil {
		s.SetRemover(cfg.remover)
	}
	if cfg.progress != nil {
		s.SetProgress(cfg.progress)
	}
	if cfg.logger != nil {
		s.SetLogger(cfg.logger)
	}
	return s, nil
}
