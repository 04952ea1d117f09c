// Package output formats batch results for terminal (ANSI), JSON, SARIF,
// and Markdown output.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/garagon/importguard/internal/types"
)

// Formatter is the interface for outputting scan results.
type Formatter interface {
	Format(w io.Writer, result *types.BatchResult) error
}

// Formats lists the accepted format names.
var Formats = []string{"terminal", "json", "sarif", "markdown"}

// ForName returns the formatter registered under name. Empty selects the
// terminal formatter.
func ForName(name string, noColor, verbose bool) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", "terminal":
		return &TerminalFormatter{NoColor: noColor, Verbose: verbose}, nil
	case "json":
		return &JSONFormatter{}, nil
	case "sarif":
		return &SARIFFormatter{}, nil
	case "markdown", "md":
		return &MarkdownFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (valid: %s)", name, strings.Join(Formats, ", "))
	}
}

// removalFor returns the removal recorded for path, if any.
func removalFor(result *types.BatchResult, path string) (types.Removal, bool) {
	for _, r := range result.Removals {
		if r.Path == path {
			return r, true
		}
	}
	return types.Removal{}, false
}

// filterByReason returns the suspicious verdicts tagged reason.
func filterByReason(verdicts []types.Verdict, reason types.Reason) []types.Verdict {
	var result []types.Verdict
	for _, v := range verdicts {
		if v.Suspicious && v.Reason == reason {
			result = append(result, v)
		}
	}
	return result
}

// evidence renders the evidence of v, with the rule ID and line for pattern
// hits.
func evidence(v types.Verdict) string {
	e := v.Evidence
	if v.RuleID != "" && e != "" {
		e = v.RuleID + " " + e
	}
	if v.Line > 0 && e != "" {
		e += fmt.Sprintf(" (line %d)", v.Line)
	}
	return e
}
