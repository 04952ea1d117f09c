// Package types defines shared data structures (Reason, Verdict, Batch,
// BatchResult) used across the classifier, scanner, engine and output
// packages to prevent import cycles.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Reason tags why an artifact was classified suspicious.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonInvalidPath      Reason = "invalid-path"
	ReasonMissingFile      Reason = "missing-file"
	ReasonUnknownType      Reason = "unknown-type"
	ReasonOversizedScript  Reason = "oversized-script"
	ReasonDangerousPattern Reason = "dangerous-pattern"
	ReasonEmbeddedScript   Reason = "embedded-malicious-script"
	ReasonDenylistMatch    Reason = "denylist-match"
	ReasonReadError        Reason = "read-error"
	ReasonLoadError        Reason = "load-error"
)

// AllReasons lists every suspicious reason in pipeline order.
var AllReasons = []Reason{
	ReasonInvalidPath,
	ReasonMissingFile,
	ReasonUnknownType,
	ReasonOversizedScript,
	ReasonDangerousPattern,
	ReasonEmbeddedScript,
	ReasonDenylistMatch,
	ReasonReadError,
	ReasonLoadError,
}

func (r Reason) String() string {
	if r == ReasonNone {
		return "clean"
	}
	return string(r)
}

var reasonDescriptions = map[Reason]string{
	ReasonInvalidPath:      "Artifact path is empty or blank",
	ReasonMissingFile:      "Artifact does not exist on disk",
	ReasonUnknownType:      "Extension is not a known asset type",
	ReasonOversizedScript:  "Script exceeds the maximum script size",
	ReasonDangerousPattern: "Script references a dangerous API",
	ReasonEmbeddedScript:   "Composite asset embeds a suspicious script or prefab",
	ReasonDenylistMatch:    "Path contains a known-bad indicator",
	ReasonReadError:        "Content could not be read",
	ReasonLoadError:        "Composite asset could not be loaded",
}

// Description returns a one-line human description of r.
func (r Reason) Description() string {
	if d, ok := reasonDescriptions[r]; ok {
		return d
	}
	return "No issue"
}

// IsFailure reports whether r records a failed check rather than a
// positive detection.
func (r Reason) IsFailure() bool {
	switch r {
	case ReasonInvalidPath, ReasonMissingFile, ReasonReadError, ReasonLoadError:
		return true
	}
	return false
}

// ParseReason converts a string to a Reason tag.
func ParseReason(s string) (Reason, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for _, r := range AllReasons {
		if string(r) == want {
			return r, nil
		}
	}
	return ReasonNone, fmt.Errorf("unknown reason: %q", s)
}

// Verdict is the result of classifying one artifact.
type Verdict struct {
	Path       string   `json:"path"`
	Suspicious bool     `json:"suspicious"`
	Reason     Reason   `json:"reason,omitempty"`
	RuleID     string   `json:"rule_id,omitempty"`
	Evidence   string   `json:"evidence,omitempty"`
	Line       int      `json:"line,omitempty"`
	Cause      *Verdict `json:"cause,omitempty"`
}

// Clean returns a clean verdict for path.
func Clean(path string) Verdict {
	return Verdict{Path: path}
}

// Suspicious returns a suspicious verdict for path with the given reason.
func Suspicious(path string, reason Reason, evidence string) Verdict {
	return Verdict{Path: path, Suspicious: true, Reason: reason, Evidence: evidence}
}

// Origin follows the Cause chain to the innermost verdict.
func (v Verdict) Origin() Verdict {
	for v.Cause != nil {
		v = *v.Cause
	}
	return v
}

// Batch is one import event delivered by the host pipeline.
// Only Imported is classified.
type Batch struct {
	ID        string   `json:"id"`
	Imported  []string `json:"imported"`
	Deleted   []string `json:"deleted,omitempty"`
	Moved     []string `json:"moved,omitempty"`
	MovedFrom []string `json:"moved_from,omitempty"`
}

// Action names what a remover did with a suspicious artifact.
type Action string

const (
	ActionDeleted     Action = "deleted"
	ActionQuarantined Action = "quarantined"
	ActionReported    Action = "reported"
	ActionKept        Action = "kept"
	ActionFailed      Action = "failed"
)

// Removal records the outcome of one removal attempt.
type Removal struct {
	Path        string `json:"path"`
	Action      Action `json:"action"`
	Destination string `json:"destination,omitempty"`
	Error       string `json:"error,omitempty"`
}

// BatchResult holds the complete results of one scanned batch.
type BatchResult struct {
	BatchID  string        `json:"batch_id"`
	Verdicts []Verdict     `json:"verdicts"`
	Excluded []string      `json:"excluded,omitempty"`
	Removals []Removal     `json:"removals,omitempty"`
	Duration time.Duration `json:"-"`
	Target   string        `json:"-"`
}

// SuspiciousVerdicts returns only the suspicious verdicts, in scan order.
func (r *BatchResult) SuspiciousVerdicts() []Verdict {
	var out []Verdict
	for _, v := range r.Verdicts {
		if v.Suspicious {
			out = append(out, v)
		}
	}
	return out
}

// CountByReason tallies suspicious verdicts per reason.
func (r *BatchResult) CountByReason() map[Reason]int {
	counts := make(map[Reason]int)
	for _, v := range r.Verdicts {
		if v.Suspicious {
			counts[v.Reason]++
		}
	}
	return counts
}

// MarshalJSON implements custom JSON marshaling so Duration serializes as milliseconds.
func (r BatchResult) MarshalJSON() ([]byte, error) {
	type Alias BatchResult
	return json.Marshal(struct {
		Alias
		Scanned    int   `json:"scanned"`
		Suspicious int   `json:"suspicious"`
		DurationMS int64 `json:"duration_ms"`
	}{
		Alias:      Alias(r),
		Scanned:    len(r.Verdicts),
		Suspicious: len(r.SuspiciousVerdicts()),
		DurationMS: r.Duration.Milliseconds(),
	})
}
