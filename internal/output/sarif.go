package output

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/garagon/importguard/internal/types"
)

// ToolVersion is the importguard version reported in SARIF output.
var ToolVersion = "dev"

const informationURI = "https://github.com/garagon/importguard"

// SARIFFormatter outputs suspicious verdicts in SARIF 2.1.0 format for
// GitHub Code Scanning. Pattern hits use their rule ID; every other
// verdict uses its reason as the rule ID.
type SARIFFormatter struct{}

func (f *SARIFFormatter) Format(w io.Writer, result *types.BatchResult) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("creating SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI("importguard", informationURI)
	version := ToolVersion
	run.Tool.Driver.SemanticVersion = &version

	seen := make(map[string]bool)
	for _, v := range result.SuspiciousVerdicts() {
		id := ruleID(v)
		level := level(v.Reason)
		if !seen[id] {
			seen[id] = true
			run.AddRule(id).
				WithDescription(v.Reason.Description()).
				WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: level})
		}

		physical := sarif.NewPhysicalLocation().
			WithArtifactLocation(sarif.NewArtifactLocation().WithUri(v.Path))
		if v.Line > 0 {
			physical.WithRegion(sarif.NewRegion().WithStartLine(v.Line))
		}
		location := sarif.NewLocation().WithPhysicalLocation(physical)
		res := sarif.NewRuleResult(id).
			WithMessage(sarif.NewTextMessage(message(v))).
			WithLevel(level).
			WithLocations([]*sarif.Location{location})

		props := map[string]interface{}{"reason": string(v.Reason)}
		if origin := v.Origin(); origin.Path != v.Path {
			props["origin"] = origin.Path
		}
		if r, ok := removalFor(result, v.Path); ok {
			props["action"] = string(r.Action)
		}
		res.Properties = props
		run.AddResult(res)
	}
	report.AddRun(run)
	return report.PrettyWrite(w)
}

func ruleID(v types.Verdict) string {
	if v.RuleID != "" {
		return v.RuleID
	}
	return string(v.Reason)
}

func message(v types.Verdict) string {
	msg := v.Reason.Description()
	if e := v.Evidence; e != "" {
		msg += ": " + e
	}
	return msg
}

// level maps fail-closed verdicts to warnings and detections to errors.
func level(r types.Reason) string {
	if r.IsFailure() {
		return "warning"
	}
	return "error"
}
