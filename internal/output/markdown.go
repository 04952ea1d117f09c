package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/garagon/importguard/internal/types"
)

// MarkdownFormatter outputs verdicts as GitHub-flavored markdown,
// designed for GitHub Actions Job Summaries and PR comments.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(w io.Writer, result *types.BatchResult) error {
	suspicious := result.SuspiciousVerdicts()
	if len(suspicious) == 0 {
		f.printClean(w, result)
		return nil
	}

	f.printSummary(w, result, result.CountByReason())
	f.printVerdicts(w, result, suspicious)
	f.printFooter(w)
	return nil
}

func (f *MarkdownFormatter) printClean(w io.Writer, result *types.BatchResult) {
	fmt.Fprintf(w, "### :white_check_mark: ImportGuard Scan: no suspicious assets\n\n")
	fmt.Fprintf(w, "> %d assets scanned · %d excluded · %.2fs\n",
		len(result.Verdicts), len(result.Excluded), result.Duration.Seconds())
}

func (f *MarkdownFormatter) printSummary(w io.Writer, result *types.BatchResult, counts map[types.Reason]int) {
	total := 0
	for _, c := range counts {
		total += c
	}

	fmt.Fprintf(w, "### :rotating_light: ImportGuard Scan: %d suspicious assets\n\n", total)
	fmt.Fprintf(w, "> **Target:** `%s` · batch `%s` · %d assets · %.2fs\n\n",
		result.Target, result.BatchID, len(result.Verdicts), result.Duration.Seconds())

	var badges []string
	for _, reason := range types.AllReasons {
		c := counts[reason]
		if c == 0 {
			continue
		}
		badges = append(badges, fmt.Sprintf("%s **%d %s**", reasonEmoji(reason), c, reason.String()))
	}
	fmt.Fprintf(w, "%s\n\n", strings.Join(badges, " · "))
}

func (f *MarkdownFormatter) printVerdicts(w io.Writer, result *types.BatchResult, verdicts []types.Verdict) {
	for _, reason := range types.AllReasons {
		filtered := filterByReason(verdicts, reason)
		if len(filtered) == 0 {
			continue
		}

		fmt.Fprintf(w, "<details%s>\n", openByDefault(reason))
		fmt.Fprintf(w, "<summary>%s <strong>%s (%d)</strong></summary>\n\n", reasonEmoji(reason), reason.String(), len(filtered))
		fmt.Fprintf(w, "| Asset | Evidence | Action |\n")
		fmt.Fprintf(w, "|-------|----------|--------|\n")

		for _, v := range filtered {
			ev := escapeMarkdown(truncateMarkdown(evidence(v), 60))
			if ev != "" {
				ev = "<code>" + ev + "</code>"
			}
			if origin := v.Origin(); origin.Path != v.Path {
				ev += fmt.Sprintf("<br>via `%s`", origin.Path)
			}
			action := ""
			if r, ok := removalFor(result, v.Path); ok {
				action = string(r.Action)
			}
			fmt.Fprintf(w, "| `%s` | %s | %s |\n", v.Path, ev, action)
		}

		fmt.Fprintf(w, "\n</details>\n\n")
	}
}

func (f *MarkdownFormatter) printFooter(w io.Writer) {
	fmt.Fprintf(w, "---\n")
	fmt.Fprintf(w, "*Scanned by [ImportGuard](%s) %s*\n", informationURI, ToolVersion)
}

func reasonEmoji(r types.Reason) string {
	if r.IsFailure() {
		return ":warning:"
	}
	return ":red_circle:"
}

func openByDefault(r types.Reason) string {
	if r.IsFailure() {
		return ""
	}
	return " open"
}

func truncateMarkdown(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
