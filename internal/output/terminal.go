package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/garagon/importguard/internal/types"
)

// ANSI color codes
const (
	reset     = "\033[0m"
	bold      = "\033[1m"
	dim       = "\033[2m"
	underline = "\033[4m"
	red       = "\033[31m"
	green     = "\033[32m"
	yellow    = "\033[33m"
	cyan      = "\033[36m"
)

const (
	barWidth     = 40
	lineWidth    = 72
	reasonWidth  = 26
	ruleIDWidth  = 20
	previewWidth = 60
)

// TerminalFormatter outputs verdicts grouped by reason, detections first.
type TerminalFormatter struct {
	NoColor bool
	Verbose bool
}

func (f *TerminalFormatter) color(code, text string) string {
	if f.NoColor {
		return text
	}
	return code + text + reset
}

func (f *TerminalFormatter) Format(w io.Writer, result *types.BatchResult) error {
	if !f.NoColor && os.Getenv("NO_COLOR") != "" {
		f.NoColor = true
	}

	f.printHeader(w, result)

	suspicious := result.SuspiciousVerdicts()
	if len(suspicious) == 0 {
		fmt.Fprintf(w, "\n  %s No suspicious assets found.\n", f.color(green, "✔"))
	} else {
		counts := result.CountByReason()
		f.printDashboard(w, counts)
		for _, reason := range types.AllReasons {
			filtered := filterByReason(suspicious, reason)
			if len(filtered) > 0 {
				f.printReasonSection(w, result, reason, filtered)
			}
		}
		f.printFailedRemovals(w, result)
	}

	if f.Verbose && len(result.Excluded) > 0 {
		fmt.Fprintf(w, "\n%s\n\n", f.color(bold, f.sectionHeader(fmt.Sprintf("EXCLUDED (%d)", len(result.Excluded)))))
		for _, p := range result.Excluded {
			fmt.Fprintf(w, "    %s\n", f.color(dim, p))
		}
	}

	f.printFooter(w, result)
	return nil
}

func (f *TerminalFormatter) separator() string {
	return strings.Repeat("─", lineWidth)
}

func (f *TerminalFormatter) sectionHeader(title string) string {
	prefix := "── " + title + " "
	displayLen := utf8.RuneCountInString(prefix)
	remaining := max(lineWidth-displayLen, 0)
	return prefix + strings.Repeat("─", remaining)
}

func (f *TerminalFormatter) printHeader(w io.Writer, result *types.BatchResult) {
	sep := f.separator()
	fmt.Fprintf(w, "\n%s\n", f.color(dim, sep))
	fmt.Fprintf(w, "  %s\n", f.color(bold, "IMPORTGUARD SCAN RESULTS"))

	parts := []string{}
	if result.Target != "" {
		parts = append(parts, fmt.Sprintf("Target: %s", result.Target))
	}
	if result.BatchID != "" {
		parts = append(parts, fmt.Sprintf("Batch: %s", shortID(result.BatchID)))
	}
	parts = append(parts, fmt.Sprintf("%d assets", len(result.Verdicts)))
	if result.Duration > 0 {
		parts = append(parts, fmt.Sprintf("%.2fs", result.Duration.Seconds()))
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(parts, "  ·  "))
	fmt.Fprintf(w, "%s\n", f.color(dim, sep))
}

func (f *TerminalFormatter) printDashboard(w io.Writer, counts map[types.Reason]int) {
	max := 0
	total := 0
	for _, c := range counts {
		total += c
		if c > max {
			max = c
		}
	}
	if max == 0 {
		return
	}

	fmt.Fprintln(w)
	for _, reason := range types.AllReasons {
		c := counts[reason]
		if c == 0 {
			continue
		}
		label := fmt.Sprintf("  %-*s", reasonWidth, reason.String())
		bar := f.renderBar(c, max, barWidth, reason)
		fmt.Fprintf(w, "%s %s %4d\n", f.color(bold, label), bar, c)
	}
	fmt.Fprintf(w, "\n  %s\n", f.color(bold, fmt.Sprintf("%d suspicious", total)))
}

func (f *TerminalFormatter) printReasonSection(w io.Writer, result *types.BatchResult, reason types.Reason, verdicts []types.Verdict) {
	title := fmt.Sprintf("%s (%d)", strings.ToUpper(reason.String()), len(verdicts))
	fmt.Fprintf(w, "\n%s\n", f.color(bold, f.sectionHeader(title)))
	if f.Verbose {
		fmt.Fprintf(w, "  %s\n", f.color(dim, reason.Description()))
	}
	fmt.Fprintln(w)

	for _, v := range verdicts {
		action := ""
		if r, ok := removalFor(result, v.Path); ok {
			action = f.color(dim, "["+string(r.Action)+"]")
		}
		fmt.Fprintf(w, "    %s %s %s\n", f.reasonIcon(reason), f.color(cyan, v.Path), action)

		if e := evidence(v); e != "" {
			fmt.Fprintf(w, "      %s %s\n", f.color(dim, "│"), f.color(dim, truncate(e, previewWidth)))
		}
		if f.Verbose {
			for c := v.Cause; c != nil; c = c.Cause {
				line := fmt.Sprintf("via %s: %s", c.Path, c.Reason.String())
				if e := evidence(*c); e != "" {
					line += " (" + truncate(e, previewWidth) + ")"
				}
				fmt.Fprintf(w, "      %s %s\n", f.color(dim, "│"), f.color(yellow, line))
			}
		}
	}
}

func (f *TerminalFormatter) printFailedRemovals(w io.Writer, result *types.BatchResult) {
	var failed []types.Removal
	for _, r := range result.Removals {
		if r.Error != "" {
			failed = append(failed, r)
		}
	}
	if len(failed) == 0 {
		return
	}

	fmt.Fprintf(w, "\n%s\n\n", f.color(bold, f.sectionHeader(fmt.Sprintf("REMOVAL ERRORS (%d)", len(failed)))))
	for _, r := range failed {
		fmt.Fprintf(w, "    %s %s\n", f.color(red, "!"), f.color(bold+underline, r.Path))
		fmt.Fprintf(w, "      %s %s\n", f.color(dim, "│"), truncate(r.Error, previewWidth))
	}
}

func (f *TerminalFormatter) printFooter(w io.Writer, result *types.BatchResult) {
	sep := f.separator()
	fmt.Fprintf(w, "\n%s\n", f.color(dim, sep))

	parts := []string{
		fmt.Sprintf("%d assets scanned", len(result.Verdicts)),
		fmt.Sprintf("%d suspicious", len(result.SuspiciousVerdicts())),
	}
	if n := len(result.Excluded); n > 0 {
		parts = append(parts, fmt.Sprintf("%d excluded", n))
	}
	if result.Duration > 0 {
		parts = append(parts, fmt.Sprintf("%.2fs", result.Duration.Seconds()))
	}

	fmt.Fprintf(w, "  %s\n", strings.Join(parts, " · "))
	fmt.Fprintf(w, "%s\n", f.color(dim, sep))
}

func (f *TerminalFormatter) reasonIcon(r types.Reason) string {
	if r.IsFailure() {
		return f.color(yellow, "▲")
	}
	return f.color(red+bold, "✖")
}

func (f *TerminalFormatter) reasonColor(r types.Reason) string {
	if r.IsFailure() {
		return yellow
	}
	return red
}

func (f *TerminalFormatter) renderBar(count, max, width int, r types.Reason) string {
	if max == 0 {
		return strings.Repeat("░", width)
	}
	filled := count * width / max
	if filled == 0 && count > 0 {
		filled = 1
	}
	// Always keep at least 1 empty block so bar boundary is visible
	if filled >= width {
		filled = width - 1
	}
	empty := width - filled

	filledStr := strings.Repeat("█", filled)
	emptyStr := strings.Repeat("░", empty)
	return f.color(f.reasonColor(r), filledStr) + f.color(dim, emptyStr)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
