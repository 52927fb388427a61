package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/critic-dev/critic/internal/analysis"
)

// MarkdownWriter outputs a shareable markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *Report) error {
	fmt.Fprintf(w, "# Critic Code Review\n\n")
	fmt.Fprintf(w, "**Job:** `%s`  \n", report.JobID)
	fmt.Fprintf(w, "**Model:** %s/%s  \n", report.Provider, report.Model)
	fmt.Fprintf(w, "**Generated:** %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(w, "## Summary\n\n")
	fmt.Fprintf(w, "| Severity | Count |\n")
	fmt.Fprintf(w, "|----------|-------|\n")
	fmt.Fprintf(w, "| High     | %d    |\n", report.Summary.BySeverity[analysis.SeverityHigh])
	fmt.Fprintf(w, "| Medium   | %d    |\n", report.Summary.BySeverity[analysis.SeverityMedium])
	fmt.Fprintf(w, "| Low      | %d    |\n", report.Summary.BySeverity[analysis.SeverityLow])
	fmt.Fprintf(w, "| **Total** | **%d** |\n\n", report.Summary.TotalFindings)

	if len(report.Summary.Ranking) > 0 {
		fmt.Fprintf(w, "### Categories by severity\n\n")
		for i, cat := range report.Summary.Ranking {
			fmt.Fprintf(w, "%d. %s (%d)\n", i+1, cat, report.Summary.ByCategory[cat])
		}
		fmt.Fprintln(w)
	}

	if report.Summary.TotalFindings == 0 && report.Summary.Failed == 0 {
		fmt.Fprintln(w, "No issues found. :white_check_mark:")
		return nil
	}

	for _, res := range report.Results {
		fmt.Fprintf(w, "## %s\n\n", res.Label)

		if res.Status != analysis.StatusSuccess {
			if res.Err != nil {
				fmt.Fprintf(w, "Analysis failed (%s): %s\n\n", res.Err.Kind, res.Err.Message)
			} else {
				fmt.Fprintf(w, "Analysis failed.\n\n")
			}
			continue
		}
		if len(res.Findings) == 0 {
			fmt.Fprintf(w, "No issues found.\n\n")
			continue
		}

		for _, f := range res.Findings {
			fmt.Fprintf(w, "### %s %s `%s`\n\n", mdSeverityIcon(f.Severity), strings.ToUpper(string(f.Severity)), f.Category)
			fmt.Fprintf(w, "%s\n\n", f.Description)
			if f.Before != "" {
				fmt.Fprintf(w, "**Before:**\n\n```\n%s\n```\n\n", f.Before)
			}
			if f.After != "" {
				fmt.Fprintf(w, "**After:**\n\n```\n%s\n```\n\n", f.After)
			}
		}

		if res.RewrittenCode != "" {
			fmt.Fprintf(w, "<details>\n<summary>Improved version</summary>\n\n")
			fmt.Fprintf(w, "```\n%s\n```\n\n</details>\n\n", res.RewrittenCode)
		}
	}

	if len(report.Skipped) > 0 {
		fmt.Fprintf(w, "## Skipped files\n\n")
		for _, s := range report.Skipped {
			fmt.Fprintf(w, "- `%s` (%s)\n", s.Path, s.Reason)
		}
		fmt.Fprintln(w)
	}

	return nil
}

func mdSeverityIcon(s analysis.Severity) string {
	switch s {
	case analysis.SeverityHigh:
		return ":red_circle:"
	case analysis.SeverityMedium:
		return ":yellow_circle:"
	case analysis.SeverityLow:
		return ":white_circle:"
	default:
		return ":question:"
	}
}
