package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/critic-dev/critic/internal/analysis"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *Report) error {
	ew := &errWriter{w: w}

	ew.printf("Critic Code Review — %s/%s\n", report.Provider, report.Model)
	ew.printf("Job: %s\n", report.JobID)
	ew.println(strings.Repeat("─", 60))
	ew.printf("Units: %d total (%d ok, %d failed, %d cancelled)\n",
		report.Summary.Total,
		report.Summary.Succeeded,
		report.Summary.Failed,
		report.Summary.Cancelled,
	)
	ew.printf("Findings: %d total", report.Summary.TotalFindings)
	if report.Summary.TotalFindings > 0 {
		ew.printf(" (%d high, %d medium, %d low)",
			report.Summary.BySeverity[analysis.SeverityHigh],
			report.Summary.BySeverity[analysis.SeverityMedium],
			report.Summary.BySeverity[analysis.SeverityLow],
		)
	}
	ew.println("")
	ew.println(strings.Repeat("─", 60))
	if ew.err != nil {
		return ew.err
	}

	if len(report.Summary.Ranking) > 0 {
		ew.println("")
		table := tablewriter.NewWriter(w)
		table.Header("Category", "High", "Medium", "Low", "Total")
		for _, cat := range report.Summary.Ranking {
			row := report.Summary.Breakdown[cat]
			table.Append([]string{
				string(cat),
				fmt.Sprintf("%d", row[analysis.SeverityHigh]),
				fmt.Sprintf("%d", row[analysis.SeverityMedium]),
				fmt.Sprintf("%d", row[analysis.SeverityLow]),
				fmt.Sprintf("%d", report.Summary.ByCategory[cat]),
			})
		}
		table.Render()
	}

	for _, res := range report.Results {
		ew.printf("\n%s\n", res.Label)
		ew.println(strings.Repeat("─", 40))

		if res.Status != analysis.StatusSuccess {
			if res.Err != nil {
				ew.printf("  FAILED (%s): %s\n", res.Err.Kind, res.Err.Message)
			} else {
				ew.println("  FAILED")
			}
			continue
		}
		if len(res.Findings) == 0 {
			ew.println("  No issues found.")
			continue
		}
		for _, f := range res.Findings {
			ew.printf("\n  %s [%s] %s\n", severityIcon(f.Severity), f.Category, strings.ToUpper(string(f.Severity)))
			for _, line := range wrapText(f.Description, 70) {
				ew.printf("    %s\n", line)
			}
			if f.Before != "" {
				ew.printf("    before: %s\n", f.Before)
			}
			if f.After != "" {
				ew.printf("    after:  %s\n", f.After)
			}
		}
	}

	if len(report.Skipped) > 0 {
		ew.printf("\n%s\n", strings.Repeat("─", 60))
		ew.printf("Skipped %d file(s):\n", len(report.Skipped))
		for _, s := range report.Skipped {
			ew.printf("  %s (%s)\n", s.Path, s.Reason)
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Average unit time: %dms\n", report.Summary.AvgElapsedMs)

	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func severityIcon(s analysis.Severity) string {
	switch s {
	case analysis.SeverityHigh:
		return "[!!]"
	case analysis.SeverityMedium:
		return "[!]"
	case analysis.SeverityLow:
		return "[-]"
	default:
		return "[?]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
