package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/critic-dev/critic/internal/analysis"
	"github.com/critic-dev/critic/internal/batch"
	"github.com/critic-dev/critic/internal/input"
)

// Report is the complete outcome of one batch, ready to render.
type Report struct {
	JobID       string            `json:"jobId"`
	Provider    string            `json:"provider"`
	Model       string            `json:"model"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Results     []analysis.Result `json:"results"`
	Skipped     []input.Skipped   `json:"skipped,omitempty"`
	Summary     batch.Summary     `json:"summary"`
}

// Writer renders a report in one format.
type Writer interface {
	Write(w io.Writer, report *Report) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown":
		return &MarkdownWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport renders the report to outPath, or stdout when outPath is
// empty.
func WriteReport(report *Report, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, report)
}
