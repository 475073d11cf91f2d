package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/mintmerge/internal/model"
)

// ruleWidth is the width of horizontal rules in plain-text output.
const ruleWidth = 70

// SimpleWriter outputs human-readable plain text for terminals.
type SimpleWriter struct {
	baseWriter

	// verbose lists fragment and backup paths in addition to the counts.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteBuild outputs a plain-text build summary.
func (w *SimpleWriter) WriteBuild(build *model.Build) (int, error) {
	var sb strings.Builder

	writeRule(&sb, "=")
	sb.WriteString("BUILD " + build.ID + "\n")
	writeRule(&sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Date:      %s\n", build.StartedAt.Format(timeLayout))
	fmt.Fprintf(&sb, "Root:      %s\n", build.Root)
	fmt.Fprintf(&sb, "Output:    %s\n", build.OutputPath)
	if build.BackupPath != "" {
		fmt.Fprintf(&sb, "Backup:    %s\n", build.BackupPath)
	}
	fmt.Fprintf(&sb, "Fragments: %d\n", len(build.Fragments))
	if len(build.Skipped) > 0 {
		fmt.Fprintf(&sb, "Skipped:   %d\n", len(build.Skipped))
	}

	if w.verbose {
		sb.WriteString("\n")
		for _, f := range build.Fragments {
			fmt.Fprintf(&sb, "  [+] %s\n", relativePath(build.Root, f.Path))
		}
		for _, p := range build.Skipped {
			fmt.Fprintf(&sb, "  [-] %s\n", relativePath(build.Root, p))
		}
	}

	return w.output.Write([]byte(sb.String()))
}

// WriteHistory outputs one line per recorded build.
func (w *SimpleWriter) WriteHistory(records []*model.BuildRecord) (int, error) {
	var sb strings.Builder

	if len(records) == 0 {
		sb.WriteString("No builds recorded.\n")
		return w.output.Write([]byte(sb.String()))
	}

	fmt.Fprintf(&sb, "%-6s %-19s %-9s %-12s %s\n", "ID", "DATE", "FRAGMENTS", "DIGEST", "OUTPUT")
	writeRule(&sb, "-")
	for _, r := range records {
		fmt.Fprintf(&sb, "%-6d %-19s %-9d %-12s %s\n",
			r.ID,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.FragmentCount,
			shortDigest(r.Digest),
			r.OutputPath,
		)
		if w.verbose && r.BackupPath != "" {
			fmt.Fprintf(&sb, "       backup: %s\n", r.BackupPath)
		}
	}

	return w.output.Write([]byte(sb.String()))
}

// writeRule writes a horizontal rule made of ch.
func writeRule(sb *strings.Builder, ch string) {
	sb.WriteString(strings.Repeat(ch, ruleWidth))
	sb.WriteString("\n")
}
