package report

import (
	"io"
	"path/filepath"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/mintmerge/internal/model"
)

// timeLayout is the timestamp format used in human-readable reports.
const timeLayout = "2006-01-02 15:04:05 MST"

// MarkdownWriter outputs build summaries in Markdown format.
// The summary is meant to be committed next to the site configuration or
// posted in review comments.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// WriteBuild outputs the build summary in Markdown format.
func (w *MarkdownWriter) WriteBuild(build *model.Build) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, build)
	w.writeNavigation(md, build)
	w.writeSkipped(md, build)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteHistory outputs recorded builds as a Markdown table.
func (w *MarkdownWriter) WriteHistory(records []*model.BuildRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Build History")
	md.PlainText("")

	if len(records) == 0 {
		md.PlainText("No builds recorded.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		backup := r.BackupPath
		if backup == "" {
			backup = "-"
		}
		rows[i] = []string{
			strconv.FormatInt(r.ID, 10),
			r.Timestamp.Format(timeLayout),
			"`" + r.OutputPath + "`",
			strconv.Itoa(r.FragmentCount),
			"`" + shortDigest(r.Digest) + "`",
			backup,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"ID", "Date", "Output", "Fragments", "Digest", "Backup"},
		Rows:   rows,
	})

	return len(md.String()), md.Build()
}

// writeHeader writes the build information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, build *model.Build) {
	md.H1("Site Configuration Build")
	md.PlainText("")

	backup := "-"
	if build.BackupPath != "" {
		backup = "`" + build.BackupPath + "`"
	}
	digest := "-"
	if build.Digest != "" {
		digest = "`" + shortDigest(build.Digest) + "`"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Build", "`" + build.ID + "`"},
			{"Date", build.StartedAt.Format(timeLayout)},
			{"Root", "`" + build.Root + "`"},
			{"Output", "`" + build.OutputPath + "`"},
			{"Backup", backup},
			{"Digest", digest},
			{"Fragments", strconv.Itoa(len(build.Fragments))},
		},
	})
	md.PlainText("")
}

// writeNavigation lists the fragments that make up the navigation list.
func (w *MarkdownWriter) writeNavigation(md *markdown.Markdown, build *model.Build) {
	md.H2("Navigation")
	md.PlainText("")

	if len(build.Fragments) == 0 {
		md.Note("No fragments were found. The navigation list is empty.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(build.Fragments))
	for i, f := range build.Fragments {
		title := fragmentTitle(f)
		if title == "" {
			title = "-"
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			title,
			"`" + relativePath(build.Root, f.Path) + "`",
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Group", "Source"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(build.Fragments) > 1 {
		w.writePieChart(md, build)
	}
}

// writePieChart writes a mermaid chart of pages per fragment.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, build *model.Build) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Pages per Fragment"),
		piechart.WithShowData(true),
	)

	plotted := 0
	for _, f := range build.Fragments {
		n := pageCount(f)
		if n == 0 {
			continue
		}
		label := fragmentTitle(f)
		if label == "" {
			label = filepath.Base(filepath.Dir(f.Path))
		}
		chart.LabelAndIntValue(label, uint64(n)) //nolint:gosec // n is non-negative
		plotted++
	}
	if plotted == 0 {
		return
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeSkipped lists files that had no default export.
func (w *MarkdownWriter) writeSkipped(md *markdown.Markdown, build *model.Build) {
	if len(build.Skipped) == 0 {
		return
	}

	md.H2("Skipped")
	md.PlainText("")
	md.Warningf("%d file(s) had no default export and were left out of the navigation list.", len(build.Skipped))
	md.PlainText("")

	items := make([]string, len(build.Skipped))
	for i, p := range build.Skipped {
		items[i] = "`" + relativePath(build.Root, p) + "`"
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by [mintmerge](https://github.com/nao1215/mintmerge)*")
}

// relativePath returns path relative to root, or path itself when it is not below root.
func relativePath(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// pageCount returns the length of the fragment's "pages" list.
func pageCount(f model.Fragment) int {
	obj, ok := f.Value.(*model.Object)
	if !ok {
		return 0
	}
	pages, ok := obj.Get("pages")
	if !ok {
		return 0
	}
	list, ok := pages.([]any)
	if !ok {
		return 0
	}
	return len(list)
}
