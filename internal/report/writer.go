package report

import (
	"io"

	"github.com/nao1215/mintmerge/internal/model"
)

// Writer renders build information in a particular format.
type Writer interface {
	// WriteBuild outputs a summary of a finished build.
	// Returns the number of bytes written and any error encountered.
	WriteBuild(build *model.Build) (int, error)

	// WriteHistory outputs a list of recorded builds, newest first.
	WriteHistory(records []*model.BuildRecord) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// shortDigest abbreviates a hex digest for tables.
func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

// fragmentTitle returns the fragment's "group" name if it has one.
func fragmentTitle(f model.Fragment) string {
	obj, ok := f.Value.(*model.Object)
	if !ok {
		return ""
	}
	if group, ok := obj.Get("group"); ok {
		if s, ok := group.(string); ok {
			return s
		}
	}
	return ""
}
