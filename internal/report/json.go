package report

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/mintmerge/internal/model"
	"golang.org/x/crypto/sha3"
)

// DocumentIndent is the indentation of the written site configuration.
const DocumentIndent = "  "

// JSONWriter outputs values as JSON.
// Object key order is preserved and HTML characters are not escaped, so the
// output matches what JSON.stringify produces for the same value.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string.
	indentString string

	// trailingNewline appends a newline after each value.
	trailingNewline bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", DocumentIndent)
}

// WithTrailingNewline terminates each written value with a newline.
func WithTrailingNewline() JSONWriterOption {
	return func(w *JSONWriter) {
		w.trailingNewline = true
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// WriteDocument outputs an arbitrary JSON-compatible value.
func (w *JSONWriter) WriteDocument(v any) (int, error) {
	return w.writeJSON(v)
}

// WriteBuild outputs the build state, including the document.
func (w *JSONWriter) WriteBuild(build *model.Build) (int, error) {
	return w.writeJSON(build)
}

// WriteHistory outputs build records as a JSON array.
func (w *JSONWriter) WriteHistory(records []*model.BuildRecord) (int, error) {
	if records == nil {
		records = []*model.BuildRecord{}
	}
	return w.writeJSON(records)
}

// writeJSON encodes v and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = marshal(v)
	}
	if err != nil {
		return 0, err
	}

	if w.trailingNewline {
		data = append(data, '\n')
	}

	return w.output.Write(data)
}

// marshal encodes v compactly. *model.Object and []any trees are encoded
// directly; other values go through encoding/json, which calls
// Object.MarshalJSON for nested objects.
func marshal(v any) ([]byte, error) {
	switch v.(type) {
	case *model.Object, []any, nil, string, bool, json.Number, model.Opaque:
		return model.EncodeJSON(v)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalIndent encodes v with the given prefix and indentation.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	compact, err := marshal(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, prefix, indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalDocument encodes the site configuration document: two-space
// indentation, no trailing newline.
func MarshalDocument(doc any) ([]byte, error) {
	return MarshalIndent(doc, "", DocumentIndent)
}

// Digest returns the hex SHA3-256 digest of data.
func Digest(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// WriteFile replaces the file at path with the encoded document and returns
// the digest of the written bytes.
//
// The document is written to a temporary file in the destination directory
// and renamed over path, so path never holds a partially written document.
// Errors wrap model.ErrWrite.
func WriteFile(path string, doc any) (string, error) {
	data, err := MarshalDocument(doc)
	if err != nil {
		return "", fmt.Errorf("%w: encode: %w", model.ErrWrite, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrWrite, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()       //nolint:errcheck // Best effort cleanup
		_ = os.Remove(tmpName) //nolint:errcheck // Best effort cleanup
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return "", fmt.Errorf("%w: %w", model.ErrWrite, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // Best effort cleanup
		return "", fmt.Errorf("%w: %w", model.ErrWrite, err)
	}
	// The document is consumed by other tools, so it is world-readable.
	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // Site configuration is public
		_ = os.Remove(tmpName) //nolint:errcheck // Best effort cleanup
		return "", fmt.Errorf("%w: %w", model.ErrWrite, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // Best effort cleanup
		return "", fmt.Errorf("%w: %w", model.ErrWrite, err)
	}

	return Digest(data), nil
}
