// Package report serializes build output.
//
// This package contains:
//   - JSONWriter and WriteFile: the site configuration document, pretty-printed
//     with two-space indentation and written as a whole-file replacement
//   - MarkdownWriter: a build summary and the build history in Markdown
//   - SimpleWriter: plain-text output for terminals
//
// Summary writers implement the Writer interface so the CLI can pick one per
// output format.
package report
