// Package fragment loads navigation fragments and base configuration parts
// from files.
//
// A file is loaded as a Module: a set of named exports. The "default" export
// of a fragment file is its navigation definition. Two kinds of files are
// supported:
//
//   - JavaScript modules (.js, .mjs, .cjs) are bundled together with their
//     relative imports by esbuild and evaluated in an isolated goja runtime.
//     Exported values are converted through JSON.stringify, so the result is
//     exactly what would have been serialized into the site configuration.
//   - Static data files (.json, .yaml, .yml), whose whole content is the
//     default export. They need no code execution and are the safer choice.
//
// A file that cannot be read, parsed or evaluated is an error wrapping
// model.ErrLoad. A file without a default export is not an error: Load
// reports ok=false and the caller skips it.
package fragment
