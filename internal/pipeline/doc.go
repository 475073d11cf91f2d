// Package pipeline runs a site configuration build as a sequence of steps.
//
// A build discovers fragment files below the root, loads each one, merges the
// base configuration, moves the previous output into the backup directory,
// assembles the document and writes it. Every step receives the shared
// model.Build and fills in its own part. The first failing step aborts the
// build; later steps do not run, so a failed build never writes a partial
// document.
//
// Fragment loading can run on several goroutines (see LoadStep); the loaded
// fragments always keep discovery order.
package pipeline
