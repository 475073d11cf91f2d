// Package main provides the entry point for the mintmerge CLI.
//
// mintmerge collects the navigation fragments (config.js files) found under a
// documentation tree and merges them with a shared base configuration into a
// single mint.json site configuration.
//
// Usage:
//
//	mintmerge build
//	mintmerge build --root docs --output docs/mint.json
//	mintmerge history --compare
//
// See --help for all available options.
package main

// main is the entry point for mintmerge.
func main() {
	Execute()
}
