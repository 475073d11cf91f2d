// Package config holds the settings of a mintmerge build and loads them from
// defaults, an optional YAML file and command line flags, in that order of
// precedence.
package config
