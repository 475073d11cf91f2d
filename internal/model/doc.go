// Package model defines the data structures shared by the mintmerge packages.
//
// This package contains the following main types:
//   - Object: an insertion-ordered mapping used for every JSON object
//   - Fragment: one navigation definition loaded from a fragment file
//   - Build: the state of a single aggregation run as it moves through the pipeline
//   - BuildRecord: the persisted summary of a finished build
//
// The error taxonomy of a build (ErrDiscovery, ErrLoad, ErrBase, ErrBackup,
// ErrWrite) also lives here so that the pipeline steps and the CLI agree on it
// without importing each other.
package model
