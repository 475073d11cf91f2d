package model

import "errors"

// Build failure categories.
// Every error returned by a pipeline step wraps exactly one of these, so callers
// can classify failures with errors.Is.
var (
	// ErrDiscovery is returned when the aggregation root is missing, is not a
	// directory, or cannot be read.
	ErrDiscovery = errors.New("fragment discovery failed")

	// ErrLoad is returned when a fragment file cannot be read, parsed or evaluated.
	// A fragment without a default export is not an error.
	ErrLoad = errors.New("fragment load failed")

	// ErrBase is returned when a base configuration part cannot be resolved
	// to a key-value mapping.
	ErrBase = errors.New("base configuration failed")

	// ErrBackup is returned when the backup directory cannot be created or the
	// previous output cannot be moved into it.
	ErrBackup = errors.New("backup failed")

	// ErrWrite is returned when the output document cannot be serialized or written.
	ErrWrite = errors.New("write failed")
)
