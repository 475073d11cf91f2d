package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and Config.Resolve().
var (
	// ErrEmptyOutput is returned when no output path is configured.
	ErrEmptyOutput = errors.New("invalid output: path must not be empty")

	// ErrInvalidJobs is returned when the number of concurrent loads is not positive.
	ErrInvalidJobs = errors.New("invalid jobs: must be positive")

	// ErrInvalidKeepBackups is returned when the backup retention count is negative.
	// Use 0 to keep every backup.
	ErrInvalidKeepBackups = errors.New("invalid keep-backups: must be non-negative")

	// ErrNoFragmentNames is returned when no fragment file name is configured.
	ErrNoFragmentNames = errors.New("no fragment file name configured")

	// ErrInvalidFragmentName is returned when a fragment name contains a path separator.
	// Fragment names are matched against bare file names.
	ErrInvalidFragmentName = errors.New("invalid fragment name: must be a bare file name")

	// ErrInvalidExclude is returned when an exclude pattern is malformed.
	ErrInvalidExclude = errors.New("invalid exclude pattern")

	// ErrOutputInBackupDir is returned when the output would be written into the
	// backup directory, where it would be moved away by its own next build.
	ErrOutputInBackupDir = errors.New("output path must not be inside the backup directory")
)
