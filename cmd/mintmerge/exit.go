package main

import (
	"errors"
	"fmt"

	"github.com/nao1215/mintmerge/internal/model"
)

// Process exit codes.
const (
	exitOK        = 0
	exitFailure   = 1
	exitConfig    = 2
	exitDiscovery = 3
	exitLoad      = 4
	exitBase      = 5
	exitBackup    = 6
	exitWrite     = 7
)

// errConfig marks errors in flags or the configuration file.
var errConfig = errors.New("configuration error")

// configError wraps err as a configuration error.
func configError(err error) error {
	return fmt.Errorf("%w: %w", errConfig, err)
}

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errConfig):
		return exitConfig
	case errors.Is(err, model.ErrDiscovery):
		return exitDiscovery
	case errors.Is(err, model.ErrLoad):
		return exitLoad
	case errors.Is(err, model.ErrBase):
		return exitBase
	case errors.Is(err, model.ErrBackup):
		return exitBackup
	case errors.Is(err, model.ErrWrite):
		return exitWrite
	default:
		return exitFailure
	}
}
