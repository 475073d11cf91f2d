// Package log configures structured logging for mintmerge on top of slog.
//
// Site configurations routinely carry credentials: analytics keys, API
// playground tokens, search keys. Anything that ends up in a log attribute
// passes through RedactingHandler, which masks values whose key names or
// shapes look secret, at every log level.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose, false)
//	slog.SetDefault(logger)
//
//	logger.Debug("loaded base part", "apiKey", key) // apiKey=***REDACTED***
package log
