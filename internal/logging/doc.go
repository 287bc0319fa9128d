// Package logging provides a simple leveled logging interface for
// slidekiosk, backed by zerolog.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//
// The log level is configured via the LOG_LEVEL environment variable
// (DEBUG=1 forces debug level). Setting LOG_FILE additionally writes
// JSON log lines to a size-rotated file.
package logging
