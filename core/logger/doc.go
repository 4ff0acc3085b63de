// Package logger provides the structured logging facility based on Zap.
//
// It returns a configured logger instance for either development (console
// encoding, colored levels) or production (json) use, driven by the level
// and format settings in the application configuration.
//
// The WithRayID helper extracts the request id from a Fiber context and
// attaches it to the log entry, so every log line of one API request can
// be correlated.
package logger
