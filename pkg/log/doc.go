// Package log provides structured codec event logging for dmx-go.
//
// This package defines the Logger interface and Event types for capturing
// document lifecycle events: loads, saves, deferred attribute decodes, and
// stub resolutions. It is separate from operational logging (slog) - the
// event trace is machine-readable and replayable for debugging codec
// behavior against large documents.
//
// # Basic Usage
//
// Applications attach a Logger implementation to a DataModel:
//
//	// For development: log to console via slog
//	dm.SetLogger(log.NewSlogAdapter(slog.Default()))
//
//	// For analysis: write to binary file
//	fl, _ := log.NewFileLogger("session.dmxlog")
//	dm.SetLogger(fl)
//
//	// Both: use MultiLogger
//	dm.SetLogger(log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl))
//
// # File Format
//
// FileLogger writes a stream of CBOR-encoded events with integer keys.
// Reader streams them back, optionally filtered by document, operation, or
// time window.
package log
