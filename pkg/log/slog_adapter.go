package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes codec events to an slog.Logger.
// Useful for development when you want to see codec events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("op", event.Op.String()),
	}

	// Add optional identifiers
	if event.DocumentID != "" {
		attrs = append(attrs, slog.String("document", event.DocumentID))
	}
	if event.Encoding != "" {
		attrs = append(attrs,
			slog.String("encoding", event.Encoding),
			slog.Int("encoding_version", event.EncodingVersion),
		)
	}
	if event.Format != "" {
		attrs = append(attrs,
			slog.String("format", event.Format),
			slog.Int("format_version", event.FormatVersion),
		)
	}

	// Add op-specific attributes
	switch {
	case event.Decode != nil:
		attrs = append(attrs,
			slog.Int("elements", event.Decode.Elements),
			slog.Int("attributes", event.Decode.Attributes),
			slog.Int("deferred", event.Decode.Deferred),
			slog.Int64("bytes", event.Decode.Bytes),
		)
	case event.Encode != nil:
		attrs = append(attrs,
			slog.Int("elements", event.Encode.Elements),
			slog.Int("attributes", event.Encode.Attributes),
			slog.Int64("bytes", event.Encode.Bytes),
		)
	case event.Deferred != nil:
		attrs = append(attrs,
			slog.String("attribute", event.Deferred.Attribute),
			slog.String("owner", event.Deferred.Owner),
			slog.Int64("offset", event.Deferred.Offset),
		)
	case event.Stub != nil:
		attrs = append(attrs,
			slog.String("stub_id", event.Stub.ID),
			slog.Bool("resolved", event.Stub.Resolved),
		)
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_context", event.Error.Context),
			slog.String("error_msg", event.Error.Message),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "dmx event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
