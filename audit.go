package authcore

import (
	"io"

	"github.com/gp-18/authcore/internal/audit"
)

// AuditEvent is the structured record emitted for every significant engine
// operation outcome. Events carry the acting user, the client IP and
// User-Agent taken from the request context, and a stable error code when
// the operation failed. Events never contain passwords, password hashes,
// TOTP secrets, or raw tokens.
//
//	Docs: docs/audit.md
type AuditEvent = audit.Event

// AuditSink consumes emitted [AuditEvent] values. Implementations must be
// safe for concurrent use; the engine delivers events from a single
// dispatcher goroutine, but sinks may also be shared across engines.
//
//	Docs: docs/audit.md
type AuditSink = audit.Sink

// NoOpSink discards every audit event. It is the default sink when auditing
// is enabled without an explicit destination.
type NoOpSink = audit.NoOpSink

// ChannelSink buffers audit events in a channel for consumption by the
// caller, typically a test or an export pipeline.
type ChannelSink = audit.ChannelSink

// JSONWriterSink serializes each audit event as a single JSON line to an
// [io.Writer].
type JSONWriterSink = audit.JSONWriterSink

// MultiSink delivers each audit event to every configured sink in order.
type MultiSink = audit.MultiSink

// NewChannelSink returns a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a [JSONWriterSink] writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// NewMultiSink returns a [MultiSink] fanning out to the given sinks.
// Nil sinks are skipped.
func NewMultiSink(sinks ...AuditSink) *MultiSink {
	return audit.NewMultiSink(sinks...)
}
