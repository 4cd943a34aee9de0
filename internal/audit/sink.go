// Package audit provides the fire-and-forget audit sink used across the
// payment pipeline. Recording never blocks the request path, never returns
// an error and never panics into the caller.
package audit

import (
	"github.com/sirupsen/logrus"
)

// Sink records audit events. Implementations must be safe for concurrent use
// and must swallow their own failures.
type Sink interface {
	Record(event string, fields map[string]any)
}

// warnEvents are audit events logged at warning level by the log sink.
// Everything else is informational, including expected outcomes like
// duplicate deliveries.
var warnEvents = map[string]bool{
	"gateway_retry":              true,
	"webhook_invalid_signature":  true,
	"webhook_malformed":          true,
	"webhook_config_error":       true,
	"webhook_processing_failed":  true,
	"webhook_reconcile_required": true,
	"webhook_panic":              true,
}

// LogSink writes audit events to the process logger.
type LogSink struct {
	logger logrus.FieldLogger
}

// NewLogSink creates a sink backed by the standard logrus logger.
func NewLogSink() *LogSink {
	return &LogSink{logger: logrus.StandardLogger().WithField("component", "audit")}
}

// Record implements Sink.
func (s *LogSink) Record(event string, fields map[string]any) {
	entry := s.logger.WithFields(logrus.Fields(fields))
	if warnEvents[event] {
		entry.Warn(event)
		return
	}
	entry.Info(event)
}

// MultiSink fans an event out to several sinks.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a sink that records to every given sink in order.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Record implements Sink.
func (s *MultiSink) Record(event string, fields map[string]any) {
	for _, sink := range s.sinks {
		sink.Record(event, fields)
	}
}

// NopSink discards every event.
type NopSink struct{}

// Record implements Sink.
func (NopSink) Record(string, map[string]any) {}
