package logpipe

import (
	"github.com/willcgage/wirelessboard/internal/logstore"
	"go.uber.org/zap/zapcore"
)

// fileCore writes entries through the shared store appender in exactly the
// shape the store reads back. It applies no level gate of its own; gatedCore
// decides what reaches it.
type fileCore struct {
	appender *logstore.Appender
	fields   []zapcore.Field
}

func (c *fileCore) Enabled(zapcore.Level) bool {
	return true
}

func (c *fileCore) With(fields []zapcore.Field) zapcore.Core {
	combined := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	combined = append(combined, c.fields...)
	combined = append(combined, fields...)
	return &fileCore{appender: c.appender, fields: combined}
}

func (c *fileCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return checked.AddCore(entry, c)
}

func (c *fileCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, field := range c.fields {
		field.AddTo(enc)
	}
	for _, field := range fields {
		field.AddTo(enc)
	}
	context := enc.Fields

	record := logstore.Record{
		Timestamp: entry.Time.UTC(),
		Level:     levelName(entry.Level),
		Logger:    entry.LoggerName,
		Source:    logstore.ResolveSource(entry.LoggerName),
		Message:   entry.Message,
		Stack:     entry.Stack,
	}
	if exc, ok := context["exc_info"].(string); ok {
		record.ExcInfo = exc
		delete(context, "exc_info")
	}
	if len(context) > 0 {
		record.Context = context
	}
	return c.appender.Append(record)
}

func (c *fileCore) Sync() error {
	return nil
}

// gatedCore applies the per-logger level gate in front of an inner core, the
// shared gate both the file and console outputs sit behind.
type gatedCore struct {
	zapcore.Core
	levels *sourceLevels
}

func (g *gatedCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !g.levels.enabled(entry.LoggerName, entry.Level) {
		return checked
	}
	return g.Core.Check(entry, checked)
}

func (g *gatedCore) With(fields []zapcore.Field) zapcore.Core {
	return &gatedCore{Core: g.Core.With(fields), levels: g.levels}
}
