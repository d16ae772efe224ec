package otlp_ingest

import (
	"context"
	"time"

	"github.com/willcgage/wirelessboard/internal/logstore"
	protoLogs "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	commonv1 "go.opentelemetry.io/proto/otlp/common/v1"
	v1 "go.opentelemetry.io/proto/otlp/logs/v1"
	"go.uber.org/zap"
)

// LogServiceServerImpl accepts OTLP/gRPC log exports from out-of-process
// wirelessboard subsystems and funnels them into the shared log file. The
// exporter's scope name is the logger name, so resolved sources line up with
// in-process entries.
type LogServiceServerImpl struct {
	protoLogs.UnimplementedLogsServiceServer
	buffer RecordBuffer
	logger *zap.Logger
}

func NewLogServiceServerImpl(
	logger *zap.Logger,
	buffer RecordBuffer,
) *LogServiceServerImpl {
	logger.Info("Creating new LogServiceServerImpl")
	return &LogServiceServerImpl{
		logger: logger,
		buffer: buffer,
	}
}

func (lss *LogServiceServerImpl) Export(
	ctx context.Context,
	req *protoLogs.ExportLogsServiceRequest,
) (*protoLogs.ExportLogsServiceResponse, error) {
	for _, resourceLogs := range req.ResourceLogs {
		// Resource attributes are ignored; the scope name carries identity
		for _, scopeLog := range resourceLogs.ScopeLogs {
			loggerName := scopeLog.GetScope().GetName()
			records := make([]logstore.Record, len(scopeLog.LogRecords))
			for i, logRecord := range scopeLog.LogRecords {
				records[i] = typeRecord(logRecord, loggerName)
			}
			lss.buffer.WriteToBuffer(records)
		}
	}
	return &protoLogs.ExportLogsServiceResponse{}, nil
}

func typeRecord(logRecord *v1.LogRecord, loggerName string) logstore.Record {
	record := logstore.Record{
		Timestamp: recordTime(logRecord),
		Level:     getSeverity(logRecord.SeverityNumber),
		Logger:    loggerName,
		Source:    logstore.ResolveSource(loggerName),
		Message:   logRecord.Body.GetStringValue(),
		Context:   attributesContext(logRecord.Attributes),
	}
	if stack, ok := record.Context["exception.stacktrace"].(string); ok {
		record.ExcInfo = stack
		delete(record.Context, "exception.stacktrace")
	}
	if len(record.Context) == 0 {
		record.Context = nil
	}
	return record
}

func recordTime(logRecord *v1.LogRecord) time.Time {
	if logRecord.TimeUnixNano != 0 {
		return time.Unix(0, int64(logRecord.TimeUnixNano)).UTC()
	}
	if logRecord.ObservedTimeUnixNano != 0 {
		return time.Unix(0, int64(logRecord.ObservedTimeUnixNano)).UTC()
	}
	return time.Now().UTC()
}

// getSeverity maps OTLP severity bands onto the store levels. Comparisons
// run on band boundaries so INFO2..INFO4 style refinements land with their
// band instead of falling through.
func getSeverity(severityNumber v1.SeverityNumber) logstore.Level {
	switch {
	case severityNumber >= v1.SeverityNumber_SEVERITY_NUMBER_FATAL:
		return logstore.CriticalLevel
	case severityNumber >= v1.SeverityNumber_SEVERITY_NUMBER_ERROR:
		return logstore.ErrorLevel
	case severityNumber >= v1.SeverityNumber_SEVERITY_NUMBER_WARN:
		return logstore.WarningLevel
	case severityNumber >= v1.SeverityNumber_SEVERITY_NUMBER_INFO:
		return logstore.InfoLevel
	case severityNumber >= v1.SeverityNumber_SEVERITY_NUMBER_TRACE:
		return logstore.DebugLevel
	default:
		return logstore.InfoLevel
	}
}

func attributesContext(attrs []*commonv1.KeyValue) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	context := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		if attr == nil {
			continue
		}
		context[attr.Key] = anyValue(attr.Value)
	}
	return context
}

func anyValue(value *commonv1.AnyValue) any {
	switch typed := value.GetValue().(type) {
	case *commonv1.AnyValue_StringValue:
		return typed.StringValue
	case *commonv1.AnyValue_BoolValue:
		return typed.BoolValue
	case *commonv1.AnyValue_IntValue:
		return typed.IntValue
	case *commonv1.AnyValue_DoubleValue:
		return typed.DoubleValue
	case *commonv1.AnyValue_BytesValue:
		return typed.BytesValue
	case *commonv1.AnyValue_ArrayValue:
		items := typed.ArrayValue.GetValues()
		out := make([]any, 0, len(items))
		for _, item := range items {
			out = append(out, anyValue(item))
		}
		return out
	case *commonv1.AnyValue_KvlistValue:
		pairs := typed.KvlistValue.GetValues()
		out := make(map[string]any, len(pairs))
		for _, pair := range pairs {
			out[pair.GetKey()] = anyValue(pair.GetValue())
		}
		return out
	default:
		return nil
	}
}
