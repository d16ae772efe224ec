package logstore

import (
	"bytes"
	"strconv"
	"time"

	"github.com/valyala/fastjson"
)

var lineParsers fastjson.ParserPool

// parseLine decodes one line of the log file into an Entry positioned at
// index. Blank lines and lines that do not hold a JSON object are skipped,
// but they still occupy their index.
func parseLine(line []byte, index int64) (Entry, bool) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return Entry{}, false
	}
	parser := lineParsers.Get()
	defer lineParsers.Put(parser)
	value, err := parser.ParseBytes(trimmed)
	if err != nil || value.Type() != fastjson.TypeObject {
		return Entry{}, false
	}

	record := Record{
		Timestamp: parseTimestamp(stringField(value, "ts")),
		Level:     Level(stringField(value, "level")),
		Logger:    stringField(value, "logger"),
		Source:    stringField(value, "source"),
		Message:   stringField(value, "message"),
		Context:   contextMap(value.Get("context")),
		ExcInfo:   stringField(value, "exc_info"),
		Stack:     stringField(value, "stack"),
	}
	if record.Source == "" {
		record.Source = ResolveSource(record.Logger)
	}
	return Entry{
		Record: record,
		Index:  index,
		Cursor: strconv.FormatInt(index, 10),
	}, true
}

func stringField(value *fastjson.Value, key string) string {
	if b := value.GetStringBytes(key); b != nil {
		return string(b)
	}
	return ""
}

func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// contextMap coerces the context field into a map: absent or null becomes an
// empty map, and a non-object value is wrapped under a "value" key.
func contextMap(value *fastjson.Value) map[string]any {
	if value == nil || value.Type() == fastjson.TypeNull {
		return map[string]any{}
	}
	if value.Type() != fastjson.TypeObject {
		return map[string]any{"value": goValue(value)}
	}
	obj, err := value.Object()
	if err != nil {
		return map[string]any{}
	}
	out := make(map[string]any, obj.Len())
	obj.Visit(func(key []byte, item *fastjson.Value) {
		out[string(key)] = goValue(item)
	})
	return out
}

func goValue(value *fastjson.Value) any {
	switch value.Type() {
	case fastjson.TypeObject:
		obj, err := value.Object()
		if err != nil {
			return nil
		}
		out := make(map[string]any, obj.Len())
		obj.Visit(func(key []byte, item *fastjson.Value) {
			out[string(key)] = goValue(item)
		})
		return out
	case fastjson.TypeArray:
		items := value.GetArray()
		out := make([]any, 0, len(items))
		for _, item := range items {
			out = append(out, goValue(item))
		}
		return out
	case fastjson.TypeString:
		return string(value.GetStringBytes())
	case fastjson.TypeNumber:
		if n, err := value.Int64(); err == nil {
			return n
		}
		f, _ := value.Float64()
		return f
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	default:
		return nil
	}
}
