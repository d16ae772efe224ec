package logstore

import "strings"

// Level is a log severity name as it appears on the wire and on disk,
// always uppercase.
type Level string

const (
	DebugLevel    Level = "DEBUG"
	InfoLevel     Level = "INFO"
	WarningLevel  Level = "WARNING"
	ErrorLevel    Level = "ERROR"
	CriticalLevel Level = "CRITICAL"
)

var levelValues = map[Level]int{
	DebugLevel:    10,
	InfoLevel:     20,
	WarningLevel:  30,
	ErrorLevel:    40,
	CriticalLevel: 50,
}

// Levels returns the known level names in ascending severity order.
func Levels() []Level {
	return []Level{DebugLevel, InfoLevel, WarningLevel, ErrorLevel, CriticalLevel}
}

// LevelNames returns the known level names as plain strings, for metadata
// responses.
func LevelNames() []string {
	levels := Levels()
	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = string(l)
	}
	return names
}

// NormalizeLevel trims and uppercases a level name, substituting fallback
// for empty input. Unknown names are passed through uppercased; comparisons
// treat them as DEBUG.
func NormalizeLevel(value string, fallback Level) Level {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return fallback
	}
	return Level(trimmed)
}

// Value returns the numeric rank of the level. Unknown levels rank as DEBUG
// so that filtering on them never hides entries.
func (l Level) Value() int {
	if v, ok := levelValues[NormalizeLevel(string(l), DebugLevel)]; ok {
		return v
	}
	return levelValues[DebugLevel]
}

// Known reports whether the level is one of the five recognized names.
func (l Level) Known() bool {
	_, ok := levelValues[l]
	return ok
}
