package logstore

import (
	"sort"
	"strings"
)

// Namespace is the root logger name shared by every wirelessboard subsystem.
const Namespace = "wirelessboard"

// loggerSources maps full logger names to the short source tags shown in the
// log viewer. Loggers outside the namespace resolve to their own name.
var loggerSources = map[string]string{
	Namespace:                "core",
	Namespace + ".core":      "core",
	Namespace + ".slot":      "slot",
	Namespace + ".pco":       "pco",
	Namespace + ".web":       "web",
	Namespace + ".discovery": "discovery",
	Namespace + ".device":    "device",
	Namespace + ".telemetry": "telemetry",
}

// LoggerNames returns every registered full logger name.
func LoggerNames() []string {
	names := make([]string, 0, len(loggerSources))
	for name := range loggerSources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveSource derives the short source tag for a logger name. Names under
// the namespace resolve to their first suffix segment even when unregistered,
// so a future "wirelessboard.cloud" logger shows up as "cloud".
func ResolveSource(loggerName string) string {
	if tag, ok := loggerSources[loggerName]; ok {
		return tag
	}
	if rest, ok := strings.CutPrefix(loggerName, Namespace+"."); ok {
		return rest
	}
	return loggerName
}

// Sources returns the sorted set of known source tags.
func Sources() []string {
	seen := make(map[string]struct{}, len(loggerSources))
	tags := make([]string, 0, len(loggerSources))
	for _, tag := range loggerSources {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
