package logstore

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Defaults used when a board has no stored logging settings.
const (
	DefaultFileLevel    = InfoLevel
	DefaultConsoleLevel = WarningLevel
	DefaultMaxBytes     = 10 * 1024 * 1024
	DefaultBackups      = 5
)

var ErrLevelsNotObject = errors.New("logging.levels must be an object")

// Settings is the logging configuration shared between the board and its
// clients. Level is the base file threshold, Levels holds per-logger
// overrides keyed by full logger name or source tag, and MaxBytes/Backups
// bound the rotating log file.
type Settings struct {
	Level        Level            `json:"level"`
	ConsoleLevel Level            `json:"console_level"`
	Levels       map[string]Level `json:"levels"`
	MaxBytes     int64            `json:"max_bytes"`
	Backups      int              `json:"backups"`
}

// SettingsPatch is a partial update to Settings. Nil fields leave the current
// value untouched. Levels stays raw so an absent key, an explicit null, and a
// replacement object can be told apart.
type SettingsPatch struct {
	Level        *string         `json:"level"`
	ConsoleLevel *string         `json:"console_level"`
	Levels       json.RawMessage `json:"levels"`
	MaxBytes     *int64          `json:"max_bytes"`
	Backups      *int            `json:"backups"`
}

func DefaultSettings() Settings {
	return Settings{
		Level:        DefaultFileLevel,
		ConsoleLevel: DefaultConsoleLevel,
		Levels:       map[string]Level{},
		MaxBytes:     DefaultMaxBytes,
		Backups:      DefaultBackups,
	}
}

// Clone returns a deep copy so callers can hand settings out without sharing
// the overrides map.
func (s Settings) Clone() Settings {
	out := s
	out.Levels = make(map[string]Level, len(s.Levels))
	for name, lvl := range s.Levels {
		out.Levels[name] = lvl
	}
	return out
}

// EffectiveLevel resolves the file threshold for a logger, trying an override
// by full logger name, then by source tag, then the base level.
func (s Settings) EffectiveLevel(loggerName string) Level {
	if lvl := s.Levels[loggerName]; lvl != "" {
		return lvl
	}
	if lvl := s.Levels[ResolveSource(loggerName)]; lvl != "" {
		return lvl
	}
	return s.Level
}

// NormalizeSettings coerces a settings value into a usable one: level names
// are trimmed and uppercased with empty values falling back to the defaults,
// rotation bounds fall back when out of range, and override values fall back
// to the normalized base level.
func NormalizeSettings(s Settings) Settings {
	out := DefaultSettings()
	out.Level = NormalizeLevel(string(s.Level), out.Level)
	out.ConsoleLevel = NormalizeLevel(string(s.ConsoleLevel), out.ConsoleLevel)
	if s.MaxBytes > 0 {
		out.MaxBytes = s.MaxBytes
	}
	if s.Backups >= 0 {
		out.Backups = s.Backups
	}
	for name, lvl := range s.Levels {
		out.Levels[name] = NormalizeLevel(string(lvl), out.Level)
	}
	return out
}

// MergeSettings applies patch on top of current and normalizes the result. A
// levels object replaces the overrides wholesale; an explicit null clears
// them. Any other levels value is rejected.
func MergeSettings(current Settings, patch SettingsPatch) (Settings, error) {
	merged := current.Clone()
	if patch.Level != nil {
		merged.Level = Level(*patch.Level)
	}
	if patch.ConsoleLevel != nil {
		merged.ConsoleLevel = Level(*patch.ConsoleLevel)
	}
	if patch.MaxBytes != nil {
		merged.MaxBytes = *patch.MaxBytes
	}
	if patch.Backups != nil {
		merged.Backups = *patch.Backups
	}
	if len(patch.Levels) > 0 {
		overrides, err := decodeLevelOverrides(patch.Levels)
		if err != nil {
			return Settings{}, err
		}
		merged.Levels = overrides
	}
	return NormalizeSettings(merged), nil
}

// decodeLevelOverrides returns an empty map for a JSON null, the decoded map
// for an object, and ErrLevelsNotObject for anything else. Non-string
// override values are stringified so they normalize like strings.
func decodeLevelOverrides(raw json.RawMessage) (map[string]Level, error) {
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, ErrLevelsNotObject
	}
	switch value := probe.(type) {
	case nil:
		return map[string]Level{}, nil
	case map[string]any:
		overrides := make(map[string]Level, len(value))
		for name, lvl := range value {
			switch typed := lvl.(type) {
			case string:
				overrides[name] = Level(typed)
			case nil:
				overrides[name] = ""
			default:
				overrides[name] = Level(fmt.Sprint(typed))
			}
		}
		return overrides, nil
	default:
		return nil, ErrLevelsNotObject
	}
}
